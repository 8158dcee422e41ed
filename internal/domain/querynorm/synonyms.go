package querynorm

// synonymEntry pairs a canonical clinical term with its surface-form
// synonyms and abbreviations. Grounded on the reference implementation's
// load_medical_synonyms table ([SUPPLEMENT]).
type synonymEntry struct {
	canonical string
	forms []string // synonyms/abbreviations only, never the canonical form itself
}

// synonymTable is iterated in this fixed order so that overlapping
// substitutions are always applied identically regardless of Go's
// unordered map iteration.
var synonymTable = []synonymEntry{
	{"tracheoesophageal fistula", []string{
			"tef", "te fistula", "tracheo-esophageal fistula",
			"tracheo oesophageal fistula", "tracheo esophageal fistula",
			"esophagorespiratory fistula", "bronchoesophageal fistula",
			"tracheoesophageal fistulae", "t-e fistula",
	}},
	{"benign", []string{
			"nonmalignant", "non-malignant", "acquired non-malignant",
			"non malignant", "nonneoplastic", "non-neoplastic",
	}},
	{"malignant", []string{
			"neoplastic", "cancerous", "tumor-related", "cancer-related",
	}},
	{"stent", []string{
			"airway stent", "tracheal stent", "esophageal stent",
			"self-expanding metallic stent", "sems", "covered stent",
	}},
	{"endobronchial ultrasound", []string{
			"ebus", "ebus-tbna", "linear ebus", "radial ebus", "r-ebus",
	}},
	{"transbronchial needle aspiration", []string{
			"tbna", "eus-fna", "needle aspiration",
	}},
	{"electromagnetic navigation bronchoscopy", []string{
			"enb", "em navigation", "navigational bronchoscopy",
	}},
	{"bronchoscopic lung volume reduction", []string{
			"blvr", "lung volume reduction", "valve therapy",
	}},
	{"chronic obstructive pulmonary disease", []string{
			"copd", "emphysema", "chronic bronchitis",
	}},
	{"photodynamic therapy", []string{
			"pdt", "phototherapy", "light therapy",
	}},
	{"argon plasma coagulation", []string{
			"apc", "argon coagulation", "plasma coagulation",
	}},
	{"foreign body", []string{
			"fb", "aspirated object", "inhaled object",
	}},
	{"massive hemoptysis", []string{
			"life-threatening hemoptysis", "major hemoptysis",
			"severe hemoptysis", "massive bleeding",
	}},
	{"closure", []string{
			"occlusion", "sealing", "repair", "obliteration",
	}},
	{"complications", []string{
			"adverse events", "adverse effects", "side effects",
	}},
	{"contraindications", []string{
			"contraindication", "absolute contraindication",
			"relative contraindication", "cautions",
	}},
	{"fiducial", []string{
			"fiducial marker", "fiducials", "marker", "gold marker",
	}},
	{"ablation", []string{
			"thermal ablation", "microwave ablation", "radiofrequency ablation",
			"rfa", "mwa", "cryoablation", "cryo",
	}},
}

// medicalVocab is the fuzzy-correction lexicon, grounded on
// load_medical_vocab.
var medicalVocab = []string{
	"tracheoesophageal", "fistula", "benign", "malignant", "stent",
	"bronchoscopy", "endobronchial", "ultrasound", "transbronchial",
	"aspiration", "biopsy", "ablation", "microwave", "radiofrequency",
	"cryotherapy", "photodynamic", "therapy", "argon", "plasma",
	"coagulation", "electromagnetic", "navigation", "fiducial",
	"marker", "hemoptysis", "pneumothorax", "emphysema", "copd",
	"asthma", "bronchiectasis", "stenosis", "stricture", "obstruction",
	"tumor", "carcinoma", "adenocarcinoma", "squamous", "metastasis",
	"lymph", "node", "mediastinal", "hilar", "peripheral", "central",
	"airway", "trachea", "bronchus", "bronchi", "esophagus", "lung",
	"pleura", "pleural", "effusion", "empyema", "thoracentesis",
	"pleurodesis", "chest", "tube", "drainage", "valve", "coil",
	"management", "treatment", "intervention", "procedure", "technique",
	"complication", "contraindication", "indication", "sedation",
	"anesthesia", "fluoroscopy", "tomography", "magnetic",
	"resonance", "imaging",
}
