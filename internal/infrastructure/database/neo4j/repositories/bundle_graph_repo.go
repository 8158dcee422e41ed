package repositories

import (
	"context"

	"github.com/russellmiller49/ip-assist-lite/internal/domain/coding"
	driver "github.com/russellmiller49/ip-assist-lite/internal/infrastructure/database/neo4j"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
)

// BundleGraphRepo implements coding.BundleGraphSource against a Neo4j graph
// of (:Code)-[:BUNDLES_INTO]->(:Code) and (:Code)-[:CROSSWALKS_TO]->(:PCSCode)
// relationships, used when coding.kb_graph_backend=neo4j in place of the
// static NCCI/crosswalk sections of the JSON knowledge base file.
type BundleGraphRepo struct {
	driver driver.DriverInterface
	log    logging.Logger
}

// NewBundleGraphRepo wires a BundleGraphRepo against d. d is accepted as
// driver.DriverInterface, not the concrete *driver.Driver, so tests can
// substitute a mock transaction runner.
func NewBundleGraphRepo(d driver.DriverInterface, log logging.Logger) *BundleGraphRepo {
	return &BundleGraphRepo{driver: d, log: log}
}

// LoadNCCIBundles returns every code A that bundles into a code B, per
// (:Code {cpt: A})-[:BUNDLES_INTO {note: ...}]->(:Code {cpt: B}) edges.
func (r *BundleGraphRepo) LoadNCCIBundles(ctx context.Context) ([]coding.NCCIPair, error) {
	query := `
		MATCH (a:Code)-[b:BUNDLES_INTO]->(c:Code)
		RETURN a.cpt AS bundled, c.cpt AS into, coalesce(b.note, '') AS note
	`
	result, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (interface{}, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		var pairs []coding.NCCIPair
		for res.Next(ctx) {
			rec := res.Record()
			bundled, _ := rec.Get("bundled")
			into, _ := rec.Get("into")
			note, _ := rec.Get("note")
			bundledStr, _ := bundled.(string)
			intoStr, _ := into.(string)
			noteStr, _ := note.(string)
			if bundledStr == "" || intoStr == "" {
				continue
			}
			pairs = append(pairs, coding.NCCIPair{Bundled: bundledStr, Into: intoStr, Note: noteStr})
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return pairs, nil
	})
	if err != nil {
		return nil, err
	}
	pairs, _ := result.([]coding.NCCIPair)
	return pairs, nil
}

// LoadICD10PCSCrosswalk returns the procedure-key to ICD-10-PCS code map,
// per (:Code {key: k})-[:CROSSWALKS_TO]->(:PCSCode {code: v}) edges.
func (r *BundleGraphRepo) LoadICD10PCSCrosswalk(ctx context.Context) (map[string]string, error) {
	query := `
		MATCH (k:Code)-[:CROSSWALKS_TO]->(p:PCSCode)
		RETURN k.key AS key, p.code AS code
	`
	result, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (interface{}, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		crosswalk := make(map[string]string)
		for res.Next(ctx) {
			rec := res.Record()
			key, _ := rec.Get("key")
			code, _ := rec.Get("code")
			keyStr, _ := key.(string)
			codeStr, _ := code.(string)
			if keyStr != "" {
				crosswalk[keyStr] = codeStr
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return crosswalk, nil
	})
	if err != nil {
		return nil, err
	}
	crosswalk, _ := result.(map[string]string)
	return crosswalk, nil
}

// SeedNCCIBundles upserts bundle edges in one round trip, grounded on the
// UNWIND $batch write pattern used elsewhere in this package.
func (r *BundleGraphRepo) SeedNCCIBundles(ctx context.Context, pairs []coding.NCCIPair) error {
	if len(pairs) == 0 {
		return nil
	}
	query := `
		UNWIND $batch AS row
		MERGE (a:Code {cpt: row.bundled})
		MERGE (c:Code {cpt: row.into})
		MERGE (a)-[b:BUNDLES_INTO]->(c)
		ON CREATE SET b.note = row.note
		ON MATCH SET b.note = row.note
	`
	batch := make([]map[string]interface{}, 0, len(pairs))
	for _, p := range pairs {
		batch = append(batch, map[string]interface{}{
			"bundled": p.Bundled,
			"into":    p.Into,
			"note":    p.Note,
		})
	}
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (interface{}, error) {
		_, err := tx.Run(ctx, query, map[string]interface{}{"batch": batch})
		return nil, err
	})
	return err
}

// SeedICD10PCSCrosswalk upserts crosswalk edges in one round trip.
func (r *BundleGraphRepo) SeedICD10PCSCrosswalk(ctx context.Context, crosswalk map[string]string) error {
	if len(crosswalk) == 0 {
		return nil
	}
	query := `
		UNWIND $batch AS row
		MERGE (k:Code {key: row.key})
		MERGE (p:PCSCode {code: row.code})
		MERGE (k)-[:CROSSWALKS_TO]->(p)
	`
	batch := make([]map[string]interface{}, 0, len(crosswalk))
	for key, code := range crosswalk {
		batch = append(batch, map[string]interface{}{"key": key, "code": code})
	}
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (interface{}, error) {
		_, err := tx.Run(ctx, query, map[string]interface{}{"batch": batch})
		return nil, err
	})
	return err
}
