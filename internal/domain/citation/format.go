package citation

import (
	"fmt"
	"regexp"
	"strings"

	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

var formattedAuthorRe = regexp.MustCompile(`^[A-Z][a-z]+ [A-Z]{1,2}$`)

// FormatAMA renders a Citation as an AMA-style reference string, e.g.
// "Smith J, Lee K, Park S, et al. Endobronchial ultrasound staging. Chest. 2021."
func FormatAMA(c rtypes.Citation) string {
	authorStr := formatAuthorsAMA(c.Authors)
	title := c.Title
	if title == "" {
		title = titleFromDocID(c.DocID)
	}
	if c.Venue != "" {
		text := fmt.Sprintf("%s. %s. %s. %d", authorStr, title, c.Venue, c.Year)
		return text + "."
	}
	return fmt.Sprintf("%s. %s. %d.", authorStr, title, c.Year)
}

func formatAuthorsAMA(authors []string) string {
	switch len(authors) {
	case 0:
		return "Unknown"
	case 1:
		return formatAuthorAMA(authors[0])
	case 2:
		return formatAuthorAMA(authors[0]) + ", " + formatAuthorAMA(authors[1])
	default:
		firstThree := make([]string, 0, 3)
		for i := 0; i < 3 && i < len(authors); i++ {
			firstThree = append(firstThree, formatAuthorAMA(authors[i]))
		}
		if len(authors) > 3 {
			return strings.Join(firstThree, ", ") + ", et al"
		}
		return strings.Join(firstThree, ", ")
	}
}

// formatAuthorAMA renders a single author as "Surname Initials". Names
// already in that form ("Smith JA") pass through unchanged.
func formatAuthorAMA(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return "Unknown"
	}
	if formattedAuthorRe.MatchString(author) {
		return author
	}
	parts := strings.Fields(author)
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return fmt.Sprintf("%s %s", parts[1], strings.ToUpper(parts[0][:1]))
	default:
		last := parts[len(parts)-1]
		var initials strings.Builder
		for _, p := range parts[:len(parts)-1] {
			initials.WriteString(strings.ToUpper(p[:1]))
		}
		return fmt.Sprintf("%s %s", last, initials.String())
	}
}
