// Package htmltext flattens the HTML fragments the hotel API returns for
// parking and directions into displayable text.
package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strip returns the visible text of an HTML fragment. A fragment that does
// not parse is returned unchanged.
func Strip(fragment string) string {
	trimmed := strings.TrimSpace(fragment)
	if trimmed == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return trimmed
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
