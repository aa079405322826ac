package wiki

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Candidate is one item link found on the listing page.
type Candidate struct {
	Name string
	URL  string
}

// Candidates extracts every item link from the listing page body, in document
// order. Links live inside "div-col" column containers; a link's trimmed text
// is the item name and its href is resolved by prefixing origin. Links with
// empty text or a bare edition marker ("JE"/"BE") are skipped. Duplicates are
// kept: an item listed twice yields two candidates.
func Candidates(body []byte, origin string) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	candidates := make([]Candidate, 0, 256)
	doc.Find("div.div-col").Each(func(_ int, column *goquery.Selection) {
		column.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			name := strings.TrimSpace(link.Text())
			switch name {
			case "", "JE", "BE":
				return
			}
			href, ok := link.Attr("href")
			if !ok {
				return
			}
			candidates = append(candidates, Candidate{Name: name, URL: origin + href})
		})
	})
	return candidates, nil
}
