package wiki

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Stack size policy for the "Stackable" infobox attribute.
const (
	// StackableDefault applies when an item is stackable but the infobox
	// states no count.
	StackableDefault = 64
	// NotStackable applies to unstackable items and to every failure path.
	NotStackable = 1
)

const headerStackable = "Stackable"

var stackCount = regexp.MustCompile(`\((\d+)\)`)

// StackSize reads the "Stackable" attribute from a detail page body. The
// first infobox row whose header cell reads exactly "Stackable" and that
// carries a value cell decides the size: a value containing "Yes" yields the
// parenthesized count, or 64 without one; any other value yields 1. A
// matching header row without a value cell is skipped and the scan continues.
// Pages with no such row, and malformed bodies, yield 1. StackSize never fails.
func StackSize(body []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return NotStackable
	}

	size := NotStackable
	doc.Find("table.infobox-rows tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if strings.TrimSpace(row.Find("th").First().Text()) != headerStackable {
			return true
		}
		value := row.Find("td").First()
		if value.Length() == 0 {
			return true
		}
		size = parseStackValue(value.Text())
		return false
	})
	return size
}

func parseStackValue(text string) int {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "Yes") {
		return NotStackable
	}
	match := stackCount.FindStringSubmatch(text)
	if match == nil {
		return StackableDefault
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return StackableDefault
	}
	return n
}
