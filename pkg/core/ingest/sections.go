package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"filing_insight/pkg/core/edgar"
)

// Section is one "Item" of a 10-K or 10-Q, e.g. Item 7 (MD&A) or Item 1A
// (Risk Factors).
type Section struct {
	Item  string `json:"item"`  // "1", "1A", "7", ...
	Title string `json:"title"` // heading text after the item number
	Text  string `json:"text"`
	Start int    `json:"start"` // byte offsets in the filing text
	End   int    `json:"end"`
}

// Matches headings such as:
//
//	"ITEM 7. MANAGEMENT'S DISCUSSION AND ANALYSIS"
//	"Item 1A - Risk Factors"
//	"Item 2: Properties"
var itemHeading = regexp.MustCompile(`(?im)^[ \t]*item[ \t]+(\d{1,2}[a-c]?)[ \t]*[.\-:\x{2013}\x{2014}][ \t]*(.*)$`)

var sectionItem = regexp.MustCompile(`^\d{1,2}[A-C]?$`)

// NormalizeItem upper-cases an item label and strips an "Item" prefix.
func NormalizeItem(item string) string {
	item = strings.ToUpper(strings.TrimSpace(item))
	item = strings.TrimSpace(strings.TrimPrefix(item, "ITEM"))
	return strings.TrimSuffix(item, ".")
}

// SplitSections cuts extracted filing text at its item headings. Each
// section runs to the next heading. The table of contents produces short
// duplicate sections; FindSection resolves those.
func SplitSections(text string) []Section {
	matches := itemHeading.FindAllStringSubmatchIndex(text, -1)
	sections := make([]Section, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, Section{
			Item:  NormalizeItem(text[m[2]:m[3]]),
			Title: strings.TrimSpace(text[m[4]:m[5]]),
			Text:  strings.TrimSpace(text[m[0]:end]),
			Start: m[0],
			End:   end,
		})
	}
	return sections
}

// FindSection returns the longest section labelled item. Table of contents
// entries and cross-references are shorter than the body they point to.
func FindSection(text, item string) (Section, error) {
	want := NormalizeItem(item)
	var best Section
	found := false
	for _, s := range SplitSections(text) {
		if s.Item == want && (!found || len(s.Text) > len(best.Text)) {
			best, found = s, true
		}
	}
	if !found {
		return Section{}, fmt.Errorf("item %s: %w", want, edgar.ErrNotFound)
	}
	return best, nil
}
