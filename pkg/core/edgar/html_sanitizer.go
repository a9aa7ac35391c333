package edgar

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
)

// TextFormat selects how a filing document is rendered for downstream use.
type TextFormat string

const (
	FormatText     TextFormat = "text"
	FormatMarkdown TextFormat = "markdown"
)

// ParseTextFormat accepts "text", "markdown" or "" (text).
func ParseTextFormat(s string) (TextFormat, error) {
	switch TextFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown text format %q", s)
	}
}

var (
	// "Page 3", "- 3 -", "F-3". A bare "3" only counts next to a page break.
	pageFooterPattern = regexp.MustCompile(`(?i)^page\s*\d+$|^-\s*\d+\s*-$|^[A-Z]-\d+$`)
	bareNumberPattern = regexp.MustCompile(`^\d{1,3}$`)
	whitespaceRun     = regexp.MustCompile(`\s+`)

	// Elements that end a line when rendered as text.
	blockSelectors = "p, div, tr, li, h1, h2, h3, h4, h5, h6, table, section, article, blockquote, pre, title"
)

// Extract renders a filing document in the requested format.
func Extract(raw string, format TextFormat) (string, error) {
	if format == FormatMarkdown {
		return ExtractMarkdown(raw)
	}
	return ExtractText(raw)
}

// ExtractText renders filing HTML as plain text. Block elements end a line,
// table cells of a row share one. Each line is trimmed and its inner runs of
// whitespace fold to one space; blank lines are kept as they are.
func ExtractText(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	RemoveNoise(doc)
	collapseSourceWhitespace(doc)

	doc.Find("br").Each(func(i int, sel *goquery.Selection) {
		sel.ReplaceWithHtml("\n")
	})
	doc.Find("td, th").Each(func(i int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	doc.Find(blockSelectors).Each(func(i int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return normalizeLines(root.Text()), nil
}

// ExtractMarkdown renders filing HTML as Markdown, keeping headings and tables.
func ExtractMarkdown(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	RemoveNoise(doc)

	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body, _ = doc.Html()
	}

	converter := md.NewConverter(ArchivesBaseURL, true, nil)
	converted, err := converter.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("markdown conversion failed: %w", err)
	}
	return normalizeLines(converted), nil
}

// RemoveNoise strips elements that carry no readable content in EDGAR
// filings: scripts, hidden inline-XBRL headers, spacer images and page numbers.
func RemoveNoise(doc *goquery.Document) {
	doc.Find("script, style, noscript, head").Remove()
	doc.Find("ix\\:header").Remove()
	doc.Find("[hidden], [style*='display:none'], [style*='display: none']").Remove()

	doc.Find("img").Each(func(i int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		width, _ := sel.Attr("width")
		height, _ := sel.Attr("height")
		if src == "" || strings.Contains(src, "spacer") || strings.Contains(src, "blank") ||
			width == "1" || height == "1" {
			sel.Remove()
		}
	})

	doc.Find("p, div").Each(func(i int, sel *goquery.Selection) {
		if isPageFooter(sel) {
			sel.Remove()
		}
	})

	// Inline XBRL wrappers: keep the value, drop the tag.
	doc.Find("ix\\:nonFraction, ix\\:nonNumeric, ix\\:fraction").Each(func(i int, sel *goquery.Selection) {
		sel.ReplaceWithHtml(html.EscapeString(sel.Text()))
	})
}

// collapseSourceWhitespace folds the line wrapping of the HTML source into
// single spaces, so only element boundaries produce line breaks. <pre> is kept.
func collapseSourceWhitespace(doc *goquery.Document) {
	doc.Find("*").Not("pre").Contents().Each(func(i int, sel *goquery.Selection) {
		node := sel.Get(0)
		if node.Type != nethtml.TextNode {
			return
		}
		node.Data = whitespaceRun.ReplaceAllString(node.Data, " ")
	})
}

// isPageFooter reports whether a block holds nothing but a page number.
// Table cells are figures, never footers.
func isPageFooter(sel *goquery.Selection) bool {
	if sel.Children().Not("span, font, b").Length() > 0 || sel.Closest("table").Length() > 0 {
		return false
	}
	text := strings.TrimSpace(sel.Text())
	if pageFooterPattern.MatchString(text) {
		return true
	}
	return bareNumberPattern.MatchString(text) &&
		(isPageBreak(sel.Next()) || isPageBreak(sel.Prev()) || isPageBreak(sel))
}

func isPageBreak(sel *goquery.Selection) bool {
	if sel.Length() == 0 {
		return false
	}
	if goquery.NodeName(sel) == "hr" {
		return true
	}
	style, _ := sel.Attr("style")
	style = strings.ToLower(style)
	return strings.Contains(style, "page-break") || strings.Contains(style, "break-before:page") ||
		strings.Contains(style, "break-after:page")
}

// normalizeLines trims every line and folds the whitespace inside it. Blank
// lines stay, except at the start and end of the text.
func normalizeLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
