// Package htmlmd implements the HTML→Markdown Extractor (C5): strips
// boilerplate subtrees from a scraped page's HTML, converts what remains to
// Markdown, and normalizes the result. Grounded on
// intelligencedev-manifold's internal/tools/web/fetch.go conversion pass
// (golang.org/x/net/html parse, then
// github.com/JohannesKaufmann/html-to-markdown/v2), simplified to drop the
// readability-library dependency that example also used (no pack repo
// other than manifold vendors it, and the spec's extractor only needs
// boilerplate removal, not full article extraction).
package htmlmd

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"golang.org/x/net/html"
)

// boilerplateTags are the subtrees removed before conversion: every
// <header> and <footer> subtree.
var boilerplateTags = map[string]bool{
	"header": true, "footer": true,
}

var spanTagPattern = regexp.MustCompile(`</?span[^>]*>`)

// Extract converts raw page HTML into normalized Markdown, per C5.
func Extract(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("htmlmd: parse html: %w", err)
	}
	stripBoilerplate(doc)

	var buf strings.Builder
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("htmlmd: render stripped html: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(buf.String(), converter.WithDomain(""))
	if err != nil {
		return "", fmt.Errorf("htmlmd: convert html to markdown: %w", err)
	}

	return normalize(md), nil
}

// stripBoilerplate removes every boilerplateTags subtree from doc in place.
func stripBoilerplate(n *html.Node) {
	var toRemove []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && boilerplateTags[n.Data] {
			toRemove = append(toRemove, n)
			return // do not descend into a subtree already marked for removal
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	for _, node := range toRemove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

// normalize runs the post-processing pass: strips leftover <span ...>
// open/close tags, drops lines that are empty after trimming, and rejoins
// the remaining lines with newlines.
func normalize(md string) string {
	md = spanTagPattern.ReplaceAllString(md, "")
	lines := strings.Split(md, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
