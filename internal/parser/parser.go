package parser

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// Title returns the combined text of the <title> elements, untrimmed.
func (d *Document) Title() string {
	return d.doc.Find("title").Text()
}

// FirstText returns the text content of the first element matching selector.
func (d *Document) FirstText(selector string) string {
	return d.doc.Find(selector).First().Text()
}

// Attr returns attribute attr of the first element matching selector.
// The boolean is false when no element matches or the attribute is absent.
func (d *Document) Attr(selector, attr string) (string, bool) {
	return d.doc.Find(selector).First().Attr(attr)
}

// Count returns the number of elements matching selector.
func (d *Document) Count(selector string) int {
	return d.doc.Find(selector).Length()
}
