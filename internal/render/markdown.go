// Package render turns server-rendered HTML fragments into terminal
// content: display fragments become styled markdown, form fragments become
// structured field specs the console can edit, and list fragments become
// rows.
package render

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/glamour"
)

// Markdown converts an HTML fragment to styled terminal output, wrapped to
// the given width. Script and style elements are stripped first.
func Markdown(html string, width int) (string, error) {
	clean, err := sanitize(html)
	if err != nil {
		return "", err
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(clean)
	if err != nil {
		return "", fmt.Errorf("convert fragment: %w", err)
	}

	if width < 20 {
		width = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("build renderer: %w", err)
	}

	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render fragment: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

// sanitize removes script and style elements from an HTML fragment.
func sanitize(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}

	doc.Find("script, style").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize fragment: %w", err)
	}
	return out, nil
}
