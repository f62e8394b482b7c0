package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ConfirmSpec is a confirmation prompt extracted from a fragment: a message
// plus a single destructive action the user must approve.
type ConfirmSpec struct {
	Title   string
	Message string
	Action  string
	Submit  string
}

// ParseConfirm extracts a confirmation fragment. The fragment carries its
// prose outside the form, so the heading and paragraphs are collected from
// the enclosing container and the form contributes only the action.
func ParseConfirm(html string) (*ConfirmSpec, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse confirm fragment: %w", err)
	}

	form := doc.Find("form").First()
	if form.Length() == 0 {
		return nil, fmt.Errorf("fragment contains no form")
	}

	spec := &ConfirmSpec{
		Action: form.AttrOr("action", ""),
		Title:  strings.TrimSpace(doc.Find("h2").First().Text()),
	}
	if spec.Title == "" {
		spec.Title = form.AttrOr("data-title", "")
	}

	var lines []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	spec.Message = strings.Join(lines, "\n")

	if submit := form.Find("button[type=submit]").First(); submit.Length() > 0 {
		spec.Submit = strings.TrimSpace(submit.Text())
	}

	return spec, nil
}
