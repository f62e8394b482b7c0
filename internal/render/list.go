package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UserRow is one entry extracted from the user list fragment.
type UserRow struct {
	ID       string
	Username string
	FullName string
	Email    string
	Role     string
	Active   bool
}

// SearchText returns the haystack used for client-side fuzzy filtering.
func (r UserRow) SearchText() string {
	return r.Username + " " + r.FullName + " " + r.Email
}

// ParseUserList extracts rows from a user list fragment. Rows are tr
// elements carrying a data-id attribute; cells are matched by class.
func ParseUserList(html string) ([]UserRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse list fragment: %w", err)
	}

	var rows []UserRow
	doc.Find("tr[data-id]").Each(func(_ int, tr *goquery.Selection) {
		rows = append(rows, UserRow{
			ID:       tr.AttrOr("data-id", ""),
			Username: cellText(tr, "username"),
			FullName: cellText(tr, "full-name"),
			Email:    cellText(tr, "email"),
			Role:     cellText(tr, "role"),
			Active:   tr.AttrOr("data-active", "") == "true",
		})
	})
	return rows, nil
}

func cellText(tr *goquery.Selection, class string) string {
	return strings.TrimSpace(tr.Find("td."+class).First().Text())
}
