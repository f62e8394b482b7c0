package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Field types recognized in form fragments.
const (
	FieldText     = "text"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldCheckbox = "checkbox"
	FieldSelect   = "select"
	FieldHidden   = "hidden"
)

// Option is one choice in a select field.
type Option struct {
	Value string
	Label string
}

// Field is a single editable input extracted from a form fragment.
type Field struct {
	Name    string
	Label   string
	Type    string
	Value   string
	Checked bool
	Options []Option
	Error   string
}

// FormSpec is the structured form extracted from a form fragment. The
// console turns it into an interactive form and submits it back to Action.
type FormSpec struct {
	Title  string
	Action string
	Method string
	Submit string
	Fields []Field
	Errors []string
}

// Field returns the named field, or nil.
func (f *FormSpec) Field(name string) *Field {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return &f.Fields[i]
		}
	}
	return nil
}

// ParseForm extracts the first form in an HTML fragment. Labels are matched
// by for= attribute, per-field errors by a p.error inside the same .field
// container, and form-level errors by li elements under .form-errors.
func ParseForm(html string) (*FormSpec, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse form fragment: %w", err)
	}

	form := doc.Find("form").First()
	if form.Length() == 0 {
		return nil, fmt.Errorf("fragment contains no form")
	}

	spec := &FormSpec{
		Action: form.AttrOr("action", ""),
		Method: strings.ToUpper(form.AttrOr("method", "GET")),
		Title:  form.AttrOr("data-title", ""),
	}

	form.Find(".form-errors li").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			spec.Errors = append(spec.Errors, text)
		}
	})

	form.Find("input[name], select[name]").Each(func(_ int, s *goquery.Selection) {
		name := s.AttrOr("name", "")
		field := Field{
			Name:  name,
			Label: fieldLabel(form, s, name),
			Error: fieldError(s),
		}

		if goquery.NodeName(s) == "select" {
			field.Type = FieldSelect
			s.Find("option").Each(func(_ int, opt *goquery.Selection) {
				value := opt.AttrOr("value", "")
				field.Options = append(field.Options, Option{
					Value: value,
					Label: strings.TrimSpace(opt.Text()),
				})
				if _, ok := opt.Attr("selected"); ok {
					field.Value = value
				}
			})
			if field.Value == "" && len(field.Options) > 0 {
				field.Value = field.Options[0].Value
			}
		} else {
			field.Type = s.AttrOr("type", FieldText)
			field.Value = s.AttrOr("value", "")
			if field.Type == FieldCheckbox {
				_, field.Checked = s.Attr("checked")
			}
		}

		spec.Fields = append(spec.Fields, field)
	})

	if submit := form.Find("button[type=submit]").First(); submit.Length() > 0 {
		spec.Submit = strings.TrimSpace(submit.Text())
	}

	return spec, nil
}

// HasErrors reports whether the form carries any validation errors.
func (f *FormSpec) HasErrors() bool {
	if len(f.Errors) > 0 {
		return true
	}
	for _, field := range f.Fields {
		if field.Error != "" {
			return true
		}
	}
	return false
}

// fieldLabel finds the label text for an input, preferring label[for=name].
func fieldLabel(form, input *goquery.Selection, name string) string {
	if label := form.Find("label[for=" + name + "]").First(); label.Length() > 0 {
		return strings.TrimSpace(label.Text())
	}
	if label := input.Closest(".field").Find("label").First(); label.Length() > 0 {
		return strings.TrimSpace(label.Text())
	}
	return name
}

// fieldError finds the error annotation inside the input's field container.
func fieldError(input *goquery.Selection) string {
	return strings.TrimSpace(input.Closest(".field").Find("p.error").First().Text())
}
