// internal/notion/richtext.go
package notion

import "encoding/json"

// Rich text run types.
const (
	RichTextTypeText     = "text"
	RichTextTypeMention  = "mention"
	RichTextTypeEquation = "equation"
)

// Mention types.
const (
	MentionTypeUser            = "user"
	MentionTypeDate            = "date"
	MentionTypePage            = "page"
	MentionTypeDatabase        = "database"
	MentionTypeLinkPreview     = "link_preview"
	MentionTypeTemplateMention = "template_mention"
)

// RichText is one run of a rich text sequence.
type RichText struct {
	Type      string       `json:"type"`
	PlainText string       `json:"plain_text"`
	Href      *string      `json:"href,omitempty"`
	Text      *TextContent `json:"text,omitempty"`
	Mention   *Mention     `json:"mention,omitempty"`
	Equation  *Equation    `json:"equation,omitempty"`

	// Raw is the run exactly as received.
	Raw json.RawMessage `json:"-"`
}

func (r *RichText) UnmarshalJSON(data []byte) error {
	type plain RichText
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = RichText(p)
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link"`
}

type Link struct {
	URL string `json:"url"`
}

type Equation struct {
	Expression string `json:"expression"`
}

// Mention is an inline reference inside rich text. Type selects which of the
// remaining fields is set.
type Mention struct {
	Type            string           `json:"type"`
	User            *User            `json:"user,omitempty"`
	Date            *DateRange       `json:"date,omitempty"`
	Page            *Reference       `json:"page,omitempty"`
	Database        *Reference       `json:"database,omitempty"`
	LinkPreview     *Link            `json:"link_preview,omitempty"`
	TemplateMention *TemplateMention `json:"template_mention,omitempty"`
}

type TemplateMention struct {
	Type                string  `json:"type"`
	TemplateMentionDate *string `json:"template_mention_date,omitempty"`
	TemplateMentionUser *string `json:"template_mention_user,omitempty"`
}

// PlainText concatenates the plain text of every run.
func PlainText(runs []RichText) string {
	var n int
	for _, r := range runs {
		n += len(r.PlainText)
	}
	b := make([]byte, 0, n)
	for _, r := range runs {
		b = append(b, r.PlainText...)
	}
	return string(b)
}
