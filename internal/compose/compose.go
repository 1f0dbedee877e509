// Package compose turns a Notion page into a chat message: one line per
// property, in the order the properties appear in the page.
package compose

import (
	"fmt"
	"strings"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/format"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/notion"
)

// NoProperties replaces the body of a message for a page without properties.
const NoProperties = "[No properties to display]"

// Field is one formatted property.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message is a platform-neutral summary of a page.
type Message struct {
	Title  string  `json:"title,omitempty"`
	Fields []Field `json:"fields"`
	URL    string  `json:"url,omitempty"`
}

// Record formats every property of page with the default formatter. Title
// is passed through verbatim.
func Record(page *notion.Page, title string) Message {
	return RecordWith(format.Default, page, title)
}

// RecordWith is Record with an explicit formatter.
func RecordWith(f format.Formatter, page *notion.Page, title string) Message {
	msg := Message{Title: title}
	if page == nil {
		return msg
	}
	msg.URL = page.URL
	msg.Fields = make([]Field, 0, page.Properties.Len())
	page.Properties.Each(func(name string, v notion.Value) bool {
		msg.Fields = append(msg.Fields, Field{Name: name, Value: f.Property(v)})
		return true
	})
	return msg
}

// Body renders the fields as "name: value" lines, or NoProperties.
func (m Message) Body() string {
	if len(m.Fields) == 0 {
		return NoProperties
	}
	lines := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		lines[i] = f.Name + ": " + f.Value
	}
	return strings.Join(lines, "\n")
}

// Text renders the flat text layout: the title, the body and the page URL,
// skipping the title and URL when empty.
func (m Message) Text() string {
	parts := make([]string, 0, 3)
	if m.Title != "" {
		parts = append(parts, m.Title)
	}
	parts = append(parts, m.Body())
	if m.URL != "" {
		parts = append(parts, m.URL)
	}
	return strings.Join(parts, "\n")
}

// Layout selects how a Message is laid out on a chat platform that
// supports rich embeds.
type Layout string

const (
	// LayoutText sends Text() as the message content.
	LayoutText Layout = "text"
	// LayoutEmbedFields sends an embed with one field per property.
	LayoutEmbedFields Layout = "embed_fields"
	// LayoutEmbedDescription sends an embed whose description is Body().
	LayoutEmbedDescription Layout = "embed_description"
)

// Layouts lists the supported layouts.
var Layouts = []Layout{LayoutText, LayoutEmbedFields, LayoutEmbedDescription}

// ParseLayout validates a layout name. The empty string selects LayoutText.
func ParseLayout(s string) (Layout, error) {
	if s == "" {
		return LayoutText, nil
	}
	for _, l := range Layouts {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown layout %q (want one of text, embed_fields, embed_description)", s)
}
