// internal/discord/build.go
package discord

import (
	"fmt"
	"unicode/utf8"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/compose"
)

const (
	// EmbedColor is the sidebar color of embeds.
	EmbedColor = 0x2383E2
	// OpenButtonLabel labels the link button pointing at the page.
	OpenButtonLabel = "Open in Notion"

	ellipsis = "…"
	// blank stands in for empty field names, which Discord rejects.
	blank = "\u200b"
)

// Build lays out msg as a Discord message. Every text is cut to Discord's
// limits so the request is never rejected for length.
func Build(msg compose.Message, layout compose.Layout) *Message {
	out := &Message{AllowedMentions: &AllowedMentions{Parse: []string{}}}
	switch layout {
	case compose.LayoutEmbedFields:
		out.Embeds = []Embed{fieldsEmbed(msg)}
		out.Components = linkButton(msg.URL)
	case compose.LayoutEmbedDescription:
		out.Embeds = []Embed{{
			Title:       truncate(msg.Title, MaxEmbedTitleLength),
			URL:         msg.URL,
			Description: truncate(msg.Body(), MaxEmbedDescriptionLength),
			Color:       EmbedColor,
		}}
		out.Components = linkButton(msg.URL)
	default:
		out.Content = truncate(msg.Text(), MaxContentLength)
	}
	return out
}

func fieldsEmbed(msg compose.Message) Embed {
	e := Embed{
		Title: truncate(msg.Title, MaxEmbedTitleLength),
		URL:   msg.URL,
		Color: EmbedColor,
	}
	if len(msg.Fields) == 0 {
		e.Description = compose.NoProperties
		return e
	}

	total := utf8.RuneCountInString(e.Title)
	for i, f := range msg.Fields {
		remaining := len(msg.Fields) - i
		if len(e.Fields) == MaxEmbedFields-1 && remaining > 1 {
			e.Fields = appendOverflow(e.Fields, remaining, total)
			break
		}

		name := f.Name
		if name == "" {
			name = blank
		}
		field := EmbedField{
			Name:  truncate(name, MaxFieldNameLength),
			Value: truncate(f.Value, MaxFieldValueLength),
		}
		n := utf8.RuneCountInString(field.Name) + utf8.RuneCountInString(field.Value)
		if total+n > MaxEmbedTotalLength {
			e.Fields = appendOverflow(e.Fields, remaining, total)
			break
		}
		total += n
		e.Fields = append(e.Fields, field)
	}
	return e
}

// appendOverflow adds a closing field counting the properties left out,
// when it still fits in the embed.
func appendOverflow(fields []EmbedField, remaining, total int) []EmbedField {
	f := EmbedField{Name: ellipsis, Value: fmt.Sprintf("%d more properties", remaining)}
	if total+utf8.RuneCountInString(f.Name)+utf8.RuneCountInString(f.Value) > MaxEmbedTotalLength {
		return fields
	}
	return append(fields, f)
}

func linkButton(url string) []Component {
	if url == "" || len(url) > MaxButtonURLLength {
		return nil
	}
	return []Component{{
		Type: ComponentActionRow,
		Components: []Component{{
			Type:  ComponentButton,
			Style: ButtonStyleLink,
			Label: OpenButtonLabel,
			URL:   url,
		}},
	}}
}

// truncate cuts s to at most max characters, marking the cut with an
// ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + ellipsis
}
