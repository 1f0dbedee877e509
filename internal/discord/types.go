// internal/discord/types.go
package discord

// Limits enforced by the Discord API on message create.
const (
	MaxContentLength          = 2000
	MaxEmbedTitleLength       = 256
	MaxEmbedDescriptionLength = 4096
	MaxEmbedFields            = 25
	MaxFieldNameLength        = 256
	MaxFieldValueLength       = 1024
	MaxEmbedTotalLength       = 6000
	MaxButtonLabelLength      = 80
	MaxButtonURLLength        = 512
)

// Component types and button styles.
const (
	ComponentActionRow = 1
	ComponentButton    = 2
	ButtonStyleLink    = 5
)

// Message is the body of a create-message request.
type Message struct {
	Content         string           `json:"content,omitempty"`
	Embeds          []Embed          `json:"embeds,omitempty"`
	Components      []Component      `json:"components,omitempty"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// Component is an action row or a button. Action rows hold buttons in
// Components; link buttons carry Label and URL.
type Component struct {
	Type       int         `json:"type"`
	Style      int         `json:"style,omitempty"`
	Label      string      `json:"label,omitempty"`
	URL        string      `json:"url,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// AllowedMentions controls which mentions in the content ping anyone.
type AllowedMentions struct {
	Parse []string `json:"parse"`
}

// SentMessage is the subset of the created message we care about.
type SentMessage struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}
