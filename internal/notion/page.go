// internal/notion/page.go
package notion

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Page is a Notion page object as delivered by automations and the API.
type Page struct {
	Object         string     `json:"object"`
	ID             string     `json:"id"`
	URL            string     `json:"url"`
	PublicURL      *string    `json:"public_url,omitempty"`
	CreatedTime    string     `json:"created_time,omitempty"`
	LastEditedTime string     `json:"last_edited_time,omitempty"`
	Archived       bool       `json:"archived,omitempty"`
	Parent         *Parent    `json:"parent,omitempty"`
	Properties     Properties `json:"properties"`
}

// Parent is where a page lives: a database, another page or the workspace.
type Parent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

// InDatabase reports whether the page is a row of the given database. Ids
// compare without hyphens, as Notion accepts both forms.
func (p *Page) InDatabase(databaseID string) bool {
	if p.Parent == nil || p.Parent.DatabaseID == "" {
		return false
	}
	return strings.EqualFold(compactID(p.Parent.DatabaseID), compactID(databaseID))
}

func compactID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// WebhookBody is the payload a Notion automation posts to a webhook action.
type WebhookBody struct {
	Source json.RawMessage `json:"source,omitempty"`
	Data   *Page           `json:"data"`
}

// Property is one named entry of a page's property map.
type Property struct {
	ID    string
	Value Value
}

// UnmarshalJSON decodes the property. A payload whose shape does not match
// its type tag is kept as Unsupported so that one odd property never rejects
// the whole page.
func (p *Property) UnmarshalJSON(data []byte) error {
	var head struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		slog.Debug("property kept as unsupported", "error", err)
		*p = Property{Value: Unsupported{Raw: append(json.RawMessage(nil), data...)}}
		return nil
	}
	v, err := DecodeValue(data)
	if err != nil {
		slog.Debug("property kept as unsupported", "type", head.Type, "error", err)
		v = Unsupported{Tag: head.Type, Raw: append(json.RawMessage(nil), data...)}
	}
	*p = Property{ID: head.ID, Value: v}
	return nil
}

// Properties is a page's property map. Iteration follows the order in which
// the keys appeared in the source JSON object.
type Properties struct {
	m *orderedmap.OrderedMap[string, Property]
}

// NewProperties returns an empty property map.
func NewProperties() Properties {
	return Properties{m: orderedmap.New[string, Property]()}
}

// Set appends the named value, or replaces it in place if already present.
func (p *Properties) Set(name string, v Value) {
	if p.m == nil {
		p.m = orderedmap.New[string, Property]()
	}
	p.m.Set(name, Property{Value: v})
}

// Get returns the named value.
func (p Properties) Get(name string) (Value, bool) {
	if p.m == nil {
		return nil, false
	}
	prop, ok := p.m.Get(name)
	if !ok {
		return nil, false
	}
	return prop.Value, true
}

// Len returns the number of properties.
func (p Properties) Len() int {
	if p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Each calls fn for every property in source order until fn returns false.
func (p Properties) Each(fn func(name string, v Value) bool) {
	if p.m == nil {
		return
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value.Value) {
			return
		}
	}
}

// Names returns the property names in source order.
func (p Properties) Names() []string {
	names := make([]string, 0, p.Len())
	p.Each(func(name string, _ Value) bool {
		names = append(names, name)
		return true
	})
	return names
}

func (p *Properties) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, Property]()
	if !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		if err := m.UnmarshalJSON(data); err != nil {
			return err
		}
	}
	p.m = m
	return nil
}
