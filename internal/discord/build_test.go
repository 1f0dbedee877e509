package discord

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/compose"
)

var sample = compose.Message{
	Title: "Task updated",
	URL:   "https://www.notion.so/p1",
	Fields: []compose.Field{
		{Name: "Name", Value: "Ship it"},
		{Name: "Done", Value: "✅"},
	},
}

func TestBuildText(t *testing.T) {
	msg := Build(sample, compose.LayoutText)
	want := "Task updated\nName: Ship it\nDone: ✅\nhttps://www.notion.so/p1"
	if msg.Content != want {
		t.Errorf("Content = %q, want %q", msg.Content, want)
	}
	if len(msg.Embeds) != 0 || len(msg.Components) != 0 {
		t.Errorf("text layout should not carry embeds or components: %+v", msg)
	}
	if msg.AllowedMentions == nil || len(msg.AllowedMentions.Parse) != 0 {
		t.Errorf("mentions should be suppressed, got %+v", msg.AllowedMentions)
	}
}

func TestBuildTextTruncated(t *testing.T) {
	long := compose.Message{Fields: []compose.Field{{Name: "Body", Value: strings.Repeat("é", 3000)}}}
	msg := Build(long, compose.LayoutText)
	if n := utf8.RuneCountInString(msg.Content); n != MaxContentLength {
		t.Errorf("content has %d characters, want %d", n, MaxContentLength)
	}
	if !strings.HasSuffix(msg.Content, "…") {
		t.Error("truncated content should end with an ellipsis")
	}
}

func TestBuildEmbedFields(t *testing.T) {
	msg := Build(sample, compose.LayoutEmbedFields)
	want := &Message{
		AllowedMentions: &AllowedMentions{Parse: []string{}},
		Embeds: []Embed{{
			Title: "Task updated",
			URL:   "https://www.notion.so/p1",
			Color: EmbedColor,
			Fields: []EmbedField{
				{Name: "Name", Value: "Ship it"},
				{Name: "Done", Value: "✅"},
			},
		}},
		Components: []Component{{
			Type: ComponentActionRow,
			Components: []Component{{
				Type:  ComponentButton,
				Style: ButtonStyleLink,
				Label: OpenButtonLabel,
				URL:   "https://www.notion.so/p1",
			}},
		}},
	}
	if diff := cmp.Diff(want, msg); diff != "" {
		t.Errorf("Build mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildEmbedFieldsOverflow(t *testing.T) {
	var m compose.Message
	for i := 0; i < 30; i++ {
		m.Fields = append(m.Fields, compose.Field{Name: fmt.Sprintf("P%d", i), Value: "v"})
	}
	e := Build(m, compose.LayoutEmbedFields).Embeds[0]
	if len(e.Fields) != MaxEmbedFields {
		t.Fatalf("expected %d fields, got %d", MaxEmbedFields, len(e.Fields))
	}
	last := e.Fields[len(e.Fields)-1]
	if last.Value != "6 more properties" {
		t.Errorf("expected overflow field, got %+v", last)
	}
}

func TestBuildEmbedFieldsExactlyMax(t *testing.T) {
	var m compose.Message
	for i := 0; i < MaxEmbedFields; i++ {
		m.Fields = append(m.Fields, compose.Field{Name: fmt.Sprintf("P%d", i), Value: "v"})
	}
	e := Build(m, compose.LayoutEmbedFields).Embeds[0]
	if len(e.Fields) != MaxEmbedFields {
		t.Fatalf("expected %d fields, got %d", MaxEmbedFields, len(e.Fields))
	}
	if e.Fields[MaxEmbedFields-1].Name != "P24" {
		t.Errorf("last field should be P24, got %+v", e.Fields[MaxEmbedFields-1])
	}
}

func TestBuildEmbedFieldsTotalBudget(t *testing.T) {
	var m compose.Message
	for i := 0; i < 10; i++ {
		m.Fields = append(m.Fields, compose.Field{Name: fmt.Sprintf("P%d", i), Value: strings.Repeat("x", 2000)})
	}
	e := Build(m, compose.LayoutEmbedFields).Embeds[0]

	total := utf8.RuneCountInString(e.Title)
	for _, f := range e.Fields {
		if utf8.RuneCountInString(f.Value) > MaxFieldValueLength {
			t.Errorf("field %s exceeds the value limit", f.Name)
		}
		total += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	if total > MaxEmbedTotalLength {
		t.Errorf("embed has %d characters, limit is %d", total, MaxEmbedTotalLength)
	}
	if last := e.Fields[len(e.Fields)-1]; !strings.HasSuffix(last.Value, "more properties") {
		t.Errorf("expected overflow field at the end, got %+v", last)
	}
}

func TestBuildEmbedFieldsEmpty(t *testing.T) {
	e := Build(compose.Message{Title: "t"}, compose.LayoutEmbedFields).Embeds[0]
	if e.Description != compose.NoProperties {
		t.Errorf("Description = %q, want %q", e.Description, compose.NoProperties)
	}
}

func TestBuildEmbedFieldsBlankName(t *testing.T) {
	e := Build(compose.Message{Fields: []compose.Field{{Name: "", Value: "v"}}}, compose.LayoutEmbedFields).Embeds[0]
	if e.Fields[0].Name != blank {
		t.Errorf("empty name should be replaced, got %q", e.Fields[0].Name)
	}
}

func TestBuildEmbedDescription(t *testing.T) {
	msg := Build(sample, compose.LayoutEmbedDescription)
	if len(msg.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(msg.Embeds))
	}
	e := msg.Embeds[0]
	if e.Description != "Name: Ship it\nDone: ✅" {
		t.Errorf("Description = %q", e.Description)
	}
	if e.Title != "Task updated" || e.URL != "https://www.notion.so/p1" {
		t.Errorf("unexpected embed header %+v", e)
	}
	if len(msg.Components) != 1 {
		t.Errorf("expected a link button row, got %+v", msg.Components)
	}
}

func TestBuildNoURLNoButton(t *testing.T) {
	msg := Build(compose.Message{Fields: sample.Fields}, compose.LayoutEmbedDescription)
	if msg.Components != nil {
		t.Errorf("expected no components without a URL, got %+v", msg.Components)
	}
}
