// Package format renders Notion property values as short display strings.
//
// Every value renders to a non-empty string. Missing payloads render as a
// bracketed placeholder such as "[No URL]" and unknown property types render
// as a diagnostic embedding the raw payload, so a caller never fails because
// of an unexpected property shape.
package format

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/notion"
)

// Placeholders for absent payloads.
const (
	EmptyTitle         = "[Empty Title]"
	EmptyText          = "[Empty Text]"
	NoURL              = "[No URL]"
	NoEmail            = "[No Email]"
	NoPhone            = "[No Phone]"
	NoSelection        = "[No Selection]"
	NoSelections       = "[No Selections]"
	NoDate             = "[No Date]"
	InvalidDate        = "[Invalid Date]"
	NoNumber           = "[No Number]"
	NoStatus           = "[No Status]"
	NoTime             = "[No Time]"
	NoUser             = "[No User]"
	NoPeople           = "[No People]"
	NoID               = "[No ID]"
	NoRelations        = "[No Relations]"
	NoFiles            = "[No Files]"
	NoFormulaString    = "[No Formula String]"
	NoFormulaNumber    = "[No Formula Number]"
	NoFormulaBoolean   = "[No Formula Boolean]"
	UnsupportedFormula = "[Unsupported Formula Type]"
	NoRollupNumber     = "[No Rollup Number]"
	EmptyRollupArray   = "[Empty Rollup Array]"
	UnsupportedRollup  = "[Unsupported Rollup Type]"
	RollupTooDeep      = "[Rollup Too Deep]"
	UnsupportedMention = "[Unsupported Mention Type]"

	Checked   = "✅"
	Unchecked = "❌"
)

// PageBaseURL prefixes page and database mention links.
const PageBaseURL = "https://www.notion.so/"

// Formatter renders property values. The zero value uses no depth limit and
// no diagnostic limit; use Default unless you need other bounds.
type Formatter struct {
	// MaxDepth bounds rollup array nesting. Zero means unlimited.
	MaxDepth int
	// MaxDiagnostic bounds the payload dump embedded in diagnostics, in
	// bytes. Zero means unlimited.
	MaxDiagnostic int
}

// Default is the Formatter used by the package-level functions.
var Default = Formatter{
	MaxDepth:      8,
	MaxDiagnostic: 1024,
}

// Property renders v with the Default formatter.
func Property(v notion.Value) string {
	return Default.Property(v)
}

// RichText renders a sequence of rich text runs with the Default formatter.
// It returns the empty string for an empty sequence.
func RichText(runs []notion.RichText) string {
	return Default.RichText(runs)
}

// Property renders v.
func (f Formatter) Property(v notion.Value) string {
	return f.property(v, 0)
}

func (f Formatter) property(v notion.Value, depth int) string {
	switch v := v.(type) {
	case notion.Title:
		return orDefault(f.RichText(v.Runs), EmptyTitle)
	case notion.Text:
		return orDefault(f.RichText(v.Runs), EmptyText)
	case notion.URL:
		return deref(v.URL, NoURL)
	case notion.Email:
		return deref(v.Email, NoEmail)
	case notion.PhoneNumber:
		return deref(v.PhoneNumber, NoPhone)
	case notion.Select:
		return optionName(v.Option, NoSelection)
	case notion.MultiSelect:
		names := make([]string, len(v.Options))
		for i, o := range v.Options {
			names[i] = o.Name
		}
		return orDefault(strings.Join(names, ", "), NoSelections)
	case notion.Date:
		return DateRange(v.Range)
	case notion.Checkbox:
		return check(v.Checked)
	case notion.Number:
		return number(v.Number, NoNumber)
	case notion.Status:
		return optionName(v.Option, NoStatus)
	case notion.CreatedTime:
		return deref(v.Time, NoTime)
	case notion.LastEditedTime:
		return deref(v.Time, NoTime)
	case notion.CreatedBy:
		return person(v.User)
	case notion.LastEditedBy:
		return person(v.User)
	case notion.People:
		names := make([]string, len(v.Users))
		for i := range v.Users {
			names[i] = Person(v.Users[i])
		}
		return orDefault(strings.Join(names, ", "), NoPeople)
	case notion.UniqueID:
		return uniqueID(v.ID)
	case notion.Relation:
		ids := make([]string, len(v.Refs))
		for i, r := range v.Refs {
			ids[i] = r.ID
		}
		return orDefault(strings.Join(ids, ", "), NoRelations)
	case notion.Formula:
		return formula(v.Result)
	case notion.Files:
		files := make([]string, len(v.Files))
		for i, file := range v.Files {
			files[i] = fileLink(file)
		}
		return orDefault(strings.Join(files, ", "), NoFiles)
	case notion.Rollup:
		return f.rollup(v.Result, depth)
	case notion.Unsupported:
		if v.Tag == "" {
			return "[Unsupported Type: " + f.dump(v.Raw) + "]"
		}
		return "[Unsupported Type: " + v.Tag + ": " + f.dump(v.Raw) + "]"
	case nil:
		return "[Unsupported Type: null]"
	default:
		return "[Unsupported Type: " + v.Type() + "]"
	}
}

// RichText concatenates the rendered runs without a separator.
func (f Formatter) RichText(runs []notion.RichText) string {
	var b strings.Builder
	for i := range runs {
		b.WriteString(f.run(&runs[i]))
	}
	return b.String()
}

func (f Formatter) run(r *notion.RichText) string {
	switch r.Type {
	case notion.RichTextTypeText:
		if r.Text == nil {
			return r.PlainText
		}
		if r.Text.Link != nil {
			return markdownLink(r.Text.Content, r.Text.Link.URL)
		}
		return r.Text.Content
	case notion.RichTextTypeMention:
		return mention(r)
	case notion.RichTextTypeEquation:
		return r.PlainText
	default:
		return "[Unsupported Rich Text Type: " + f.dump(r.Raw) + "]"
	}
}

func mention(r *notion.RichText) string {
	m := r.Mention
	if m == nil {
		return UnsupportedMention
	}
	switch m.Type {
	case notion.MentionTypeUser:
		return person(m.User)
	case notion.MentionTypeDate:
		return DateRange(m.Date)
	case notion.MentionTypeLinkPreview:
		if m.LinkPreview == nil {
			return r.PlainText
		}
		return markdownLink(r.PlainText, m.LinkPreview.URL)
	case notion.MentionTypeTemplateMention:
		return r.PlainText
	case notion.MentionTypePage:
		if m.Page == nil {
			return r.PlainText
		}
		return markdownLink(r.PlainText, PageURL(m.Page.ID))
	case notion.MentionTypeDatabase:
		if m.Database == nil {
			return r.PlainText
		}
		return markdownLink(r.PlainText, PageURL(m.Database.ID))
	default:
		return UnsupportedMention
	}
}

// Person renders a user by display name, falling back to the id.
func Person(u notion.User) string {
	if u.Kind == notion.FullUser && u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	if u.ID == "" {
		return NoUser
	}
	return u.ID
}

func person(u *notion.User) string {
	if u == nil {
		return NoUser
	}
	return Person(*u)
}

// DateRange renders "start - end", or just start when there is no end.
// A range without a start renders as InvalidDate.
func DateRange(d *notion.DateRange) string {
	if d == nil {
		return NoDate
	}
	if d.Start == "" {
		return InvalidDate
	}
	if d.End != nil && *d.End != "" {
		return d.Start + " - " + *d.End
	}
	return d.Start
}

// PageURL builds the canonical notion.so link for a page or database id.
func PageURL(id string) string {
	return PageBaseURL + strings.ReplaceAll(id, "-", "")
}

func formula(r notion.FormulaResult) string {
	switch r.Type {
	case "string":
		return deref(r.String, NoFormulaString)
	case "number":
		return number(r.Number, NoFormulaNumber)
	case "boolean":
		if r.Boolean == nil {
			return NoFormulaBoolean
		}
		return check(*r.Boolean)
	case "date":
		return DateRange(r.Date)
	default:
		return UnsupportedFormula
	}
}

func (f Formatter) rollup(r notion.RollupResult, depth int) string {
	switch r.Type {
	case "number":
		return number(r.Number, NoRollupNumber)
	case "date":
		return DateRange(r.Date)
	case "array":
		if len(r.Array) == 0 {
			return EmptyRollupArray
		}
		if f.MaxDepth > 0 && depth >= f.MaxDepth {
			return RollupTooDeep
		}
		parts := make([]string, len(r.Array))
		for i, elem := range r.Array {
			parts[i] = f.property(elem, depth+1)
		}
		return strings.Join(parts, ", ")
	default:
		return UnsupportedRollup
	}
}

func uniqueID(id notion.UniqueIDParts) string {
	if id.Number == nil {
		return NoID
	}
	n := Number(*id.Number)
	if id.Prefix == nil || *id.Prefix == "" {
		return n
	}
	return *id.Prefix + "-" + n
}

func fileLink(file notion.File) string {
	switch {
	case file.Type == "file" && file.File != nil:
		return markdownLink(file.Name, file.File.URL)
	case file.Type == "external" && file.External != nil:
		return markdownLink(file.Name, file.External.URL)
	case file.Name != "":
		return file.Name
	default:
		return NoFiles
	}
}

// Number renders n in its shortest round-tripping decimal form: 5, 1.5,
// 0.001, 1e+21.
func Number(n float64) string {
	if n == 0 {
		return "0"
	}
	abs := n
	if abs < 0 {
		abs = -abs
	}
	if abs < 1e-6 || abs >= 1e21 {
		s := strconv.FormatFloat(n, 'g', -1, 64)
		// 1e-07 -> 1e-7
		if i := strings.IndexByte(s, 'e'); i >= 0 && i+2 < len(s) {
			mant, sign, exp := s[:i], s[i+1], strings.TrimLeft(s[i+2:], "0")
			s = mant + "e" + string(sign) + exp
		}
		return s
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func number(n *float64, fallback string) string {
	if n == nil {
		return fallback
	}
	return Number(*n)
}

func optionName(o *notion.Option, fallback string) string {
	if o == nil || o.Name == "" {
		return fallback
	}
	return o.Name
}

func check(b bool) string {
	if b {
		return Checked
	}
	return Unchecked
}

func markdownLink(text, url string) string {
	return "[" + text + "](" + url + ")"
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// dump renders a raw payload as indented JSON, cut to MaxDiagnostic bytes.
func (f Formatter) dump(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	out := buf.String()
	if f.MaxDiagnostic > 0 && len(out) > f.MaxDiagnostic {
		cut := f.MaxDiagnostic
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut] + "…"
	}
	return out
}
