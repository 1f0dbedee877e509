// internal/notion/value.go
package notion

import (
	"encoding/json"
	"fmt"
)

// Property type tags as they appear in the "type" field of a page property.
const (
	TypeTitle          = "title"
	TypeRichText       = "rich_text"
	TypeURL            = "url"
	TypeEmail          = "email"
	TypePhoneNumber    = "phone_number"
	TypeSelect         = "select"
	TypeMultiSelect    = "multi_select"
	TypeDate           = "date"
	TypeCheckbox       = "checkbox"
	TypeNumber         = "number"
	TypeStatus         = "status"
	TypeCreatedTime    = "created_time"
	TypeLastEditedTime = "last_edited_time"
	TypeCreatedBy      = "created_by"
	TypeLastEditedBy   = "last_edited_by"
	TypePeople         = "people"
	TypeUniqueID       = "unique_id"
	TypeRelation       = "relation"
	TypeFormula        = "formula"
	TypeFiles          = "files"
	TypeRollup         = "rollup"
)

// Value is the typed payload of a page property. The set of implementations
// is closed: every concrete type lives in this package.
type Value interface {
	// Type returns the property type tag.
	Type() string
	isValue()
}

type Title struct {
	Runs []RichText `json:"title"`
}

type Text struct {
	Runs []RichText `json:"rich_text"`
}

type URL struct {
	URL *string `json:"url"`
}

type Email struct {
	Email *string `json:"email"`
}

type PhoneNumber struct {
	PhoneNumber *string `json:"phone_number"`
}

// Option is a select, multi-select or status choice.
type Option struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type Select struct {
	Option *Option `json:"select"`
}

type MultiSelect struct {
	Options []Option `json:"multi_select"`
}

// DateRange is a start date with an optional end. Start is empty when the
// payload omitted it.
type DateRange struct {
	Start    string  `json:"start"`
	End      *string `json:"end"`
	TimeZone *string `json:"time_zone,omitempty"`
}

type Date struct {
	Range *DateRange `json:"date"`
}

type Checkbox struct {
	Checked bool `json:"checkbox"`
}

type Number struct {
	Number *float64 `json:"number"`
}

type Status struct {
	Option *Option `json:"status"`
}

type CreatedTime struct {
	Time *string `json:"created_time"`
}

type LastEditedTime struct {
	Time *string `json:"last_edited_time"`
}

type CreatedBy struct {
	User *User `json:"created_by"`
}

type LastEditedBy struct {
	User *User `json:"last_edited_by"`
}

type People struct {
	Users []User `json:"people"`
}

// UniqueIDParts is the auto-incrementing identifier of a database row.
type UniqueIDParts struct {
	Number *float64 `json:"number"`
	Prefix *string  `json:"prefix"`
}

type UniqueID struct {
	ID UniqueIDParts `json:"unique_id"`
}

// Reference points at another page or database by id.
type Reference struct {
	ID string `json:"id"`
}

type Relation struct {
	Refs    []Reference `json:"relation"`
	HasMore bool        `json:"has_more,omitempty"`
}

// FormulaResult holds the computed value of a formula property. Type selects
// which of the remaining fields is meaningful.
type FormulaResult struct {
	Type    string     `json:"type"`
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateRange `json:"date,omitempty"`
}

type Formula struct {
	Result FormulaResult `json:"formula"`
}

// HostedFile is the location of a file uploaded to or linked from Notion.
type HostedFile struct {
	URL        string  `json:"url"`
	ExpiryTime *string `json:"expiry_time,omitempty"`
}

// File is one entry of a files property. Type is "file" for Notion-hosted
// uploads and "external" for links.
type File struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	File     *HostedFile `json:"file,omitempty"`
	External *HostedFile `json:"external,omitempty"`
}

type Files struct {
	Files []File `json:"files"`
}

// RollupResult holds the aggregated value of a rollup property. For the
// "array" type, Array holds the rolled-up property values themselves.
type RollupResult struct {
	Type     string     `json:"type"`
	Function string     `json:"function,omitempty"`
	Number   *float64   `json:"number,omitempty"`
	Date     *DateRange `json:"date,omitempty"`
	Array    []Value    `json:"-"`
}

func (r *RollupResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     string            `json:"type"`
		Function string            `json:"function"`
		Number   *float64          `json:"number"`
		Date     *DateRange        `json:"date"`
		Array    []json.RawMessage `json:"array"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = RollupResult{
		Type:     raw.Type,
		Function: raw.Function,
		Number:   raw.Number,
		Date:     raw.Date,
	}
	if raw.Array != nil {
		r.Array = make([]Value, 0, len(raw.Array))
		for i, elem := range raw.Array {
			v, err := DecodeValue(elem)
			if err != nil {
				return fmt.Errorf("rollup array element %d: %w", i, err)
			}
			r.Array = append(r.Array, v)
		}
	}
	return nil
}

type Rollup struct {
	Result RollupResult `json:"rollup"`
}

// Unsupported carries a property whose type tag this package does not know.
type Unsupported struct {
	Tag string
	Raw json.RawMessage
}

func (Title) Type() string          { return TypeTitle }
func (Text) Type() string           { return TypeRichText }
func (URL) Type() string            { return TypeURL }
func (Email) Type() string          { return TypeEmail }
func (PhoneNumber) Type() string    { return TypePhoneNumber }
func (Select) Type() string         { return TypeSelect }
func (MultiSelect) Type() string    { return TypeMultiSelect }
func (Date) Type() string           { return TypeDate }
func (Checkbox) Type() string       { return TypeCheckbox }
func (Number) Type() string         { return TypeNumber }
func (Status) Type() string         { return TypeStatus }
func (CreatedTime) Type() string    { return TypeCreatedTime }
func (LastEditedTime) Type() string { return TypeLastEditedTime }
func (CreatedBy) Type() string      { return TypeCreatedBy }
func (LastEditedBy) Type() string   { return TypeLastEditedBy }
func (People) Type() string         { return TypePeople }
func (UniqueID) Type() string       { return TypeUniqueID }
func (Relation) Type() string       { return TypeRelation }
func (Formula) Type() string        { return TypeFormula }
func (Files) Type() string          { return TypeFiles }
func (Rollup) Type() string         { return TypeRollup }
func (u Unsupported) Type() string  { return u.Tag }

func (Title) isValue()          {}
func (Text) isValue()           {}
func (URL) isValue()            {}
func (Email) isValue()          {}
func (PhoneNumber) isValue()    {}
func (Select) isValue()         {}
func (MultiSelect) isValue()    {}
func (Date) isValue()           {}
func (Checkbox) isValue()       {}
func (Number) isValue()         {}
func (Status) isValue()         {}
func (CreatedTime) isValue()    {}
func (LastEditedTime) isValue() {}
func (CreatedBy) isValue()      {}
func (LastEditedBy) isValue()   {}
func (People) isValue()         {}
func (UniqueID) isValue()       {}
func (Relation) isValue()       {}
func (Formula) isValue()        {}
func (Files) isValue()          {}
func (Rollup) isValue()         {}
func (Unsupported) isValue()    {}

// DecodeValue decodes a single property object, dispatching on its "type"
// field. Unknown tags decode to Unsupported rather than failing.
func DecodeValue(data []byte) (Value, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode property type: %w", err)
	}

	switch head.Type {
	case TypeTitle:
		return decodeAs[Title](data)
	case TypeRichText:
		return decodeAs[Text](data)
	case TypeURL:
		return decodeAs[URL](data)
	case TypeEmail:
		return decodeAs[Email](data)
	case TypePhoneNumber:
		return decodeAs[PhoneNumber](data)
	case TypeSelect:
		return decodeAs[Select](data)
	case TypeMultiSelect:
		return decodeAs[MultiSelect](data)
	case TypeDate:
		return decodeAs[Date](data)
	case TypeCheckbox:
		return decodeAs[Checkbox](data)
	case TypeNumber:
		return decodeAs[Number](data)
	case TypeStatus:
		return decodeAs[Status](data)
	case TypeCreatedTime:
		return decodeAs[CreatedTime](data)
	case TypeLastEditedTime:
		return decodeAs[LastEditedTime](data)
	case TypeCreatedBy:
		return decodeAs[CreatedBy](data)
	case TypeLastEditedBy:
		return decodeAs[LastEditedBy](data)
	case TypePeople:
		return decodeAs[People](data)
	case TypeUniqueID:
		return decodeAs[UniqueID](data)
	case TypeRelation:
		return decodeAs[Relation](data)
	case TypeFormula:
		return decodeAs[Formula](data)
	case TypeFiles:
		return decodeAs[Files](data)
	case TypeRollup:
		return decodeAs[Rollup](data)
	default:
		return Unsupported{Tag: head.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

func decodeAs[T Value](data []byte) (Value, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return nil, fmt.Errorf("decode %s property: %w", zero.Type(), err)
	}
	return v, nil
}
