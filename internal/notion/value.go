package notion

import (
	"encoding/json"
	"fmt"
)

// Kind is the type tag of a page property
type Kind string

const (
	KindTitle          Kind = "title"
	KindRichText       Kind = "rich_text"
	KindNumber         Kind = "number"
	KindSelect         Kind = "select"
	KindMultiSelect    Kind = "multi_select"
	KindStatus         Kind = "status"
	KindDate           Kind = "date"
	KindPeople         Kind = "people"
	KindFiles          Kind = "files"
	KindCheckbox       Kind = "checkbox"
	KindURL            Kind = "url"
	KindEmail          Kind = "email"
	KindPhoneNumber    Kind = "phone_number"
	KindFormula        Kind = "formula"
	KindRelation       Kind = "relation"
	KindRollup         Kind = "rollup"
	KindCreatedTime    Kind = "created_time"
	KindCreatedBy      Kind = "created_by"
	KindLastEditedTime Kind = "last_edited_time"
	KindLastEditedBy   Kind = "last_edited_by"
	KindUniqueID       Kind = "unique_id"
)

// Writable reports whether the API accepts values of this kind on create and update
func (k Kind) Writable() bool {
	switch k {
	case KindTitle, KindRichText, KindNumber, KindSelect, KindMultiSelect, KindStatus,
		KindDate, KindCheckbox, KindURL, KindEmail, KindPhoneNumber, KindRelation:
		return true
	}
	return false
}

// Value is the kind-specific payload of a property. The set of
// implementations is closed; switch on the concrete type to read it.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	// Title is the value of a title property
	Title []RichText
	// RichTexts is the value of a rich_text property
	RichTexts []RichText
	// MultiSelect is the value of a multi_select property, in wire order
	MultiSelect []SelectOption
	// People is the value of a people property
	People []User
	// Files is the value of a files property
	Files []File
	// Checkbox is the value of a checkbox property
	Checkbox bool
	// Relations is the value of a relation property
	Relations []Relation
	// CreatedTime is the value of a created_time property (RFC 3339)
	CreatedTime string
	// LastEditedTime is the value of a last_edited_time property (RFC 3339)
	LastEditedTime string
	// CreatedBy is the value of a created_by property
	CreatedBy User
	// LastEditedBy is the value of a last_edited_by property
	LastEditedBy User
)

// Number is the value of a number property; Value is nil when empty
type Number struct {
	Value *float64
}

// Select is the value of a select property; Option is nil when empty
type Select struct {
	Option *SelectOption
}

// Status is the value of a status property; Option is nil when empty
type Status struct {
	Option *SelectOption
}

// Date is the value of a date property; Range is nil when empty
type Date struct {
	Range *DateRange
}

// URL is the value of a url property
type URL struct {
	Value *string
}

// Email is the value of an email property
type Email struct {
	Value *string
}

// PhoneNumber is the value of a phone_number property
type PhoneNumber struct {
	Value *string
}

// Formula result types
const (
	FormulaString  = "string"
	FormulaNumber  = "number"
	FormulaBoolean = "boolean"
	FormulaDate    = "date"
)

// Formula is the computed value of a formula property. Type selects
// which of the pointer fields is meaningful.
type Formula struct {
	Type    string     `json:"type"`
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateRange `json:"date,omitempty"`
}

// Rollup result types
const (
	RollupNumber = "number"
	RollupDate   = "date"
	RollupArray  = "array"
)

// Rollup is the aggregated value of a rollup property. Array items are
// untitled property values of the rolled-up kind.
type Rollup struct {
	Type     string          `json:"type"`
	Number   *float64        `json:"number,omitempty"`
	Date     *DateRange      `json:"date,omitempty"`
	Array    []PropertyValue `json:"array,omitempty"`
	Function string          `json:"function,omitempty"`
}

// UniqueID is the value of a unique_id property
type UniqueID struct {
	Prefix *string `json:"prefix"`
	Number *int    `json:"number"`
}

// Unsupported holds properties of a kind this package does not model
type Unsupported struct {
	Type Kind
	Raw  json.RawMessage
}

func (Title) Kind() Kind          { return KindTitle }
func (RichTexts) Kind() Kind      { return KindRichText }
func (Number) Kind() Kind         { return KindNumber }
func (Select) Kind() Kind         { return KindSelect }
func (MultiSelect) Kind() Kind    { return KindMultiSelect }
func (Status) Kind() Kind         { return KindStatus }
func (Date) Kind() Kind           { return KindDate }
func (People) Kind() Kind         { return KindPeople }
func (Files) Kind() Kind          { return KindFiles }
func (Checkbox) Kind() Kind       { return KindCheckbox }
func (URL) Kind() Kind            { return KindURL }
func (Email) Kind() Kind          { return KindEmail }
func (PhoneNumber) Kind() Kind    { return KindPhoneNumber }
func (Formula) Kind() Kind        { return KindFormula }
func (Relations) Kind() Kind      { return KindRelation }
func (Rollup) Kind() Kind         { return KindRollup }
func (CreatedTime) Kind() Kind    { return KindCreatedTime }
func (CreatedBy) Kind() Kind      { return KindCreatedBy }
func (LastEditedTime) Kind() Kind { return KindLastEditedTime }
func (LastEditedBy) Kind() Kind   { return KindLastEditedBy }
func (UniqueID) Kind() Kind       { return KindUniqueID }
func (u Unsupported) Kind() Kind  { return u.Type }

func (Title) isValue()          {}
func (RichTexts) isValue()      {}
func (Number) isValue()         {}
func (Select) isValue()         {}
func (MultiSelect) isValue()    {}
func (Status) isValue()         {}
func (Date) isValue()           {}
func (People) isValue()         {}
func (Files) isValue()          {}
func (Checkbox) isValue()       {}
func (URL) isValue()            {}
func (Email) isValue()          {}
func (PhoneNumber) isValue()    {}
func (Formula) isValue()        {}
func (Relations) isValue()      {}
func (Rollup) isValue()         {}
func (CreatedTime) isValue()    {}
func (CreatedBy) isValue()      {}
func (LastEditedTime) isValue() {}
func (LastEditedBy) isValue()   {}
func (UniqueID) isValue()       {}
func (Unsupported) isValue()    {}

// PropertyValue is one entry of a page's property map
type PropertyValue struct {
	ID    string
	Value Value
}

// Kind returns the tag of the held value
func (p PropertyValue) Kind() Kind {
	if p.Value == nil {
		return ""
	}
	return p.Value.Kind()
}

// UnmarshalJSON implements json.Unmarshaler
func (p *PropertyValue) UnmarshalJSON(data []byte) error {
	var head struct {
		ID   string `json:"id"`
		Type Kind   `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	value, err := decodeValue(head.Type, fields[string(head.Type)])
	if err != nil {
		return fmt.Errorf("failed to decode %s property: %w", head.Type, err)
	}
	p.ID = head.ID
	p.Value = value
	return nil
}

// MarshalJSON implements json.Marshaler. The output has the shape the
// create and update endpoints accept: {"type": kind, kind: payload}.
func (p PropertyValue) MarshalJSON() ([]byte, error) {
	if p.Value == nil {
		return nil, fmt.Errorf("property %q has no value", p.ID)
	}
	kind := p.Value.Kind()
	out := map[string]any{
		"type":       kind,
		string(kind): encodeValue(p.Value),
	}
	if p.ID != "" {
		out["id"] = p.ID
	}
	return json.Marshal(out)
}

func decodeValue(kind Kind, raw json.RawMessage) (Value, error) {
	switch kind {
	case KindTitle:
		var v []RichText
		err := unmarshalRaw(raw, &v)
		return Title(v), err
	case KindRichText:
		var v []RichText
		err := unmarshalRaw(raw, &v)
		return RichTexts(v), err
	case KindNumber:
		var v *float64
		err := unmarshalRaw(raw, &v)
		return Number{Value: v}, err
	case KindSelect:
		var v *SelectOption
		err := unmarshalRaw(raw, &v)
		return Select{Option: v}, err
	case KindMultiSelect:
		var v []SelectOption
		err := unmarshalRaw(raw, &v)
		return MultiSelect(v), err
	case KindStatus:
		var v *SelectOption
		err := unmarshalRaw(raw, &v)
		return Status{Option: v}, err
	case KindDate:
		var v *DateRange
		err := unmarshalRaw(raw, &v)
		return Date{Range: v}, err
	case KindPeople:
		var v []User
		err := unmarshalRaw(raw, &v)
		return People(v), err
	case KindFiles:
		var v []File
		err := unmarshalRaw(raw, &v)
		return Files(v), err
	case KindCheckbox:
		var v bool
		err := unmarshalRaw(raw, &v)
		return Checkbox(v), err
	case KindURL:
		var v *string
		err := unmarshalRaw(raw, &v)
		return URL{Value: v}, err
	case KindEmail:
		var v *string
		err := unmarshalRaw(raw, &v)
		return Email{Value: v}, err
	case KindPhoneNumber:
		var v *string
		err := unmarshalRaw(raw, &v)
		return PhoneNumber{Value: v}, err
	case KindFormula:
		var v Formula
		err := unmarshalRaw(raw, &v)
		return v, err
	case KindRelation:
		var v []Relation
		err := unmarshalRaw(raw, &v)
		return Relations(v), err
	case KindRollup:
		var v Rollup
		err := unmarshalRaw(raw, &v)
		return v, err
	case KindCreatedTime:
		var v string
		err := unmarshalRaw(raw, &v)
		return CreatedTime(v), err
	case KindCreatedBy:
		var v User
		err := unmarshalRaw(raw, &v)
		return CreatedBy(v), err
	case KindLastEditedTime:
		var v string
		err := unmarshalRaw(raw, &v)
		return LastEditedTime(v), err
	case KindLastEditedBy:
		var v User
		err := unmarshalRaw(raw, &v)
		return LastEditedBy(v), err
	case KindUniqueID:
		var v UniqueID
		err := unmarshalRaw(raw, &v)
		return v, err
	default:
		return Unsupported{Type: kind, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

func unmarshalRaw(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// encodeValue returns the payload stored under the kind key
func encodeValue(value Value) any {
	switch v := value.(type) {
	case Title:
		return nonNil([]RichText(v))
	case RichTexts:
		return nonNil([]RichText(v))
	case Number:
		return v.Value
	case Select:
		return v.Option
	case MultiSelect:
		return nonNil([]SelectOption(v))
	case Status:
		return v.Option
	case Date:
		return v.Range
	case People:
		return nonNil([]User(v))
	case Files:
		return nonNil([]File(v))
	case Checkbox:
		return bool(v)
	case URL:
		return v.Value
	case Email:
		return v.Value
	case PhoneNumber:
		return v.Value
	case Formula:
		return v
	case Relations:
		return nonNil([]Relation(v))
	case Rollup:
		return v
	case CreatedTime:
		return string(v)
	case CreatedBy:
		return User(v)
	case LastEditedTime:
		return string(v)
	case LastEditedBy:
		return User(v)
	case UniqueID:
		return v
	case Unsupported:
		if len(v.Raw) == 0 {
			return nil
		}
		return v.Raw
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
