package notiondb

import (
	"fmt"

	"github.com/longkey1/kitlend/internal/notion"
)

// DecodeRecord decodes every field of schema from page. It fails on the
// first missing property, kind mismatch or decoder error and never returns
// a partial record.
func DecodeRecord(page *notion.Page, schema Schema) (Record, error) {
	record := make(Record, len(schema))
	for _, name := range schema.Names() {
		field := schema[name]
		if IsID(field) {
			record[name] = page.ID
			continue
		}

		property, option := SplitField(name)
		pv, ok := page.Properties[property]
		if !ok {
			return nil, newError(CodePropertyNotFound, property, "page %s has no such property", page.ID)
		}
		if pv.Kind() != field.Kind() {
			return nil, newError(CodePropertyKindMismatch, property, "want %s, got %s", field.Kind(), pv.Kind())
		}

		value, err := field.decodeAny(pv.Value, option, page.ID)
		if err != nil {
			return nil, withProperty(err, property)
		}
		record[name] = value
	}
	return record, nil
}

// EncodeFields encodes the given application values into the property map
// of a create or update call. Keys are schema field names; the option
// suffix is dropped from the emitted property names.
func EncodeFields(values map[string]any, schema Schema) (map[string]notion.PropertyValue, error) {
	properties := make(map[string]notion.PropertyValue, len(values))
	for _, name := range sortedKeys(values) {
		field, ok := schema[name]
		if !ok {
			return nil, newError(CodeUnknownField, name, "field is not declared")
		}
		property, _ := SplitField(name)
		if IsID(field) {
			return nil, newError(CodeIdentifierIsImmutable, name, "identifier cannot be written")
		}
		if !field.Writable() {
			return nil, newError(CodeFieldNotWritable, property, "%s field has no encoder", field.Kind())
		}

		value, err := field.encodeAny(values[name])
		if err != nil {
			return nil, withProperty(err, property)
		}
		properties[property] = notion.PropertyValue{Value: value}
	}
	return properties, nil
}

func withProperty(err error, property string) error {
	if e, ok := err.(*Error); ok && e.Property == "" {
		e.Property = property
		return e
	}
	return fmt.Errorf("property %s: %w", property, err)
}
