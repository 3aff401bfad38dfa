package notiondb

import (
	"fmt"
	"slices"

	"github.com/go-viper/mapstructure/v2"
)

// Record is a decoded page: exactly the field names of its schema mapped
// to the values their definitions produce.
type Record map[string]any

// Get returns the value of field as T
func Get[T any](r Record, field string) (T, error) {
	var zero T
	v, ok := r[field]
	if !ok {
		return zero, newError(CodeUnknownField, field, "record has no such field")
	}
	typed, ok := v.(T)
	if !ok {
		return zero, newError(CodeTypeMismatch, field, "want %T, got %T", zero, v)
	}
	return typed, nil
}

// Decode binds the record onto out, a pointer to a struct whose fields
// carry `notion:"name"` tags. Embedded structs are squashed.
func (r Record) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "notion",
		Squash:  true,
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(r)); err != nil {
		return fmt.Errorf("failed to bind record: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
