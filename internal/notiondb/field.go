package notiondb

import (
	"github.com/longkey1/kitlend/internal/notion"
)

// Field is one entry of a Schema: either a Def produced by one of the
// preset constructors or the record identifier returned by ID.
type Field interface {
	// Kind is the property kind the field reads; "" for the identifier.
	Kind() notion.Kind
	// Writable reports whether the field can be encoded for create and update.
	Writable() bool

	decodeAny(v notion.Value, option, pageID string) (any, error)
	encodeAny(v any) (notion.Value, error)
}

// Def is an immutable field definition reading properties of wire type V
// into application values of type T. Defs with an encoder are writable.
type Def[V notion.Value, T any] struct {
	dec func(v V, option, pageID string) (T, error)
	enc func(v T) (V, error)
}

// Kind returns the property kind the definition reads
func (d Def[V, T]) Kind() notion.Kind {
	var zero V
	return zero.Kind()
}

// Writable reports whether the definition has an encoder
func (d Def[V, T]) Writable() bool {
	return d.enc != nil
}

// Decode converts a wire value into its application value
func (d Def[V, T]) Decode(v V, option, pageID string) (T, error) {
	return d.dec(v, option, pageID)
}

// Encode converts an application value into the minimal wire value.
// It fails with FieldNotWritable when the definition is read-only.
func (d Def[V, T]) Encode(v T) (V, error) {
	if d.enc == nil {
		var zero V
		return zero, newError(CodeFieldNotWritable, "", "%s field has no encoder", d.Kind())
	}
	return d.enc(v)
}

func (d Def[V, T]) decodeAny(v notion.Value, option, pageID string) (any, error) {
	typed, ok := v.(V)
	if !ok {
		return nil, newError(CodeTypeMismatch, "", "expected %s value, got %T", d.Kind(), v)
	}
	return d.dec(typed, option, pageID)
}

func (d Def[V, T]) encodeAny(v any) (notion.Value, error) {
	if d.enc == nil {
		return nil, newError(CodeFieldNotWritable, "", "%s field has no encoder", d.Kind())
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return nil, newError(CodeTypeMismatch, "", "expected %T, got %T", zero, v)
	}
	return d.enc(typed)
}

type idField struct{}

// ID marks a schema field that receives the page's own identifier.
func ID() Field {
	return idField{}
}

// IsID reports whether f is the identifier field
func IsID(f Field) bool {
	_, ok := f.(idField)
	return ok
}

func (idField) Kind() notion.Kind { return "" }
func (idField) Writable() bool    { return false }

func (idField) decodeAny(notion.Value, string, string) (any, error) {
	return nil, newError(CodeTypeMismatch, "", "identifier field has no decoder")
}

func (idField) encodeAny(any) (notion.Value, error) {
	return nil, newError(CodeIdentifierIsImmutable, "", "identifier cannot be written")
}
