package notiondb

import (
	"slices"
	"strings"

	"github.com/longkey1/kitlend/internal/notion"
)

// OptionDelimiter separates a remote name from its option suffix, both in
// schema field names ("images__img") and in record type names
// ("kits__detail" reads the "kits" database).
const OptionDelimiter = "__"

// Schema maps field names to field definitions.
type Schema map[string]Field

// Schemas maps record type names to their schemas.
type Schemas map[string]Schema

// NewSchemas returns s unchanged. It exists so schema literals read as
// declarations at their call site.
func NewSchemas(s Schemas) Schemas {
	return s
}

// SplitField splits a field name into the remote property name and the
// option suffix passed to the decoder.
func SplitField(name string) (property, option string) {
	property, option, _ = strings.Cut(name, OptionDelimiter)
	return property, option
}

// ContainerName returns the database name a record type reads from
func ContainerName(recordType string) string {
	name, _ := SplitField(recordType)
	return name
}

// Names returns the field names in lexical order
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// FieldOfKind returns the lexically first field reading kind
func (s Schema) FieldOfKind(kind notion.Kind) (string, bool) {
	for _, name := range s.Names() {
		f := s[name]
		if !IsID(f) && f.Kind() == kind {
			return name, true
		}
	}
	return "", false
}
