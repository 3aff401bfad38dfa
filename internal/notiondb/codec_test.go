package notiondb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkey1/kitlend/internal/notion"
)

var kitSchema = Schema{
	"id":          ID(),
	"Name":        TitlePlainText(),
	"Status":      StatusEnum("available", "broken"),
	"Tags":        MultiSelectEnum("audio", "lighting", "video"),
	"Images__img": FileImageURLs(),
	"Images":      FileURLs(),
	"Serial":      UniqueIDNumber(),
	"Count":       FormulaNumberDefaultZero(),
}

func kitPage() *notion.Page {
	page := fullPage("kit-1", props(
		"Name", title("Zoom H6"),
		"Status", notion.Status{Option: &notion.SelectOption{Name: "available"}},
		"Tags", notion.MultiSelect{{Name: "audio"}},
		"Images", notion.Files{{Type: "file", File: &notion.FileData{URL: "https://files/x.jpg?sig=1"}}},
		"Serial", uniqueID(3),
		"Count", notion.Formula{Type: notion.FormulaNumber, Number: notion.Ptr(2.0)},
		"Unused", notion.Checkbox(true),
	))
	return &page
}

func TestDecodeRecord(t *testing.T) {
	record, err := DecodeRecord(kitPage(), kitSchema)
	require.NoError(t, err)

	assert.ElementsMatch(t, kitSchema.Names(), sortedKeys(record))
	assert.Equal(t, "kit-1", record["id"])
	assert.Equal(t, "Zoom H6", record["Name"])
	assert.Equal(t, "available", record["Status"])
	assert.Equal(t, []string{"audio"}, record["Tags"])
	assert.Equal(t, []string{"https://files/x.jpg?sig=1"}, record["Images"])
	assert.Equal(t, []string{"https://www.notion.so/image/https%3A%2F%2Ffiles%2Fx.jpg?id=kit-1&table=block"}, record["Images__img"])
	assert.Equal(t, 3, record["Serial"])
	assert.Equal(t, 2.0, record["Count"])
	assert.NotContains(t, record, "Unused")
}

func TestDecodeRecordMissingProperty(t *testing.T) {
	page := kitPage()
	delete(page.Properties, "Tags")

	_, err := DecodeRecord(page, kitSchema)
	require.ErrorIs(t, err, ErrPropertyNotFound)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "Tags", e.Property)
}

func TestDecodeRecordKindMismatch(t *testing.T) {
	page := kitPage()
	page.Properties["Status"] = notion.PropertyValue{Value: notion.Select{Option: &notion.SelectOption{Name: "available"}}}

	record, err := DecodeRecord(page, kitSchema)
	assert.ErrorIs(t, err, ErrPropertyKindMismatch)
	assert.Nil(t, record)
}

func TestDecodeRecordDecoderError(t *testing.T) {
	page := kitPage()
	page.Properties["Tags"] = notion.PropertyValue{Value: notion.MultiSelect{{Name: "drone"}}}

	_, err := DecodeRecord(page, kitSchema)
	require.ErrorIs(t, err, ErrInvalidEnumValue)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "Tags", e.Property)
}

func TestEncodeFields(t *testing.T) {
	schema := Schema{
		"id":       ID(),
		"Name":     TitlePlainText(),
		"Tags":     MultiSelectStrings(),
		"Period":   DateRangeValue(),
		"Count":    FormulaNumberDefaultZero(),
		"Note__md": RichTextPlainText(),
	}

	properties, err := EncodeFields(map[string]any{
		"Name":     "Tripod",
		"Tags":     []string{"video"},
		"Period":   DateRange{Start: "2024-05-01", End: "2024-05-03"},
		"Note__md": "fragile",
	}, schema)
	require.NoError(t, err)

	assert.Len(t, properties, 4)
	assert.Equal(t, title("Tripod"), properties["Name"].Value)
	assert.Equal(t, notion.MultiSelect{{Name: "video"}}, properties["Tags"].Value)
	assert.Equal(t, notion.Date{Range: &notion.DateRange{Start: "2024-05-01", End: notion.Ptr("2024-05-03")}}, properties["Period"].Value)
	assert.Equal(t, notion.RichTexts(notion.TextRuns("fragile")), properties["Note"].Value)
	assert.NotContains(t, properties, "Note__md")
}

func TestEncodeFieldsRejectsUnwritable(t *testing.T) {
	schema := Schema{"id": ID(), "Count": FormulaNumberDefaultZero(), "Name": TitlePlainText()}

	_, err := EncodeFields(map[string]any{"Count": 1.0}, schema)
	assert.ErrorIs(t, err, ErrFieldNotWritable)

	_, err = EncodeFields(map[string]any{"id": "x"}, schema)
	assert.ErrorIs(t, err, ErrIdentifierIsImmutable)

	_, err = EncodeFields(map[string]any{"Other": "x"}, schema)
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = EncodeFields(map[string]any{"Name": 12}, schema)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestSplitField(t *testing.T) {
	for _, tc := range []struct{ in, property, option string }{
		{"Images__img", "Images", "img"},
		{"Images", "Images", ""},
		{"a__b__c", "a", "b__c"},
	} {
		property, option := SplitField(tc.in)
		assert.Equal(t, tc.property, property)
		assert.Equal(t, tc.option, option)
	}
	assert.Equal(t, "kits", ContainerName("kits__detail"))
}

func TestFieldOfKind(t *testing.T) {
	schema := Schema{"id": ID(), "b": TitlePlainText(), "a": TitlePlainText(), "n": UniqueIDNumber()}

	name, ok := schema.FieldOfKind(notion.KindTitle)
	assert.True(t, ok)
	assert.Equal(t, "a", name)

	_, ok = schema.FieldOfKind(notion.KindRollup)
	assert.False(t, ok)
}
