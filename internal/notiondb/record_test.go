package notiondb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkey1/kitlend/internal/notion"
)

type Overview struct {
	ID     string   `notion:"id"`
	Name   string   `notion:"Name"`
	Images []string `notion:"Images__img"`
}

type detail struct {
	Overview `notion:",squash"`
	Period   DateRange      `notion:"Period"`
	Content  []notion.Block `notion:"content"`
}

func TestRecordDecode(t *testing.T) {
	block := paragraph(t, "p1", "hello")
	record := Record{
		"id":          "k1",
		"Name":        "Mic",
		"Images__img": []string{"u1", "u2"},
		"Period":      DateRange{Start: "2024-01-01"},
		"content":     []notion.Block{block},
	}

	var out detail
	require.NoError(t, record.Decode(&out))
	assert.Equal(t, "k1", out.ID)
	assert.Equal(t, "Mic", out.Name)
	assert.Equal(t, []string{"u1", "u2"}, out.Images)
	assert.Equal(t, DateRange{Start: "2024-01-01"}, out.Period)
	require.Len(t, out.Content, 1)
	assert.JSONEq(t, string(block.Raw()), string(out.Content[0].Raw()))
}

func TestRecordDecodeTypeMismatch(t *testing.T) {
	var out Overview
	assert.Error(t, Record{"Name": []string{"x"}}.Decode(&out))
}

func TestGetTyped(t *testing.T) {
	r := Record{"Name": "Mic", "Serial": 3}

	name, err := Get[string](r, "Name")
	require.NoError(t, err)
	assert.Equal(t, "Mic", name)

	_, err = Get[string](r, "Serial")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Get[string](r, "Missing")
	assert.ErrorIs(t, err, ErrUnknownField)
}
