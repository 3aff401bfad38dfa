package lending

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var formatKits = []KitOverview{
	{ID: "k1", Serial: 1, Name: "Mic", Type: "audio", Status: "ok", Tags: []string{"field"}, AvailableNow: true},
	{ID: "k2", Serial: 12, Name: "Light", Type: "video", Status: "ok"},
}

func TestFormatKitsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable, &buf).FormatKits(formatKits))

	want := "" +
		"#   Name   Type   Status  Now        ID\n" +
		"--  -----  -----  ------  ---------  --\n" +
		"1   Mic    audio  ok      available  k1\n" +
		"12  Light  video  ok      reserved   k2\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatKitsText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatText, &buf).FormatKits(formatKits))

	assert.Contains(t, buf.String(), "#1 Mic\n  ID: k1\n")
	assert.Contains(t, buf.String(), "  Tags: field\n---\n#12 Light")
	assert.Contains(t, buf.String(), "Status: ok (reserved)")
}

func TestFormatKitsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON, &buf).FormatKits(formatKits))

	var out struct {
		Kits []map[string]any `json:"kits"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Kits, 2)
	assert.Equal(t, "k1", out.Kits[0]["_id"])
	assert.Equal(t, true, out.Kits[0]["availableNow"])
}

func TestFormatKit(t *testing.T) {
	detail := &KitDetail{
		Kit: Kit{
			KitOverview: KitOverview{ID: "k1", Serial: 1, Name: "Mic", Status: "ok"},
			Rules:       "Return clean",
			Content:     Document{json.RawMessage(`{"_type":"block","children":[{"_type":"span","text":"Hello"}]}`)},
		},
		Reservations: []ReservationSlot{{StartDate: "2024-05-01T10:00:00Z", EndDate: "2024-05-02"}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatText, &buf).FormatKit(detail))
	assert.Contains(t, buf.String(), "Rules: Return clean\n")
	assert.Contains(t, buf.String(), "\nHello\n")
	assert.Contains(t, buf.String(), "  2024-05-01 - 2024-05-02\n")

	buf.Reset()
	detail.Reservations = nil
	require.NoError(t, NewFormatter(FormatTable, &buf).FormatKit(detail))
	assert.Contains(t, buf.String(), "Property")
	assert.Contains(t, buf.String(), "No reservations.")
}

func TestDocumentPlainText(t *testing.T) {
	doc := Document{
		json.RawMessage(`{"type":"heading_1","heading_1":{"rich_text":[{"type":"text","text":{"content":"Ti"},"plain_text":"Title"}]}}`),
		json.RawMessage(`{"type":"divider","divider":{}}`),
		json.RawMessage(`{"_type":"block","children":[{"_type":"span","text":"a"},{"_type":"span","text":"b"}]}`),
		json.RawMessage(`{"_type":"image"}`),
	}
	assert.Equal(t, "Title\nab", doc.PlainText())
}

func TestFormatSettings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable, &buf).FormatSettings(map[string]string{"b": "2", "a": "1"}))
	assert.Equal(t, "Key  Value\n---  -----\na    1\nb    2\n", buf.String())
}
