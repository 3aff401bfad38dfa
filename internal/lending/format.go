package lending

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatText  OutputFormat = "text"
	FormatTable OutputFormat = "table"
)

// Formatter handles output formatting
type Formatter struct {
	format OutputFormat
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(format OutputFormat, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
	}
}

func availability(available bool) string {
	if available {
		return "available"
	}
	return "reserved"
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

// FormatKits formats the catalog
func (f *Formatter) FormatKits(kits []KitOverview) error {
	switch f.format {
	case FormatJSON:
		return f.formatJSON(map[string]any{"kits": kits})
	case FormatText:
		for i, kit := range kits {
			if i > 0 {
				fmt.Fprintln(f.writer, "---")
			}
			fmt.Fprintf(f.writer, "#%d %s\n", kit.Serial, kit.Name)
			fmt.Fprintf(f.writer, "  ID: %s\n", kit.ID)
			fmt.Fprintf(f.writer, "  Type: %s\n", kit.Type)
			fmt.Fprintf(f.writer, "  Status: %s (%s)\n", kit.Status, availability(kit.AvailableNow))
			if len(kit.Tags) > 0 {
				fmt.Fprintf(f.writer, "  Tags: %s\n", strings.Join(kit.Tags, ", "))
			}
		}
		return nil
	default:
		headers := []string{"#", "Name", "Type", "Status", "Now", "ID"}
		rows := make([][]string, 0, len(kits))
		for _, kit := range kits {
			rows = append(rows, []string{
				strconv.Itoa(kit.Serial),
				truncate(kit.Name, 40),
				kit.Type,
				kit.Status,
				availability(kit.AvailableNow),
				kit.ID,
			})
		}
		return f.printTable(headers, rows)
	}
}

// FormatKit formats one kit with its booked slots
func (f *Formatter) FormatKit(detail *KitDetail) error {
	if f.format == FormatJSON {
		return f.formatJSON(map[string]any{"kit": detail})
	}

	kit := detail.Kit
	rows := [][]string{
		{"Serial", strconv.Itoa(kit.Serial)},
		{"Name", kit.Name},
		{"ID", kit.ID},
		{"Type", kit.Type},
		{"Status", kit.Status},
		{"Now", availability(kit.AvailableNow)},
	}
	if len(kit.Tags) > 0 {
		rows = append(rows, []string{"Tags", strings.Join(kit.Tags, ", ")})
	}
	if kit.Description != "" {
		rows = append(rows, []string{"Description", truncate(kit.Description, 60)})
	}
	if kit.Rules != "" {
		rows = append(rows, []string{"Rules", truncate(kit.Rules, 60)})
	}

	if f.format == FormatText {
		for _, row := range rows {
			fmt.Fprintf(f.writer, "%s: %s\n", row[0], row[1])
		}
		if text := kit.Content.PlainText(); text != "" {
			fmt.Fprintf(f.writer, "\n%s\n", text)
		}
	} else if err := f.printTable([]string{"Property", "Value"}, rows); err != nil {
		return err
	}

	if len(detail.Reservations) == 0 {
		fmt.Fprintln(f.writer, "\nNo reservations.")
		return nil
	}
	fmt.Fprintln(f.writer, "\nReservations:")
	for _, slot := range detail.Reservations {
		fmt.Fprintf(f.writer, "  %s - %s\n", day(slot.StartDate), day(slot.EndDate))
	}
	return nil
}

// FormatDocument formats a text page
func (f *Formatter) FormatDocument(doc Document) error {
	if f.format == FormatJSON {
		return f.formatJSON(map[string]any{"data": doc})
	}
	_, err := fmt.Fprintln(f.writer, doc.PlainText())
	return err
}

// FormatSettings formats the site settings
func (f *Formatter) FormatSettings(settings map[string]string) error {
	if f.format == FormatJSON {
		return f.formatJSON(map[string]any{"data": settings})
	}
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, truncate(settings[key], 60)})
	}
	return f.printTable([]string{"Key", "Value"}, rows)
}

// formatJSON outputs as JSON
func (f *Formatter) formatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printTable prints a simple table
func (f *Formatter) printTable(headers []string, rows [][]string) error {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	f.printRow(headers, widths)
	for i, w := range widths {
		fmt.Fprint(f.writer, strings.Repeat("-", w))
		if i < len(widths)-1 {
			fmt.Fprint(f.writer, "  ")
		}
	}
	fmt.Fprintln(f.writer)
	for _, row := range rows {
		f.printRow(row, widths)
	}
	return nil
}

// printRow prints a table row; the last cell is not padded
func (f *Formatter) printRow(cells []string, widths []int) {
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		if i == len(cells)-1 {
			fmt.Fprint(f.writer, cell)
			break
		}
		fmt.Fprintf(f.writer, "%-*s  ", widths[i], cell)
	}
	fmt.Fprintln(f.writer)
}

// textRun is a Notion rich text run or a portable text span; only spans
// carry text as a string
type textRun struct {
	Text      json.RawMessage `json:"text"`
	PlainText string          `json:"plain_text"`
}

func (r textRun) String() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	var s string
	_ = json.Unmarshal(r.Text, &s)
	return s
}

// PlainText extracts the text of a document, one line per block. Both
// Notion blocks (rich_text under the block type) and portable text blocks
// (children spans) are understood; other blocks are skipped.
func (d Document) PlainText() string {
	lines := make([]string, 0, len(d))
	for _, raw := range d {
		var block map[string]json.RawMessage
		if err := json.Unmarshal(raw, &block); err != nil {
			continue
		}
		var runs []textRun
		if children, ok := block["children"]; ok {
			_ = json.Unmarshal(children, &runs)
		} else if typ, ok := block["type"]; ok {
			var name string
			_ = json.Unmarshal(typ, &name)
			var body struct {
				RichText []textRun `json:"rich_text"`
			}
			_ = json.Unmarshal(block[name], &body)
			runs = body.RichText
		}
		if runs == nil {
			continue
		}
		var sb strings.Builder
		for _, run := range runs {
			sb.WriteString(run.String())
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}
