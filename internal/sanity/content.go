package sanity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reference is a reference to another document
type Reference struct {
	Type string `json:"_type,omitempty"`
	Ref  string `json:"_ref"`
}

// Image is an image field; Asset references the image asset document
type Image struct {
	Type  string    `json:"_type,omitempty"`
	Key   string    `json:"_key,omitempty"`
	Asset Reference `json:"asset"`
}

// ImageURL returns the CDN URL of an image asset, or "" when the asset
// reference is not of the form image-<id>-<width>x<height>-<format>.
func (c *Client) ImageURL(img Image) string {
	ref := img.Asset.Ref
	if !strings.HasPrefix(ref, "image-") {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(ref, "image-"), "-")
	if len(parts) != 3 {
		return ""
	}
	return fmt.Sprintf("https://cdn.sanity.io/images/%s/%s/%s-%s.%s",
		c.opts.ProjectID, c.opts.Dataset, parts[0], parts[1], parts[2])
}

// Block is one portable text block. Raw keeps the block as sent so it can
// be handed to a renderer unchanged.
type Block struct {
	Type     string `json:"_type"`
	Style    string `json:"style,omitempty"`
	Children []Span `json:"children,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Span is an inline run of a portable text block
type Span struct {
	Type string `json:"_type"`
	Text string `json:"text"`
}

// UnmarshalJSON implements json.Unmarshaler
func (b *Block) UnmarshalJSON(data []byte) error {
	type plain Block
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = Block(p)
	b.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON implements json.Marshaler
func (b Block) MarshalJSON() ([]byte, error) {
	if len(b.Raw) > 0 {
		return b.Raw, nil
	}
	type plain Block
	return json.Marshal(plain(b))
}

// PlainText joins the text of every text block, one line per block
func PlainText(blocks []Block) string {
	lines := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if block.Type != "block" {
			continue
		}
		var sb strings.Builder
		for _, span := range block.Children {
			sb.WriteString(span.Text)
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}
