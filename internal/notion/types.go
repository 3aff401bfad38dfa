package notion

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf16"
)

// MaxTextRunLength is the longest text content Notion accepts in one rich
// text run, counted in UTF-16 code units
const MaxTextRunLength = 2000

// Page represents a Notion page (a database row)
type Page struct {
	Object         string                   `json:"object"`
	ID             string                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time"`
	LastEditedTime time.Time                `json:"last_edited_time"`
	Cover          *File                    `json:"cover,omitempty"`
	Icon           *Icon                    `json:"icon,omitempty"`
	Parent         Parent                   `json:"parent"`
	Archived       bool                     `json:"archived"`
	InTrash        bool                     `json:"in_trash"`
	Properties     map[string]PropertyValue `json:"properties,omitempty"`
	URL            string                   `json:"url,omitempty"`
}

// IsFull reports whether the page carries its properties.
// Partial page objects only contain the object type and id.
func (p *Page) IsFull() bool {
	return p != nil && p.Object == "page" && p.Properties != nil
}

// PageList is a paginated list of pages returned by a database query
type PageList struct {
	Object     string  `json:"object"`
	Results    []Page  `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// User represents a Notion user
type User struct {
	Object    string  `json:"object"`
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Type      string  `json:"type,omitempty"`
	Person    *Person `json:"person,omitempty"`
}

// Person represents a person user
type Person struct {
	Email string `json:"email"`
}

// File represents a file object
type File struct {
	Name     string    `json:"name,omitempty"`
	Type     string    `json:"type"`
	External *External `json:"external,omitempty"`
	File     *FileData `json:"file,omitempty"`
}

// URL returns the hosted or external URL of the file, or "" when it has neither.
func (f File) URL() string {
	switch {
	case f.File != nil:
		return f.File.URL
	case f.External != nil:
		return f.External.URL
	}
	return ""
}

// External represents an external file
type External struct {
	URL string `json:"url"`
}

// FileData represents file data
type FileData struct {
	URL        string    `json:"url"`
	ExpiryTime time.Time `json:"expiry_time"`
}

// Icon represents an icon (emoji or file)
type Icon struct {
	Type     string    `json:"type"`
	Emoji    string    `json:"emoji,omitempty"`
	External *External `json:"external,omitempty"`
	File     *FileData `json:"file,omitempty"`
}

// Parent represents the parent of a page
type Parent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"`
	BlockID    string `json:"block_id,omitempty"`
}

// RichText represents rich text content
type RichText struct {
	Type        string       `json:"type,omitempty"`
	Text        *TextContent `json:"text,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
	Href        *string      `json:"href,omitempty"`
}

// Plain returns the plain text of the run. Request-side runs carry no
// plain_text, so the text content is used instead.
func (r RichText) Plain() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	if r.Text != nil {
		return r.Text.Content
	}
	return ""
}

// TextContent represents text content
type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link represents a link
type Link struct {
	URL string `json:"url"`
}

// Annotations represents text annotations
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

// PlainText concatenates the plain text of every run in order
func PlainText(texts []RichText) string {
	var sb strings.Builder
	for _, text := range texts {
		sb.WriteString(text.Plain())
	}
	return sb.String()
}

// TextRuns builds the minimal rich text array carrying content. Content
// longer than MaxTextRunLength is split into consecutive runs on rune
// boundaries.
func TextRuns(content string) []RichText {
	runs := []RichText{}
	start, units := 0, 0
	for i, r := range content {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > MaxTextRunLength {
			runs = append(runs, textRun(content[start:i]))
			start, units = i, 0
		}
		units += n
	}
	if start < len(content) {
		runs = append(runs, textRun(content[start:]))
	}
	return runs
}

func textRun(content string) RichText {
	return RichText{Type: "text", Text: &TextContent{Content: content}}
}

// SelectOption represents a select, multi-select or status option
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DateRange is the wire shape of a date value
type DateRange struct {
	Start    string  `json:"start"`
	End      *string `json:"end"`
	TimeZone *string `json:"time_zone,omitempty"`
}

// Relation represents one related page
type Relation struct {
	ID string `json:"id"`
}

// Block is one child block of a page. The provider JSON is kept verbatim
// and re-emitted unchanged when the block is marshalled.
type Block struct {
	ID          string
	Type        string
	HasChildren bool

	raw json.RawMessage
}

type blockHead struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	HasChildren   bool   `json:"has_children"`
	ChildDatabase *struct {
		Title string `json:"title"`
	} `json:"child_database,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler
func (b *Block) UnmarshalJSON(data []byte) error {
	var head blockHead
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	b.ID = head.ID
	b.Type = head.Type
	b.HasChildren = head.HasChildren
	b.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON implements json.Marshaler
func (b Block) MarshalJSON() ([]byte, error) {
	if len(b.raw) > 0 {
		return b.raw, nil
	}
	return json.Marshal(blockHead{ID: b.ID, Type: b.Type, HasChildren: b.HasChildren})
}

// Raw returns the block exactly as the provider sent it
func (b Block) Raw() json.RawMessage {
	return b.raw
}

// ChildDatabaseTitle returns the database title of a child_database block
func (b Block) ChildDatabaseTitle() (string, bool) {
	if b.Type != "child_database" {
		return "", false
	}
	var head blockHead
	if err := json.Unmarshal(b.raw, &head); err != nil || head.ChildDatabase == nil {
		return "", false
	}
	return head.ChildDatabase.Title, true
}

// PlainText returns the concatenated rich text of text-bearing blocks
// (paragraphs, headings, list items, quotes, callouts, to-dos, code).
func (b Block) PlainText() string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b.raw, &fields); err != nil {
		return ""
	}
	body, ok := fields[b.Type]
	if !ok {
		return ""
	}
	var content struct {
		RichText []RichText `json:"rich_text"`
	}
	if err := json.Unmarshal(body, &content); err != nil {
		return ""
	}
	return PlainText(content.RichText)
}

// BlockList is a paginated list of child blocks
type BlockList struct {
	Object     string  `json:"object"`
	Results    []Block `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// APIError represents an error from the Notion API
type APIError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// IsNotFound reports whether the API rejected the request because the
// object does not exist or is not shared with the integration.
func (e *APIError) IsNotFound() bool {
	return e.Status == 404 || e.Code == "object_not_found"
}

// CreatePageRequest is the body of a create page call
type CreatePageRequest struct {
	Parent     Parent                   `json:"parent"`
	Properties map[string]PropertyValue `json:"properties"`
}

// UpdatePageRequest is the body of an update page call
type UpdatePageRequest struct {
	Properties map[string]PropertyValue `json:"properties"`
}
