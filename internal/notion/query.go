package notion

// DatabaseQuery is the body of a database query
type DatabaseQuery struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

// Filter is a database filter. Either Property plus exactly one
// condition, or a compound And/Or list.
type Filter struct {
	Property    string             `json:"property,omitempty"`
	Title       *TextCondition     `json:"title,omitempty"`
	RichText    *TextCondition     `json:"rich_text,omitempty"`
	Number      *NumberCondition   `json:"number,omitempty"`
	UniqueID    *NumberCondition   `json:"unique_id,omitempty"`
	Checkbox    *CheckboxCondition `json:"checkbox,omitempty"`
	Select      *OptionCondition   `json:"select,omitempty"`
	Status      *OptionCondition   `json:"status,omitempty"`
	MultiSelect *ListCondition     `json:"multi_select,omitempty"`
	Relation    *ListCondition     `json:"relation,omitempty"`
	Date        *DateCondition     `json:"date,omitempty"`
	And         []Filter           `json:"and,omitempty"`
	Or          []Filter           `json:"or,omitempty"`
}

// TextCondition filters title and rich_text properties
type TextCondition struct {
	Equals         *string `json:"equals,omitempty"`
	DoesNotEqual   *string `json:"does_not_equal,omitempty"`
	Contains       *string `json:"contains,omitempty"`
	DoesNotContain *string `json:"does_not_contain,omitempty"`
	StartsWith     *string `json:"starts_with,omitempty"`
	IsEmpty        bool    `json:"is_empty,omitempty"`
	IsNotEmpty     bool    `json:"is_not_empty,omitempty"`
}

// NumberCondition filters number and unique_id properties
type NumberCondition struct {
	Equals               *float64 `json:"equals,omitempty"`
	DoesNotEqual         *float64 `json:"does_not_equal,omitempty"`
	GreaterThan          *float64 `json:"greater_than,omitempty"`
	LessThan             *float64 `json:"less_than,omitempty"`
	GreaterThanOrEqualTo *float64 `json:"greater_than_or_equal_to,omitempty"`
	LessThanOrEqualTo    *float64 `json:"less_than_or_equal_to,omitempty"`
}

// CheckboxCondition filters checkbox properties
type CheckboxCondition struct {
	Equals *bool `json:"equals,omitempty"`
}

// OptionCondition filters select and status properties
type OptionCondition struct {
	Equals       *string `json:"equals,omitempty"`
	DoesNotEqual *string `json:"does_not_equal,omitempty"`
	IsEmpty      bool    `json:"is_empty,omitempty"`
	IsNotEmpty   bool    `json:"is_not_empty,omitempty"`
}

// ListCondition filters multi_select and relation properties
type ListCondition struct {
	Contains       *string `json:"contains,omitempty"`
	DoesNotContain *string `json:"does_not_contain,omitempty"`
	IsEmpty        bool    `json:"is_empty,omitempty"`
	IsNotEmpty     bool    `json:"is_not_empty,omitempty"`
}

// DateCondition filters date properties. Dates are ISO 8601 strings.
type DateCondition struct {
	Equals     *string `json:"equals,omitempty"`
	Before     *string `json:"before,omitempty"`
	After      *string `json:"after,omitempty"`
	OnOrBefore *string `json:"on_or_before,omitempty"`
	OnOrAfter  *string `json:"on_or_after,omitempty"`
}

// Sort directions
const (
	Ascending  = "ascending"
	Descending = "descending"
)

// Sort orders query results by a property or a timestamp
type Sort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Direction string `json:"direction"`
}

// Ptr returns a pointer to v, for filling optional filter fields
func Ptr[T any](v T) *T {
	return &v
}
