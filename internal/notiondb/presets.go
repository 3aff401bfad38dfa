package notiondb

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/longkey1/kitlend/internal/notion"
)

// DateRange is the application form of a date value. Empty strings stand
// for missing bounds.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func dateRangeOf(d *notion.DateRange) DateRange {
	if d == nil {
		return DateRange{}
	}
	r := DateRange{Start: d.Start}
	if d.End != nil {
		r.End = *d.End
	}
	return r
}

func stringOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Raw decodes to the wire value itself. For writable kinds the value is
// written back unchanged.
func Raw[V notion.Value]() Def[V, V] {
	d := Def[V, V]{
		dec: func(v V, _, _ string) (V, error) { return v, nil },
	}
	var zero V
	if zero.Kind().Writable() {
		d.enc = func(v V) (V, error) { return v, nil }
	}
	return d
}

// Custom builds a read-only definition from a decode function
func Custom[V notion.Value, T any](decode func(v V, option, pageID string) (T, error)) Def[V, T] {
	return Def[V, T]{dec: decode}
}

// CustomWritable builds a definition from a decode and an encode function
func CustomWritable[V notion.Value, T any](decode func(v V, option, pageID string) (T, error), encode func(v T) (V, error)) Def[V, T] {
	return Def[V, T]{dec: decode, enc: encode}
}

// TitlePlainText reads the concatenated plain text of a title
func TitlePlainText() Def[notion.Title, string] {
	return Def[notion.Title, string]{
		dec: func(v notion.Title, _, _ string) (string, error) {
			return notion.PlainText(v), nil
		},
		enc: func(s string) (notion.Title, error) {
			return notion.Title(notion.TextRuns(s)), nil
		},
	}
}

// RichTextPlainText reads the concatenated plain text of a rich text
// property. Formatting is dropped, so only the text survives a write.
func RichTextPlainText() Def[notion.RichTexts, string] {
	return Def[notion.RichTexts, string]{
		dec: func(v notion.RichTexts, _, _ string) (string, error) {
			return notion.PlainText(v), nil
		},
		enc: func(s string) (notion.RichTexts, error) {
			return notion.RichTexts(notion.TextRuns(s)), nil
		},
	}
}

// NumberDefaultZero reads a number, 0 when empty
func NumberDefaultZero() Def[notion.Number, float64] {
	return Def[notion.Number, float64]{
		dec: func(v notion.Number, _, _ string) (float64, error) {
			if v.Value == nil {
				return 0, nil
			}
			return *v.Value, nil
		},
		enc: func(n float64) (notion.Number, error) {
			return notion.Number{Value: &n}, nil
		},
	}
}

// CheckboxBool reads a checkbox
func CheckboxBool() Def[notion.Checkbox, bool] {
	return Def[notion.Checkbox, bool]{
		dec: func(v notion.Checkbox, _, _ string) (bool, error) { return bool(v), nil },
		enc: func(b bool) (notion.Checkbox, error) { return notion.Checkbox(b), nil },
	}
}

func optionName(o *notion.SelectOption) string {
	if o == nil {
		return ""
	}
	return o.Name
}

func optionOf(name string) *notion.SelectOption {
	if name == "" {
		return nil
	}
	return &notion.SelectOption{Name: name}
}

func checkEnum(name string, allowed []string) error {
	if !slices.Contains(allowed, name) {
		return newError(CodeInvalidEnumValue, "", "%q is not one of %s", name, strings.Join(allowed, ", "))
	}
	return nil
}

// SelectString reads the selected option name, "" when empty
func SelectString() Def[notion.Select, string] {
	return Def[notion.Select, string]{
		dec: func(v notion.Select, _, _ string) (string, error) {
			return optionName(v.Option), nil
		},
		enc: func(s string) (notion.Select, error) {
			return notion.Select{Option: optionOf(s)}, nil
		},
	}
}

// SelectEnum reads the selected option name and fails with
// InvalidEnumValue unless it is one of allowed. An empty select fails too.
func SelectEnum(allowed ...string) Def[notion.Select, string] {
	return Def[notion.Select, string]{
		dec: func(v notion.Select, _, _ string) (string, error) {
			name := optionName(v.Option)
			if err := checkEnum(name, allowed); err != nil {
				return "", err
			}
			return name, nil
		},
		enc: func(s string) (notion.Select, error) {
			if err := checkEnum(s, allowed); err != nil {
				return notion.Select{}, err
			}
			return notion.Select{Option: optionOf(s)}, nil
		},
	}
}

// StatusString reads the status name, "" when empty
func StatusString() Def[notion.Status, string] {
	return Def[notion.Status, string]{
		dec: func(v notion.Status, _, _ string) (string, error) {
			return optionName(v.Option), nil
		},
		enc: func(s string) (notion.Status, error) {
			return notion.Status{Option: optionOf(s)}, nil
		},
	}
}

// StatusEnum reads the status name and fails with InvalidEnumValue unless
// it is one of allowed
func StatusEnum(allowed ...string) Def[notion.Status, string] {
	return Def[notion.Status, string]{
		dec: func(v notion.Status, _, _ string) (string, error) {
			name := optionName(v.Option)
			if err := checkEnum(name, allowed); err != nil {
				return "", err
			}
			return name, nil
		},
		enc: func(s string) (notion.Status, error) {
			if err := checkEnum(s, allowed); err != nil {
				return notion.Status{}, err
			}
			return notion.Status{Option: optionOf(s)}, nil
		},
	}
}

// StatusOptionalEnum is StatusEnum that accepts an empty status as ""
func StatusOptionalEnum(allowed ...string) Def[notion.Status, string] {
	return Def[notion.Status, string]{
		dec: func(v notion.Status, _, _ string) (string, error) {
			name := optionName(v.Option)
			if name == "" {
				return "", nil
			}
			if err := checkEnum(name, allowed); err != nil {
				return "", err
			}
			return name, nil
		},
		enc: func(s string) (notion.Status, error) {
			if s != "" {
				if err := checkEnum(s, allowed); err != nil {
					return notion.Status{}, err
				}
			}
			return notion.Status{Option: optionOf(s)}, nil
		},
	}
}

func multiSelectNames(v notion.MultiSelect) []string {
	names := make([]string, 0, len(v))
	for _, option := range v {
		names = append(names, option.Name)
	}
	return names
}

func multiSelectOf(names []string) notion.MultiSelect {
	options := make(notion.MultiSelect, 0, len(names))
	for _, name := range names {
		options = append(options, notion.SelectOption{Name: name})
	}
	return options
}

// MultiSelectStrings reads the option names in wire order
func MultiSelectStrings() Def[notion.MultiSelect, []string] {
	return Def[notion.MultiSelect, []string]{
		dec: func(v notion.MultiSelect, _, _ string) ([]string, error) {
			return multiSelectNames(v), nil
		},
		enc: func(names []string) (notion.MultiSelect, error) {
			return multiSelectOf(names), nil
		},
	}
}

// MultiSelectEnum reads the option names in wire order and fails with
// InvalidEnumValue if any of them is not one of allowed
func MultiSelectEnum(allowed ...string) Def[notion.MultiSelect, []string] {
	return Def[notion.MultiSelect, []string]{
		dec: func(v notion.MultiSelect, _, _ string) ([]string, error) {
			names := multiSelectNames(v)
			for _, name := range names {
				if err := checkEnum(name, allowed); err != nil {
					return nil, err
				}
			}
			return names, nil
		},
		enc: func(names []string) (notion.MultiSelect, error) {
			for _, name := range names {
				if err := checkEnum(name, allowed); err != nil {
					return nil, err
				}
			}
			return multiSelectOf(names), nil
		},
	}
}

// DateRangeValue reads a date property; empty dates read as an empty range.
// Writing a range with an empty start clears the property.
func DateRangeValue() Def[notion.Date, DateRange] {
	return Def[notion.Date, DateRange]{
		dec: func(v notion.Date, _, _ string) (DateRange, error) {
			return dateRangeOf(v.Range), nil
		},
		enc: func(r DateRange) (notion.Date, error) {
			if r.Start == "" {
				return notion.Date{}, nil
			}
			return notion.Date{Range: &notion.DateRange{Start: r.Start, End: stringPtr(r.End)}}, nil
		},
	}
}

// EmailString reads an email, "" when empty
func EmailString() Def[notion.Email, string] {
	return Def[notion.Email, string]{
		dec: func(v notion.Email, _, _ string) (string, error) { return stringOf(v.Value), nil },
		enc: func(s string) (notion.Email, error) { return notion.Email{Value: stringPtr(s)}, nil },
	}
}

// PhoneNumberString reads a phone number, "" when empty
func PhoneNumberString() Def[notion.PhoneNumber, string] {
	return Def[notion.PhoneNumber, string]{
		dec: func(v notion.PhoneNumber, _, _ string) (string, error) { return stringOf(v.Value), nil },
		enc: func(s string) (notion.PhoneNumber, error) { return notion.PhoneNumber{Value: stringPtr(s)}, nil },
	}
}

// URLString reads a url, "" when empty
func URLString() Def[notion.URL, string] {
	return Def[notion.URL, string]{
		dec: func(v notion.URL, _, _ string) (string, error) { return stringOf(v.Value), nil },
		enc: func(s string) (notion.URL, error) { return notion.URL{Value: stringPtr(s)}, nil },
	}
}

// RelationIDs reads the ids of the related pages
func RelationIDs() Def[notion.Relations, []string] {
	return Def[notion.Relations, []string]{
		dec: func(v notion.Relations, _, _ string) ([]string, error) {
			ids := make([]string, 0, len(v))
			for _, r := range v {
				ids = append(ids, r.ID)
			}
			return ids, nil
		},
		enc: func(ids []string) (notion.Relations, error) {
			relations := make(notion.Relations, 0, len(ids))
			for _, id := range ids {
				relations = append(relations, notion.Relation{ID: id})
			}
			return relations, nil
		},
	}
}

// RelationID reads the id of the first related page, "" when there is none
func RelationID() Def[notion.Relations, string] {
	return Def[notion.Relations, string]{
		dec: func(v notion.Relations, _, _ string) (string, error) {
			if len(v) == 0 {
				return "", nil
			}
			return v[0].ID, nil
		},
		enc: func(id string) (notion.Relations, error) {
			if id == "" {
				return notion.Relations{}, nil
			}
			return notion.Relations{{ID: id}}, nil
		},
	}
}

// PeopleNames reads the names of the people
func PeopleNames() Def[notion.People, []string] {
	return Custom(func(v notion.People, _, _ string) ([]string, error) {
		names := make([]string, 0, len(v))
		for _, person := range v {
			names = append(names, person.Name)
		}
		return names, nil
	})
}

// CreatedByName reads the creator's name
func CreatedByName() Def[notion.CreatedBy, string] {
	return Custom(func(v notion.CreatedBy, _, _ string) (string, error) { return v.Name, nil })
}

// LastEditedByName reads the last editor's name
func LastEditedByName() Def[notion.LastEditedBy, string] {
	return Custom(func(v notion.LastEditedBy, _, _ string) (string, error) { return v.Name, nil })
}

// CreatedTimeString reads the creation timestamp as sent by the API
func CreatedTimeString() Def[notion.CreatedTime, string] {
	return Custom(func(v notion.CreatedTime, _, _ string) (string, error) { return string(v), nil })
}

// LastEditedTimeString reads the last edit timestamp as sent by the API
func LastEditedTimeString() Def[notion.LastEditedTime, string] {
	return Custom(func(v notion.LastEditedTime, _, _ string) (string, error) { return string(v), nil })
}

// FileURLs reads the URL of every attachment. Attachments with neither a
// hosted file nor an external URL are skipped.
func FileURLs() Def[notion.Files, []string] {
	return Custom(func(v notion.Files, _, _ string) ([]string, error) {
		urls := make([]string, 0, len(v))
		for _, f := range v {
			if u := f.URL(); u != "" {
				urls = append(urls, u)
			}
		}
		return urls, nil
	})
}

// FileURL reads the URL of the first attachment, "" when there is none
func FileURL() Def[notion.Files, string] {
	return Custom(func(v notion.Files, _, _ string) (string, error) {
		if len(v) == 0 {
			return "", nil
		}
		return v[0].URL(), nil
	})
}

// FileImageURLs reads every hosted attachment as a Notion image proxy URL.
// Pre-signed URLs expire; the proxy form does not. External attachments
// are skipped.
func FileImageURLs() Def[notion.Files, []string] {
	return Custom(func(v notion.Files, _, pageID string) ([]string, error) {
		urls := make([]string, 0, len(v))
		for _, f := range v {
			if f.File != nil {
				urls = append(urls, ImageProxyURL(pageID, f.File.URL))
			}
		}
		return urls, nil
	})
}

// FileImageURL reads the first attachment as a Notion image proxy URL,
// "" when it is missing or not hosted
func FileImageURL() Def[notion.Files, string] {
	return Custom(func(v notion.Files, _, pageID string) (string, error) {
		if len(v) == 0 || v[0].File == nil {
			return "", nil
		}
		return ImageProxyURL(pageID, v[0].File.URL), nil
	})
}

// ImageProxyURL rewrites a pre-signed file URL into the stable image proxy
// URL of the page that owns it.
func ImageProxyURL(pageID, presignedURL string) string {
	base, _, _ := strings.Cut(presignedURL, "?")
	return "https://www.notion.so/image/" + encodeURIComponent(base) + "?id=" + pageID + "&table=block"
}

var uriComponentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes s like the ECMAScript function of that name
func encodeURIComponent(s string) string {
	return uriComponentUnescapes.Replace(url.QueryEscape(s))
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// FormulaString reads any formula result as a string: numbers in shortest
// form, booleans as "true"/"false", dates as their start. Empty results
// read as "".
func FormulaString() Def[notion.Formula, string] {
	return Custom(func(v notion.Formula, _, _ string) (string, error) {
		switch v.Type {
		case notion.FormulaString:
			return stringOf(v.String), nil
		case notion.FormulaNumber:
			if v.Number == nil {
				return "", nil
			}
			return formatNumber(*v.Number), nil
		case notion.FormulaBoolean:
			if v.Boolean != nil && *v.Boolean {
				return "true", nil
			}
			return "false", nil
		case notion.FormulaDate:
			return dateRangeOf(v.Date).Start, nil
		}
		return "", nil
	})
}

// FormulaBooleanDefaultFalse reads a boolean formula, false for any other result
func FormulaBooleanDefaultFalse() Def[notion.Formula, bool] {
	return Custom(func(v notion.Formula, _, _ string) (bool, error) {
		if v.Type != notion.FormulaBoolean || v.Boolean == nil {
			return false, nil
		}
		return *v.Boolean, nil
	})
}

// FormulaNumberDefaultZero reads a number formula, 0 for any other result
func FormulaNumberDefaultZero() Def[notion.Formula, float64] {
	return Custom(func(v notion.Formula, _, _ string) (float64, error) {
		if v.Type != notion.FormulaNumber || v.Number == nil {
			return 0, nil
		}
		return *v.Number, nil
	})
}

// FormulaDateRange reads a date formula, an empty range for any other result
func FormulaDateRange() Def[notion.Formula, DateRange] {
	return Custom(func(v notion.Formula, _, _ string) (DateRange, error) {
		if v.Type != notion.FormulaDate {
			return DateRange{}, nil
		}
		return dateRangeOf(v.Date), nil
	})
}

func rollupShapeError(want string, v notion.Rollup) error {
	return newError(CodeUnsupportedRollupShape, "", "want %s rollup, got %q", want, v.Type)
}

// RollupDateRange reads a date rollup; an empty date reads as an empty
// range. Other rollup variants fail with UnsupportedRollupShape; they are
// not substituted with an empty range.
func RollupDateRange() Def[notion.Rollup, DateRange] {
	return Custom(func(v notion.Rollup, _, _ string) (DateRange, error) {
		if v.Type != notion.RollupDate {
			return DateRange{}, rollupShapeError(notion.RollupDate, v)
		}
		return dateRangeOf(v.Date), nil
	})
}

// RollupNumberDefaultZero reads a number rollup; an empty number reads
// as 0. Other rollup variants fail with UnsupportedRollupShape; unlike the
// formula presets they are not substituted with 0.
func RollupNumberDefaultZero() Def[notion.Rollup, float64] {
	return Custom(func(v notion.Rollup, _, _ string) (float64, error) {
		if v.Type != notion.RollupNumber {
			return 0, rollupShapeError(notion.RollupNumber, v)
		}
		if v.Number == nil {
			return 0, nil
		}
		return *v.Number, nil
	})
}

// RollupArray passes the items of an array rollup to handle. Other rollup
// variants fail with UnsupportedRollupShape.
func RollupArray[T any](handle func(items []notion.PropertyValue) (T, error)) Def[notion.Rollup, T] {
	return Custom(func(v notion.Rollup, _, _ string) (T, error) {
		if v.Type != notion.RollupArray {
			var zero T
			return zero, rollupShapeError(notion.RollupArray, v)
		}
		return handle(v.Array)
	})
}

// RollupDateRanges collects the date items of an array rollup in order,
// skipping items of any other kind
func RollupDateRanges() Def[notion.Rollup, []DateRange] {
	return RollupArray(func(items []notion.PropertyValue) ([]DateRange, error) {
		ranges := make([]DateRange, 0, len(items))
		for _, item := range items {
			if d, ok := item.Value.(notion.Date); ok && d.Range != nil {
				ranges = append(ranges, dateRangeOf(d.Range))
			}
		}
		return ranges, nil
	})
}

// UniqueIDNumber reads the number of a unique id
func UniqueIDNumber() Def[notion.UniqueID, int] {
	return Custom(func(v notion.UniqueID, _, _ string) (int, error) {
		if v.Number == nil {
			return 0, nil
		}
		return *v.Number, nil
	})
}

// UniqueIDString reads a unique id as "PREFIX-NUMBER", or "NUMBER" when
// the property has no prefix
func UniqueIDString() Def[notion.UniqueID, string] {
	return Custom(func(v notion.UniqueID, _, _ string) (string, error) {
		n := 0
		if v.Number != nil {
			n = *v.Number
		}
		if prefix := stringOf(v.Prefix); prefix != "" {
			return prefix + "-" + strconv.Itoa(n), nil
		}
		return strconv.Itoa(n), nil
	})
}
