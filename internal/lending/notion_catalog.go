package lending

import (
	"context"
	"fmt"

	"github.com/longkey1/kitlend/internal/notion"
	"github.com/longkey1/kitlend/internal/notiondb"
)

const contentField = "content"

var reservationStatuses = []string{StatusPending, StatusPassed, StatusInUse, StatusException, StatusReturned, StatusRejected}

func kitFields() notiondb.Schema {
	return notiondb.Schema{
		"id":          notiondb.ID(),
		"Serial":      notiondb.UniqueIDNumber(),
		"Name":        notiondb.TitlePlainText(),
		"Description": notiondb.RichTextPlainText(),
		"Type":        notiondb.SelectString(),
		"Tags":        notiondb.MultiSelectStrings(),
		"Status":      notiondb.StatusString(),
		"Cover__img":  notiondb.FileImageURL(),
		"Published":   notiondb.CheckboxBool(),
	}
}

func kitDetailFields() notiondb.Schema {
	s := kitFields()
	s["Images__img"] = notiondb.FileImageURLs()
	s["Rules"] = notiondb.RichTextPlainText()
	return s
}

// Schemas are the Notion databases of the lending site. Each lives under
// the root page as a child database titled with the configured prefix,
// e.g. "db: kits".
var Schemas = notiondb.NewSchemas(notiondb.Schemas{
	"kits":         kitFields(),
	"kits__detail": kitDetailFields(),
	"reservations": {
		"id":      notiondb.ID(),
		"Name":    notiondb.TitlePlainText(),
		"Email":   notiondb.EmailString(),
		"Wechat":  notiondb.RichTextPlainText(),
		"Project": notiondb.RichTextPlainText(),
		"Usage":   notiondb.RichTextPlainText(),
		"Period":  notiondb.DateRangeValue(),
		"Kit":     notiondb.RelationID(),
		"Status":  notiondb.StatusOptionalEnum(reservationStatuses...),
	},
	"reservations__slot": {
		"Kit":    notiondb.RelationID(),
		"Period": notiondb.DateRangeValue(),
	},
	"texts": {
		"Title": notiondb.TitlePlainText(),
	},
	"settings": {
		"Key":   notiondb.TitlePlainText(),
		"Value": notiondb.RichTextPlainText(),
	},
})

// NotionCatalog serves the catalog from Notion databases
type NotionCatalog struct {
	db *notiondb.Client
}

// NewNotionCatalog creates a catalog over a client built with Schemas
func NewNotionCatalog(db *notiondb.Client) *NotionCatalog {
	return &NotionCatalog{db: db}
}

func activeStatusFilter() notion.Filter {
	or := make([]notion.Filter, 0, len(ActiveStatuses))
	for _, status := range ActiveStatuses {
		or = append(or, notion.Filter{Property: "Status", Status: &notion.OptionCondition{Equals: notion.Ptr(status)}})
	}
	return notion.Filter{Or: or}
}

func (c *NotionCatalog) slots(ctx context.Context, filters ...notion.Filter) (map[string][]ReservationSlot, error) {
	query := &notion.DatabaseQuery{
		Filter: &notion.Filter{And: append([]notion.Filter{activeStatusFilter()}, filters...)},
	}
	records, err := c.db.ListAll(ctx, "reservations__slot", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	slots := make(map[string][]ReservationSlot)
	for _, record := range records {
		var slot struct {
			Kit    string             `notion:"Kit"`
			Period notiondb.DateRange `notion:"Period"`
		}
		if err := record.Decode(&slot); err != nil {
			return nil, err
		}
		if slot.Period.Start == "" {
			continue
		}
		slots[slot.Kit] = append(slots[slot.Kit], ReservationSlot{StartDate: slot.Period.Start, EndDate: slot.Period.End})
	}
	return slots, nil
}

// Kits implements Catalog
func (c *NotionCatalog) Kits(ctx context.Context, today string) ([]KitOverview, error) {
	records, err := c.db.ListAll(ctx, "kits", &notion.DatabaseQuery{
		Filter: &notion.Filter{Property: "Published", Checkbox: &notion.CheckboxCondition{Equals: notion.Ptr(true)}},
		Sorts:  []notion.Sort{{Property: "Serial", Direction: notion.Ascending}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list kits: %w", err)
	}

	slots, err := c.slots(ctx, notion.Filter{Property: "Period", Date: &notion.DateCondition{OnOrBefore: notion.Ptr(today)}})
	if err != nil {
		return nil, err
	}

	kits := make([]KitOverview, 0, len(records))
	for _, record := range records {
		var kit KitOverview
		if err := record.Decode(&kit); err != nil {
			return nil, err
		}
		kit.AvailableNow = AvailableOn(slots[kit.ID], today)
		kits = append(kits, kit)
	}
	return kits, nil
}

// Kit implements Catalog
func (c *NotionCatalog) Kit(ctx context.Context, id, today string) (*KitDetail, error) {
	record, err := c.db.GetWithContent(ctx, "kits__detail", id, contentField)
	if err != nil {
		return nil, notFound(err, "kit %s", id)
	}
	return c.detail(ctx, record, today)
}

// KitBySerial implements Catalog
func (c *NotionCatalog) KitBySerial(ctx context.Context, serial int, today string) (*KitDetail, error) {
	record, err := c.db.GetBySequenceNumber(ctx, "kits__detail", serial, contentField)
	if err != nil {
		return nil, notFound(err, "kit #%d", serial)
	}
	return c.detail(ctx, record, today)
}

func (c *NotionCatalog) detail(ctx context.Context, record notiondb.Record, today string) (*KitDetail, error) {
	var kit struct {
		Kit       `notion:",squash"`
		Published bool `notion:"Published"`
	}
	if err := record.Decode(&kit); err != nil {
		return nil, err
	}
	if !kit.Published {
		return nil, fmt.Errorf("kit %s is not published: %w", kit.ID, ErrNotFound)
	}
	blocks, err := notiondb.Get[[]notion.Block](record, contentField)
	if err != nil {
		return nil, err
	}
	kit.Content = documentOf(blocks)

	slots, err := c.slots(ctx, notion.Filter{Property: "Kit", Relation: &notion.ListCondition{Contains: notion.Ptr(kit.ID)}})
	if err != nil {
		return nil, err
	}
	reserved := slots[kit.ID]
	if reserved == nil {
		reserved = []ReservationSlot{}
	}
	kit.AvailableNow = AvailableOn(reserved, today)
	return &KitDetail{Kit: kit.Kit, Reservations: reserved}, nil
}

// Reserve implements Catalog
func (c *NotionCatalog) Reserve(ctx context.Context, r Reservation) (string, error) {
	record, err := c.db.Insert(ctx, "reservations", map[string]any{
		"Name":    r.Name,
		"Email":   r.Email,
		"Wechat":  r.Wechat,
		"Project": r.Project,
		"Usage":   r.Usage,
		"Period":  notiondb.DateRange{Start: r.StartDate, End: r.EndDate},
		"Kit":     r.KitID,
		"Status":  StatusPending,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create reservation: %w", err)
	}
	return notiondb.Get[string](record, "id")
}

// Text implements Catalog
func (c *NotionCatalog) Text(ctx context.Context, name string) (Document, error) {
	blocks, err := c.db.TextBlocksByTitle(ctx, "texts", name)
	if err != nil {
		return nil, notFound(err, "text %s", name)
	}
	return documentOf(blocks), nil
}

// Settings implements Catalog
func (c *NotionCatalog) Settings(ctx context.Context) (map[string]string, error) {
	settings, err := notiondb.KeyValueOf[string](ctx, c.db, "settings", "Key", "Value")
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	return settings, nil
}

func documentOf(blocks []notion.Block) Document {
	doc := make(Document, 0, len(blocks))
	for _, block := range blocks {
		doc = append(doc, block.Raw())
	}
	return doc
}

// notFound maps provider and lookup misses to ErrNotFound and leaves other
// errors as they are
func notFound(err error, format string, args ...any) error {
	if notiondb.IsNotFound(err) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return err
}
