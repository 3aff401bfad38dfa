package lending

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/longkey1/kitlend/internal/sanity"
)

const activeFilter = `status in ["passed", "in-use", "exception"]`

const availableNow = `"availableNow": count(
    *[_type == "reservation" &&
      kit._ref == ^._id &&
      startDate <= $today &&
      endDate >= $today &&
      ` + activeFilter + `]
  ) == 0`

const kitsQuery = `*[_type == "kit" && !(_id in path("drafts.**"))] | order(serial asc) {
  _id, serial, name, description, type, "tags": coalesce(tags, []), status, cover,
  ` + availableNow + `
}`

const kitProjection = `{
  _id, serial, name, description, images, rules, type, "tags": coalesce(tags, []), status, cover,
  ` + availableNow + `
}`

const kitQuery = `{
  "kit": *[_type == "kit" && !(_id in path("drafts.**")) && _id == $id][0] ` + kitProjection + `,
  "reservations": *[_type == "reservation" &&
                    !(_id in path("drafts.**")) &&
                    kit._ref == $id &&
                    ` + activeFilter + `] { startDate, endDate }
}`

const kitBySerialQuery = `*[_type == "kit" && !(_id in path("drafts.**")) && serial == $serial][0]._id`

const settingsQuery = `*[_id == "settings"][0]`

type sanityKit struct {
	ID           string         `json:"_id"`
	Serial       int            `json:"serial"`
	Name         string         `json:"name"`
	Description  []sanity.Block `json:"description"`
	Type         string         `json:"type"`
	Tags         []string       `json:"tags"`
	Status       string         `json:"status"`
	Cover        *sanity.Image  `json:"cover"`
	Images       []sanity.Image `json:"images"`
	Rules        []sanity.Block `json:"rules"`
	AvailableNow bool           `json:"availableNow"`
}

// SanityCatalog serves the catalog from a Sanity dataset
type SanityCatalog struct {
	client *sanity.Client
}

// NewSanityCatalog creates a catalog over a Sanity client
func NewSanityCatalog(client *sanity.Client) *SanityCatalog {
	return &SanityCatalog{client: client}
}

func (c *SanityCatalog) overview(k sanityKit) KitOverview {
	overview := KitOverview{
		ID:           k.ID,
		Serial:       k.Serial,
		Name:         k.Name,
		Description:  sanity.PlainText(k.Description),
		Type:         k.Type,
		Tags:         k.Tags,
		Status:       k.Status,
		AvailableNow: k.AvailableNow,
	}
	if overview.Tags == nil {
		overview.Tags = []string{}
	}
	if k.Cover != nil {
		overview.Cover = c.client.ImageURL(*k.Cover)
	}
	return overview
}

// Kits implements Catalog
func (c *SanityCatalog) Kits(ctx context.Context, today string) ([]KitOverview, error) {
	var result []sanityKit
	if err := c.client.Query(ctx, kitsQuery, map[string]any{"today": today}, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch kits: %w", err)
	}
	kits := make([]KitOverview, 0, len(result))
	for _, k := range result {
		kits = append(kits, c.overview(k))
	}
	return kits, nil
}

// Kit implements Catalog
func (c *SanityCatalog) Kit(ctx context.Context, id, today string) (*KitDetail, error) {
	var result struct {
		Kit          *sanityKit        `json:"kit"`
		Reservations []ReservationSlot `json:"reservations"`
	}
	if err := c.client.Query(ctx, kitQuery, map[string]any{"id": id, "today": today}, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch kit: %w", err)
	}
	if result.Kit == nil {
		return nil, fmt.Errorf("kit %s: %w", id, ErrNotFound)
	}

	kit := Kit{
		KitOverview: c.overview(*result.Kit),
		Images:      make([]string, 0, len(result.Kit.Images)),
		Rules:       sanity.PlainText(result.Kit.Rules),
		Content:     make(Document, 0, len(result.Kit.Description)),
	}
	for _, img := range result.Kit.Images {
		if u := c.client.ImageURL(img); u != "" {
			kit.Images = append(kit.Images, u)
		}
	}
	for _, block := range result.Kit.Description {
		kit.Content = append(kit.Content, block.Raw)
	}
	reservations := result.Reservations
	if reservations == nil {
		reservations = []ReservationSlot{}
	}
	return &KitDetail{Kit: kit, Reservations: reservations}, nil
}

// KitBySerial implements Catalog
func (c *SanityCatalog) KitBySerial(ctx context.Context, serial int, today string) (*KitDetail, error) {
	var id *string
	if err := c.client.Query(ctx, kitBySerialQuery, map[string]any{"serial": serial}, &id); err != nil {
		return nil, fmt.Errorf("failed to fetch kit: %w", err)
	}
	if id == nil {
		return nil, fmt.Errorf("kit #%d: %w", serial, ErrNotFound)
	}
	return c.Kit(ctx, *id, today)
}

// Reserve implements Catalog
func (c *SanityCatalog) Reserve(ctx context.Context, r Reservation) (string, error) {
	id, err := c.client.Create(ctx, map[string]any{
		"_type":     "reservation",
		"kit":       sanity.Reference{Type: "reference", Ref: r.KitID},
		"name":      r.Name,
		"email":     r.Email,
		"wechat":    r.Wechat,
		"startDate": r.StartDate,
		"endDate":   r.EndDate,
		"project":   r.Project,
		"usage":     r.Usage,
		"status":    StatusPending,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create reservation: %w", err)
	}
	return id, nil
}

func (c *SanityCatalog) settings(ctx context.Context) (map[string]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := c.client.Query(ctx, settingsQuery, nil, &doc); err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return doc, nil
}

// Text implements Catalog. Texts are portable text fields of the settings
// document.
func (c *SanityCatalog) Text(ctx context.Context, name string) (Document, error) {
	doc, err := c.settings(ctx)
	if err != nil {
		return nil, err
	}
	raw, ok := doc[name]
	if !ok || strings.HasPrefix(name, "_") || string(raw) == "null" {
		return nil, fmt.Errorf("text %s: %w", name, ErrNotFound)
	}
	var blocks Document
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, fmt.Errorf("text %s is not portable text: %w", name, err)
	}
	return blocks, nil
}

// Settings implements Catalog. String fields are returned as they are and
// portable text fields as plain text; system and other fields are skipped.
func (c *SanityCatalog) Settings(ctx context.Context) (map[string]string, error) {
	doc, err := c.settings(ctx)
	if err != nil {
		return nil, err
	}
	settings := make(map[string]string, len(doc))
	for key, raw := range doc {
		if strings.HasPrefix(key, "_") {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			settings[key] = s
			continue
		}
		var blocks []sanity.Block
		if err := json.Unmarshal(raw, &blocks); err == nil {
			settings[key] = sanity.PlainText(blocks)
		}
	}
	return settings, nil
}
