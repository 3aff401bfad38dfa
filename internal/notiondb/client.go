package notiondb

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/longkey1/kitlend/internal/notion"
)

// DefaultPrefix is the title prefix marking the databases a Client reads
const DefaultPrefix = "db: "

// Provider is the subset of the Notion API the client needs
type Provider interface {
	BlockLister
	RetrievePage(ctx context.Context, pageID string) (*notion.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, query *notion.DatabaseQuery) (*notion.PageList, error)
	CreatePage(ctx context.Context, req *notion.CreatePageRequest) (*notion.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notion.UpdatePageRequest) (*notion.Page, error)
}

// Config configures a Client
type Config struct {
	// RootPageID is the page holding the databases as child blocks
	RootPageID string
	// Prefix marks the child databases to register; DefaultPrefix when empty
	Prefix string
	Logger *zap.Logger
}

// Client reads and writes typed records in the databases under one root page
type Client struct {
	provider Provider
	schemas  Schemas
	cache    *ContainerCache
	logger   *zap.Logger
}

// New creates a client over provider for the given schemas
func New(provider Provider, schemas Schemas, cfg Config) *Client {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider: provider,
		schemas:  schemas,
		cache:    NewContainerCache(provider, notion.ExtractID(cfg.RootPageID), prefix),
		logger:   logger,
	}
}

// Cache returns the client's container cache
func (c *Client) Cache() *ContainerCache {
	return c.cache
}

func (c *Client) schema(recordType string) (Schema, error) {
	s, ok := c.schemas[recordType]
	if !ok {
		return nil, newError(CodeUnknownRecordType, "", "no schema for %q", recordType)
	}
	return s, nil
}

// withContainer resolves the database of recordType and runs fn with its
// id. Any failure empties the container cache before it is returned.
func withContainer[R any](ctx context.Context, c *Client, recordType string, fn func(databaseID string) (R, error)) (R, error) {
	name := ContainerName(recordType)
	result, err := func() (R, error) {
		id, err := c.cache.Resolve(ctx, name)
		if err != nil {
			var zero R
			return zero, err
		}
		c.logger.Debug("resolved database", zap.String("name", name), zap.String("id", id))
		return fn(id)
	}()
	if err != nil {
		c.logger.Warn("invalidating database cache", zap.String("name", name), zap.Error(err))
		c.cache.Invalidate()
	}
	return result, err
}

func decodePages(pages []notion.Page, schema Schema) ([]Record, error) {
	records := make([]Record, 0, len(pages))
	for i := range pages {
		if !pages[i].IsFull() {
			return nil, newError(CodePartialPageResult, "", "result %d (%s) is not a full page", i, pages[i].ID)
		}
	}
	for i := range pages {
		record, err := DecodeRecord(&pages[i], schema)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func decodePage(page *notion.Page, schema Schema) (Record, error) {
	if !page.IsFull() {
		id := ""
		if page != nil {
			id = page.ID
		}
		return nil, newError(CodeNotFullPage, "", "page %s is not a full page", id)
	}
	return DecodeRecord(page, schema)
}

// List returns the records of one result page of a database query. The
// query is sent as given; nil queries the first page unfiltered.
func (c *Client) List(ctx context.Context, recordType string, query *notion.DatabaseQuery) ([]Record, error) {
	schema, err := c.schema(recordType)
	if err != nil {
		return nil, err
	}
	return withContainer(ctx, c, recordType, func(databaseID string) ([]Record, error) {
		list, err := c.provider.QueryDatabase(ctx, databaseID, query)
		if err != nil {
			return nil, err
		}
		return decodePages(list.Results, schema)
	})
}

// ListAll is List following the result cursor to the last page
func (c *Client) ListAll(ctx context.Context, recordType string, query *notion.DatabaseQuery) ([]Record, error) {
	schema, err := c.schema(recordType)
	if err != nil {
		return nil, err
	}
	q := notion.DatabaseQuery{}
	if query != nil {
		q = *query
	}
	return withContainer(ctx, c, recordType, func(databaseID string) ([]Record, error) {
		var records []Record
		for {
			list, err := c.provider.QueryDatabase(ctx, databaseID, &q)
			if err != nil {
				return nil, err
			}
			page, err := decodePages(list.Results, schema)
			if err != nil {
				return nil, err
			}
			records = append(records, page...)
			if !list.HasMore || list.NextCursor == nil {
				return records, nil
			}
			q.StartCursor = *list.NextCursor
		}
	})
}

// Get returns the record with the given page id
func (c *Client) Get(ctx context.Context, recordType, id string) (Record, error) {
	schema, err := c.schema(recordType)
	if err != nil {
		return nil, err
	}
	page, err := c.provider.RetrievePage(ctx, id)
	if err != nil {
		return nil, err
	}
	return decodePage(page, schema)
}

// ContentBlocks returns the direct child blocks of a page, unmodified
func (c *Client) ContentBlocks(ctx context.Context, id string) ([]notion.Block, error) {
	blocks, err := c.provider.ListAllBlockChildren(ctx, id)
	if err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []notion.Block{}
	}
	return blocks, nil
}

// GetWithContent returns the record with the given page id, its content
// blocks stored under contentField. Both are fetched concurrently.
func (c *Client) GetWithContent(ctx context.Context, recordType, id, contentField string) (Record, error) {
	var (
		record Record
		blocks []notion.Block
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		record, err = c.Get(gctx, recordType, id)
		return err
	})
	g.Go(func() error {
		var err error
		blocks, err = c.ContentBlocks(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	record[contentField] = blocks
	return record, nil
}

// firstMatch queries the database of recordType with filter and returns
// the first result, failing with NotFound when there is none.
func (c *Client) firstMatch(ctx context.Context, databaseID string, filter *notion.Filter) (*notion.Page, error) {
	list, err := c.provider.QueryDatabase(ctx, databaseID, &notion.DatabaseQuery{Filter: filter})
	if err != nil {
		return nil, err
	}
	if len(list.Results) == 0 {
		return nil, newError(CodeNotFound, filter.Property, "no matching page")
	}
	return &list.Results[0], nil
}

// GetBySequenceNumber returns the record whose unique id has number n,
// its content blocks stored under contentField.
func (c *Client) GetBySequenceNumber(ctx context.Context, recordType string, n int, contentField string) (Record, error) {
	schema, err := c.schema(recordType)
	if err != nil {
		return nil, err
	}
	field, ok := schema.FieldOfKind(notion.KindUniqueID)
	if !ok {
		return nil, newError(CodeUnknownField, "", "%s has no %s field", recordType, notion.KindUniqueID)
	}
	property, _ := SplitField(field)

	return withContainer(ctx, c, recordType, func(databaseID string) (Record, error) {
		page, err := c.firstMatch(ctx, databaseID, &notion.Filter{
			Property: property,
			UniqueID: &notion.NumberCondition{Equals: notion.Ptr(float64(n))},
		})
		if err != nil {
			return nil, err
		}
		record, err := decodePage(page, schema)
		if err != nil {
			return nil, err
		}
		blocks, err := c.ContentBlocks(ctx, page.ID)
		if err != nil {
			return nil, err
		}
		record[contentField] = blocks
		return record, nil
	})
}

// TextBlocksByTitle returns the content blocks of the page whose title is
// exactly title. The page's properties are not decoded.
func (c *Client) TextBlocksByTitle(ctx context.Context, recordType, title string) ([]notion.Block, error) {
	schema, err := c.schema(recordType)
	if err != nil {
		return nil, err
	}
	field, ok := schema.FieldOfKind(notion.KindTitle)
	if !ok {
		return nil, newError(CodeUnknownField, "", "%s has no %s field", recordType, notion.KindTitle)
	}
	property, _ := SplitField(field)

	return withContainer(ctx, c, recordType, func(databaseID string) ([]notion.Block, error) {
		page, err := c.firstMatch(ctx, databaseID, &notion.Filter{
			Property: property,
			Title:    &notion.TextCondition{Equals: notion.Ptr(title)},
		})
		if err != nil {
			return nil, err
		}
		return c.ContentBlocks(ctx, page.ID)
	})
}

// KeyValue decodes every record of recordType and maps the value of
// keyField to the value of valueField. Later records overwrite earlier
// ones with the same key.
func (c *Client) KeyValue(ctx context.Context, recordType, keyField, valueField string) (map[string]any, error) {
	schema, err := c.schema(recordType)
	if err != nil {
		return nil, err
	}
	for _, f := range []string{keyField, valueField} {
		if _, ok := schema[f]; !ok {
			return nil, newError(CodeUnknownField, f, "field is not declared")
		}
	}

	records, err := c.ListAll(ctx, recordType, nil)
	if err != nil {
		return nil, err
	}
	result := make(map[string]any, len(records))
	for _, record := range records {
		key, ok := record[keyField].(string)
		if !ok {
			return nil, newError(CodeNonStringKey, keyField, "key is %T", record[keyField])
		}
		result[key] = record[valueField]
	}
	return result, nil
}

// KeyValueOf is KeyValue with values of type V
func KeyValueOf[V any](ctx context.Context, c *Client, recordType, keyField, valueField string) (map[string]V, error) {
	raw, err := c.KeyValue(ctx, recordType, keyField, valueField)
	if err != nil {
		return nil, err
	}
	result := make(map[string]V, len(raw))
	for key, value := range raw {
		typed, ok := value.(V)
		if !ok {
			var zero V
			return nil, newError(CodeTypeMismatch, valueField, "want %T, got %T", zero, value)
		}
		result[key] = typed
	}
	return result, nil
}

// Insert creates a page in the database of recordType from values and
// returns it decoded, including values the provider filled in.
func (c *Client) Insert(ctx context.Context, recordType string, values map[string]any) (Record, error) {
	schema, err := c.schema(recordType)
	if err != nil {
		return nil, err
	}
	properties, err := EncodeFields(values, schema)
	if err != nil {
		return nil, err
	}
	return withContainer(ctx, c, recordType, func(databaseID string) (Record, error) {
		page, err := c.provider.CreatePage(ctx, &notion.CreatePageRequest{
			Parent:     notion.Parent{Type: "database_id", DatabaseID: databaseID},
			Properties: properties,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
		return decodePage(page, schema)
	})
}

// Update writes values to an existing page and returns it decoded
func (c *Client) Update(ctx context.Context, recordType, id string, values map[string]any) (Record, error) {
	schema, err := c.schema(recordType)
	if err != nil {
		return nil, err
	}
	properties, err := EncodeFields(values, schema)
	if err != nil {
		return nil, err
	}
	page, err := c.provider.UpdatePage(ctx, id, &notion.UpdatePageRequest{Properties: properties})
	if err != nil {
		return nil, fmt.Errorf("failed to update page: %w", err)
	}
	return decodePage(page, schema)
}
