package notiondb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/longkey1/kitlend/internal/notion"
)

// fakeProvider serves pages and blocks from memory and records calls
type fakeProvider struct {
	mu sync.Mutex

	rootID    string
	databases map[string][]notion.Page // database id -> rows
	blocks    map[string][]notion.Block
	pages     map[string]*notion.Page

	listCalls    int
	queries      []*notion.DatabaseQuery
	queriedIDs   []string
	created      []*notion.CreatePageRequest
	updated      map[string]*notion.UpdatePageRequest
	queryErr     error
	listErr      error
	pageSize     int
	createResult *notion.Page
}

func newFakeProvider(rootID string) *fakeProvider {
	return &fakeProvider{
		rootID:    rootID,
		databases: make(map[string][]notion.Page),
		blocks:    make(map[string][]notion.Block),
		pages:     make(map[string]*notion.Page),
		updated:   make(map[string]*notion.UpdatePageRequest),
	}
}

func (f *fakeProvider) ListAllBlockChildren(_ context.Context, blockID string) ([]notion.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if blockID == f.rootID {
		f.listCalls++
		if f.listErr != nil {
			return nil, f.listErr
		}
	}
	return f.blocks[blockID], nil
}

func (f *fakeProvider) RetrievePage(_ context.Context, pageID string) (*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page, ok := f.pages[pageID]
	if !ok {
		return nil, &notion.APIError{Status: 404, Code: "object_not_found", Message: "not found"}
	}
	return page, nil
}

func (f *fakeProvider) QueryDatabase(_ context.Context, databaseID string, query *notion.DatabaseQuery) (*notion.PageList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queriedIDs = append(f.queriedIDs, databaseID)
	f.queries = append(f.queries, query)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	rows, ok := f.databases[databaseID]
	if !ok {
		return nil, &notion.APIError{Status: 404, Code: "object_not_found", Message: "database not found"}
	}
	if query != nil && query.Filter != nil {
		rows = filterRows(rows, query.Filter)
	}
	if f.pageSize <= 0 || len(rows) <= f.pageSize {
		return &notion.PageList{Object: "list", Results: rows}, nil
	}
	start := 0
	if query != nil && query.StartCursor != "" {
		fmt.Sscanf(query.StartCursor, "c%d", &start)
	}
	end := min(start+f.pageSize, len(rows))
	list := &notion.PageList{Object: "list", Results: rows[start:end]}
	if end < len(rows) {
		list.HasMore = true
		list.NextCursor = notion.Ptr(fmt.Sprintf("c%d", end))
	}
	return list, nil
}

func filterRows(rows []notion.Page, filter *notion.Filter) []notion.Page {
	var out []notion.Page
	for _, row := range rows {
		pv, ok := row.Properties[filter.Property]
		if !ok {
			continue
		}
		switch v := pv.Value.(type) {
		case notion.UniqueID:
			if filter.UniqueID != nil && v.Number != nil && float64(*v.Number) == *filter.UniqueID.Equals {
				out = append(out, row)
			}
		case notion.Title:
			if filter.Title != nil && notion.PlainText(v) == *filter.Title.Equals {
				out = append(out, row)
			}
		}
	}
	return out
}

func (f *fakeProvider) CreatePage(_ context.Context, req *notion.CreatePageRequest) (*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.databases[req.Parent.DatabaseID]; !ok {
		return nil, &notion.APIError{Status: 404, Code: "object_not_found", Message: "database not found"}
	}
	f.created = append(f.created, req)
	if f.createResult != nil {
		return f.createResult, nil
	}
	return &notion.Page{Object: "page", ID: "created", Properties: req.Properties}, nil
}

func (f *fakeProvider) UpdatePage(_ context.Context, pageID string, req *notion.UpdatePageRequest) (*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page, ok := f.pages[pageID]
	if !ok {
		return nil, &notion.APIError{Status: 404, Code: "object_not_found", Message: "not found"}
	}
	f.updated[pageID] = req
	updated := &notion.Page{Object: "page", ID: page.ID, Properties: make(map[string]notion.PropertyValue)}
	for k, v := range page.Properties {
		updated.Properties[k] = v
	}
	for k, v := range req.Properties {
		updated.Properties[k] = v
	}
	f.pages[pageID] = updated
	return updated, nil
}

func (f *fakeProvider) addDatabase(t *testing.T, id, title string, rows ...notion.Page) {
	t.Helper()
	f.blocks[f.rootID] = append(f.blocks[f.rootID], childDatabase(t, id, title))
	f.databases[id] = rows
	for i := range rows {
		f.pages[rows[i].ID] = &rows[i]
	}
}

func childDatabase(t *testing.T, id, title string) notion.Block {
	t.Helper()
	return mustBlock(t, fmt.Sprintf(`{"object":"block","id":%q,"type":"child_database","has_children":false,"child_database":{"title":%q}}`, id, title))
}

func paragraph(t *testing.T, id, text string) notion.Block {
	t.Helper()
	return mustBlock(t, fmt.Sprintf(`{"object":"block","id":%q,"type":"paragraph","has_children":false,"paragraph":{"rich_text":[{"type":"text","plain_text":%q,"text":{"content":%q}}]}}`, id, text, text))
}

func mustBlock(t *testing.T, raw string) notion.Block {
	t.Helper()
	var b notion.Block
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	return b
}

func props(kv ...any) map[string]notion.PropertyValue {
	m := make(map[string]notion.PropertyValue, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		m[kv[i].(string)] = notion.PropertyValue{Value: kv[i+1].(notion.Value)}
	}
	return m
}

func fullPage(id string, properties map[string]notion.PropertyValue) notion.Page {
	return notion.Page{Object: "page", ID: id, Properties: properties}
}

func title(s string) notion.Title {
	return notion.Title(notion.TextRuns(s))
}

func uniqueID(n int) notion.UniqueID {
	return notion.UniqueID{Prefix: notion.Ptr("KIT"), Number: &n}
}
