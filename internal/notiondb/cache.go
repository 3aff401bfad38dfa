package notiondb

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/longkey1/kitlend/internal/notion"
)

// BlockLister lists the child blocks of a page
type BlockLister interface {
	ListAllBlockChildren(ctx context.Context, blockID string) ([]notion.Block, error)
}

// ContainerCache maps database names to database ids. It is filled by
// listing the child databases of the root page whose titles carry the
// prefix, and emptied by Invalidate.
//
// Concurrent misses are not coalesced; each lists the root page and
// merges the same mapping.
type ContainerCache struct {
	lister BlockLister
	rootID string
	prefix string

	mu  sync.Mutex
	ids map[string]string
}

// NewContainerCache creates an empty cache
func NewContainerCache(lister BlockLister, rootPageID, prefix string) *ContainerCache {
	return &ContainerCache{
		lister: lister,
		rootID: rootPageID,
		prefix: prefix,
		ids:    make(map[string]string),
	}
}

// Resolve returns the id of the named database, refreshing the cache on a
// miss. A name that is still unknown after the refresh resolves to "";
// the provider's not-found answer on the next call is authoritative.
func (c *ContainerCache) Resolve(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	id, ok := c.ids[name]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	found, err := c.list(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for title, id := range found {
		c.ids[title] = id
	}
	return c.ids[name], nil
}

func (c *ContainerCache) list(ctx context.Context) (map[string]string, error) {
	blocks, err := c.lister.ListAllBlockChildren(ctx, c.rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	found := make(map[string]string)
	for _, block := range blocks {
		title, ok := block.ChildDatabaseTitle()
		if !ok || !strings.HasPrefix(title, c.prefix) {
			continue
		}
		found[strings.TrimPrefix(title, c.prefix)] = block.ID
	}
	return found, nil
}

// Invalidate empties the cache
func (c *ContainerCache) Invalidate() {
	c.mu.Lock()
	c.ids = make(map[string]string)
	c.mu.Unlock()
}

// Len returns the number of cached names
func (c *ContainerCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}
