package resolver

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/wippyai/modkit/resolver/internal/pkgjson"
)

type manifestEntry struct {
	m   *pkgjson.Manifest
	err error
}

// manifestCache memoizes manifest reads by path. Concurrent misses on the
// same path share one read.
type manifestCache struct {
	entries sync.Map // path -> manifestEntry
	group   singleflight.Group
}

func newManifestCache() *manifestCache {
	return &manifestCache{}
}

func (c *manifestCache) load(path string, read func(string) (*pkgjson.Manifest, error)) (*pkgjson.Manifest, error) {
	if v, ok := c.entries.Load(path); ok {
		e := v.(manifestEntry)
		return e.m, e.err
	}
	v, err, _ := c.group.Do(path, func() (any, error) {
		m, err := read(path)
		c.entries.Store(path, manifestEntry{m: m, err: err})
		return m, err
	})
	m, _ := v.(*pkgjson.Manifest)
	return m, err
}

func (c *manifestCache) invalidate() {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
}

func (c *manifestCache) len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
