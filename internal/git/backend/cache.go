package backend

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type ancestryKey struct {
	candidate string
	tip       string
}

// ancestryCache memoizes IsAncestor answers. Commits are immutable, so an
// answer never goes stale.
type ancestryCache struct {
	c *lru.Cache[ancestryKey, bool]
}

func newAncestryCache(size int) (*ancestryCache, error) {
	c, err := lru.New[ancestryKey, bool](size)
	if err != nil {
		return nil, err
	}
	return &ancestryCache{c: c}, nil
}

func (a *ancestryCache) lookup(candidate, tip string, compute func() (bool, error)) (bool, error) {
	key := ancestryKey{candidate: candidate, tip: tip}
	if ok, hit := a.c.Get(key); hit {
		return ok, nil
	}
	ok, err := compute()
	if err != nil {
		return false, err
	}
	a.c.Add(key, ok)
	return ok, nil
}
