package application

import (
	"sync"

	"lessonquote-service/internal/domain"
)

// QuoteCache memoizes the quote of a single booking draft. It holds at most
// one entry and never matches on anything but full key equality.
type QuoteCache struct {
	mu    sync.RWMutex
	key   domain.QuoteKey
	quote domain.Quote
	set   bool
}

func NewQuoteCache() *QuoteCache { return &QuoteCache{} }

func (c *QuoteCache) Lookup(key domain.QuoteKey) (domain.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set || c.key != key {
		return domain.Quote{}, false
	}
	return c.quote, true
}

func (c *QuoteCache) Store(key domain.QuoteKey, q domain.Quote) {
	c.mu.Lock()
	c.key, c.quote, c.set = key, q, true
	c.mu.Unlock()
}

func (c *QuoteCache) Clear() {
	c.mu.Lock()
	c.key, c.quote, c.set = domain.QuoteKey{}, domain.Quote{}, false
	c.mu.Unlock()
}
