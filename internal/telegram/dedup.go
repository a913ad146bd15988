package telegram

import (
	"fmt"
	"sync"
	"time"

	"github.com/telebox/telebox/internal/consts"
	"github.com/telebox/telebox/internal/logger"
)

// dedupCache guards against the transport occasionally re-delivering an
// update. Entries are wiped wholesale on a fixed interval; the cache only
// needs to cover the re-delivery window, not history.
type dedupCache struct {
	mu   sync.Mutex
	seen map[string]struct{}
	stop chan struct{}
}

func newDedupCache() *dedupCache {
	c := &dedupCache{
		seen: make(map[string]struct{}),
		stop: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// MarkSeen records a message and reports whether it was already processed.
func (c *dedupCache) MarkSeen(chatID int64, messageID int) bool {
	key := fmt.Sprintf("%d:%d", chatID, messageID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.seen[key]; dup {
		return true
	}
	c.seen[key] = struct{}{}
	return false
}

func (c *dedupCache) cleanupLoop() {
	ticker := time.NewTicker(consts.DedupCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			cleared := len(c.seen)
			c.seen = make(map[string]struct{})
			c.mu.Unlock()
			if cleared > 0 {
				logger.Debug("Cleared processed-message cache", map[string]interface{}{
					"entries": cleared,
				})
			}
		case <-c.stop:
			return
		}
	}
}

func (c *dedupCache) Stop() {
	close(c.stop)
}
