package worker

import (
	"context"
	"log"
	"time"

	"github.com/vireoapp/vireo/store"
)

type AccessUpdate struct {
	ShareId string
	Delta   int
}

// AccessBatcher coalesces share access-count increments so repeated
// reads of the same grant become one counter update per interval.
type AccessBatcher struct {
	UpdateCh           chan AccessUpdate
	vireoStore         store.VireoStore
	tickerMilliseconds int
}

func NewAccessBatcher(vireoStore store.VireoStore, tickerMilliseconds int) *AccessBatcher {
	return &AccessBatcher{
		UpdateCh:           make(chan AccessUpdate, 1024),
		vireoStore:         vireoStore,
		tickerMilliseconds: tickerMilliseconds,
	}
}

func (b *AccessBatcher) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(time.Duration(b.tickerMilliseconds) * time.Millisecond)
	defer ticker.Stop()

	shareCounts := make(map[string]int)

	flush := func() {
		for shareId, count := range shareCounts {
			if count == 0 {
				continue
			}
			go func(id string, c int) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := b.vireoStore.IncrementShareAccessCount(ctx, id, c); err != nil {
					log.Printf("Failed to update access count for share %s: %v", id, err)
				}
			}(shareId, count)
		}
		shareCounts = make(map[string]int)
	}

	for {
		select {
		case update := <-b.UpdateCh:
			if update.ShareId != "" {
				shareCounts[update.ShareId] += update.Delta
			}

			if len(shareCounts) >= 100 {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-shutdownCtx.Done():
			flush()
			return
		}
	}
}
