package worker

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/store"
)

type StatsOp int

const (
	StatsOpCreate StatsOp = iota
	StatsOpUpdate
	StatsOpDelete
)

// StatsEvent describes one primary-entity mutation for the aggregate
// updater. Day is the entity's calendar day (YYYY-MM-DD); WordDelta is
// only meaningful for journal events.
type StatsEvent struct {
	UserId    string
	Kind      models.StatsKind
	Op        StatsOp
	Day       string
	WordDelta int
}

// StatsBatcher applies aggregate-stats updates asynchronously. The
// aggregates are a best-effort derived view: a failed flush is logged
// and dropped, never retried against the primary mutation.
type StatsBatcher struct {
	EventCh            chan StatsEvent
	vireoStore         store.VireoStore
	tickerMilliseconds int
}

func NewStatsBatcher(vireoStore store.VireoStore, tickerMilliseconds int) *StatsBatcher {
	return &StatsBatcher{
		EventCh:            make(chan StatsEvent, 1024), // buffer to absorb bursts
		vireoStore:         vireoStore,
		tickerMilliseconds: tickerMilliseconds,
	}
}

func (b *StatsBatcher) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(time.Duration(b.tickerMilliseconds) * time.Millisecond)
	defer ticker.Stop()

	// Key: "userId#kind" -> pending events in arrival order
	pending := make(map[string][]StatsEvent)

	flush := func() {
		for key, events := range pending {
			go func(key string, events []StatsEvent) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := b.applyBatch(ctx, events); err != nil {
					log.Printf("Failed to update stats for %s: %v", key, err)
				}
			}(key, events)
		}
		pending = make(map[string][]StatsEvent)
	}

	for {
		select {
		case ev := <-b.EventCh:
			if ev.UserId == "" || ev.Kind == "" {
				continue
			}
			key := ev.UserId + "#" + string(ev.Kind)
			pending[key] = append(pending[key], ev)

			if len(pending) >= 100 {
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

// applyBatch reads the aggregate once, folds the events in day order,
// and writes it back. All events in a batch share user and kind.
func (b *StatsBatcher) applyBatch(ctx context.Context, events []StatsEvent) error {
	if len(events) == 0 {
		return nil
	}

	stats, err := b.vireoStore.GetStats(ctx, events[0].UserId, events[0].Kind)
	if err != nil && err != store.ErrItemNotFound {
		return err
	}
	if err == store.ErrItemNotFound {
		stats = models.Stats{UserId: events[0].UserId, Kind: events[0].Kind}
	}

	// Day order so multi-day batches advance the streak correctly;
	// sort is stable so same-day events keep arrival order.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Day < events[j].Day
	})

	for _, ev := range events {
		stats = ApplyEvent(stats, ev)
	}
	stats.Updated = time.Now().Unix()

	return b.vireoStore.PutStats(ctx, stats)
}

// ApplyEvent folds one mutation into the aggregate.
// Streak rule: an event exactly one calendar day after the last event
// extends the streak; a larger gap resets it to 1; the first event
// initializes it to 1; a repeat on the same day leaves it unchanged.
// LongestStreak is the running maximum of CurrentStreak.
func ApplyEvent(stats models.Stats, ev StatsEvent) models.Stats {
	switch ev.Op {
	case StatsOpCreate:
		stats.TotalCount++
		stats.TotalWords += ev.WordDelta

		switch {
		case stats.LastEventDay == "":
			stats.CurrentStreak = 1
		case ev.Day == stats.LastEventDay:
			// same-day repeat, streak unchanged
		case daysBetween(stats.LastEventDay, ev.Day) == 1:
			stats.CurrentStreak++
		case ev.Day > stats.LastEventDay:
			stats.CurrentStreak = 1
		}
		if ev.Day > stats.LastEventDay {
			stats.LastEventDay = ev.Day
		}
		if stats.CurrentStreak > stats.LongestStreak {
			stats.LongestStreak = stats.CurrentStreak
		}

	case StatsOpUpdate:
		stats.TotalWords += ev.WordDelta

	case StatsOpDelete:
		if stats.TotalCount > 0 {
			stats.TotalCount--
		}
		stats.TotalWords += ev.WordDelta
		if stats.TotalWords < 0 {
			stats.TotalWords = 0
		}
		// Streaks are not recomputed on delete; drift is tolerated.
	}

	if stats.TotalCount > 0 {
		stats.AvgWords = float64(stats.TotalWords) / float64(stats.TotalCount)
	} else {
		stats.AvgWords = 0
	}

	return stats
}

// daysBetween returns the calendar-day distance from a to b, or -1 if
// either day fails to parse.
func daysBetween(a string, b string) int {
	const layout = "2006-01-02"
	ta, errA := time.Parse(layout, a)
	tb, errB := time.Parse(layout, b)
	if errA != nil || errB != nil {
		return -1
	}
	return int(tb.Sub(ta).Hours() / 24)
}
