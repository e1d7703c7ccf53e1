package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/service"
	"github.com/vireoapp/vireo/store"
	"github.com/vireoapp/vireo/worker"
)

func drainStatsEvent(t *testing.T, batcher *worker.StatsBatcher) worker.StatsEvent {
	t.Helper()
	select {
	case ev := <-batcher.EventCh:
		return ev
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for stats event")
		return worker.StatsEvent{}
	}
}

func TestCreateJournalEntry_Success(t *testing.T) {
	svc, mockStore, _, _, statsBatcher, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	params := service.JournalEntryParams{
		Title:   "Morning pages",
		Content: "Slept well and went for a run",
	}

	mockStore.On("CreateJournalEntry", ctx, mock.MatchedBy(func(e models.JournalEntry) bool {
		return e.UserId == user.Id && e.Id != "" && e.EntryDay != ""
	})).Return(nil)

	entry, err := svc.CreateJournalEntry(ctx, user, params)
	assert.NoError(t, err)
	assert.Equal(t, 7, entry.WordCount) // server-side count of plaintext
	assert.Equal(t, time.Now().Format("2006-01-02"), entry.EntryDay)

	ev := drainStatsEvent(t, statsBatcher)
	assert.Equal(t, worker.StatsOpCreate, ev.Op)
	assert.Equal(t, models.StatsJournal, ev.Kind)
	assert.Equal(t, 7, ev.WordDelta)
	assert.Equal(t, entry.EntryDay, ev.Day)
}

func TestCreateJournalEntry_EncryptedUsesClientWordCount(t *testing.T) {
	svc, mockStore, _, _, statsBatcher, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	params := service.JournalEntryParams{
		Content:   "b64ciphertextblob",
		Encrypted: true,
		WordCount: 42,
		EntryDay:  "2026-03-01",
	}

	mockStore.On("CreateJournalEntry", ctx, mock.Anything).Return(nil)

	entry, err := svc.CreateJournalEntry(ctx, user, params)
	assert.NoError(t, err)
	assert.Equal(t, 42, entry.WordCount)
	assert.Equal(t, "2026-03-01", entry.EntryDay)

	ev := drainStatsEvent(t, statsBatcher)
	assert.Equal(t, 42, ev.WordDelta)
}

func TestCreateJournalEntry_EmptyContent(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)

	_, err := svc.CreateJournalEntry(context.Background(), models.User{Id: "u1"}, service.JournalEntryParams{})

	var validationErr *service.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "content", validationErr.Field)

	mockStore.AssertNotCalled(t, "CreateJournalEntry", mock.Anything, mock.Anything)
}

func TestUpdateJournalEntry_WordDelta(t *testing.T) {
	svc, mockStore, _, _, statsBatcher, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	existing := models.JournalEntry{
		Id:        "e1",
		UserId:    user.Id,
		Content:   "one two three",
		WordCount: 3,
		EntryDay:  "2026-02-01",
	}

	mockStore.On("GetJournalEntry", ctx, user.Id, "e1").Return(existing, nil)
	mockStore.On("UpdateJournalEntry", ctx, mock.MatchedBy(func(e models.JournalEntry) bool {
		return e.Id == "e1" && e.WordCount == 5
	})).Return(models.JournalEntry{
		Id: "e1", UserId: user.Id, Content: "one two three four five",
		WordCount: 5, EntryDay: "2026-02-01",
	}, nil)

	updated, err := svc.UpdateJournalEntry(ctx, user, "e1", service.JournalEntryParams{
		Content: "one two three four five",
	})
	assert.NoError(t, err)
	assert.Equal(t, 5, updated.WordCount)

	ev := drainStatsEvent(t, statsBatcher)
	assert.Equal(t, worker.StatsOpUpdate, ev.Op)
	assert.Equal(t, 2, ev.WordDelta)
}

func TestUpdateJournalEntry_NotFound(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetJournalEntry", ctx, "u1", "missing").
		Return(models.JournalEntry{}, store.ErrItemNotFound)

	_, err := svc.UpdateJournalEntry(ctx, models.User{Id: "u1"}, "missing", service.JournalEntryParams{Content: "x"})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteJournalEntry_EmitsNegativeDelta(t *testing.T) {
	svc, mockStore, _, _, statsBatcher, _ := setupService(t)
	ctx := context.Background()

	existing := models.JournalEntry{Id: "e1", UserId: "u1", WordCount: 10, EntryDay: "2026-02-01"}

	mockStore.On("GetJournalEntry", ctx, "u1", "e1").Return(existing, nil)
	mockStore.On("DeleteJournalEntry", ctx, "u1", "e1").Return(nil)

	err := svc.DeleteJournalEntry(ctx, models.User{Id: "u1"}, "e1")
	assert.NoError(t, err)

	ev := drainStatsEvent(t, statsBatcher)
	assert.Equal(t, worker.StatsOpDelete, ev.Op)
	assert.Equal(t, -10, ev.WordDelta)
}

func TestDeleteJournalEntry_NotFound(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetJournalEntry", ctx, "u1", "missing").
		Return(models.JournalEntry{}, store.ErrItemNotFound)

	err := svc.DeleteJournalEntry(ctx, models.User{Id: "u1"}, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListJournalEntries(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	entries := []models.JournalEntry{{Id: "e2"}, {Id: "e1"}}
	mockStore.On("ListJournalEntries", ctx, "u1", int32(100)).Return(entries, nil)

	got, err := svc.ListJournalEntries(ctx, models.User{Id: "u1"})
	assert.NoError(t, err)
	assert.Equal(t, entries, got)
}
