package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/store"
	"github.com/vireoapp/vireo/worker"
)

type JournalEntryParams struct {
	Title     string
	Content   string
	Encrypted bool
	// WordCount is client-supplied for encrypted entries, where the
	// server cannot count words in the ciphertext.
	WordCount int
	EntryDay  string
}

func (s *Service) CreateJournalEntry(ctx context.Context, user models.User, params JournalEntryParams) (models.JournalEntry, error) {
	if err := validateJournalParams(params); err != nil {
		return models.JournalEntry{}, err
	}

	// V7 ids are time-ordered, so SK order doubles as creation order
	entryId, err := uuid.NewV7()
	if err != nil {
		return models.JournalEntry{}, err
	}

	now := time.Now()

	entry := models.JournalEntry{
		Id:        entryId.String(),
		UserId:    user.Id,
		Title:     params.Title,
		Content:   params.Content,
		Encrypted: params.Encrypted,
		WordCount: resolveWordCount(params),
		EntryDay:  params.EntryDay,
		Created:   now.Unix(),
		Updated:   now.Unix(),
	}
	if entry.EntryDay == "" {
		entry.EntryDay = now.Format("2006-01-02")
	}

	if err := s.Store.CreateJournalEntry(ctx, entry); err != nil {
		return models.JournalEntry{}, err
	}

	s.StatsBatcher.EventCh <- worker.StatsEvent{
		UserId:    user.Id,
		Kind:      models.StatsJournal,
		Op:        worker.StatsOpCreate,
		Day:       entry.EntryDay,
		WordDelta: entry.WordCount,
	}

	return entry, nil
}

func (s *Service) GetJournalEntry(ctx context.Context, user models.User, entryId string) (models.JournalEntry, error) {
	entry, err := s.Store.GetJournalEntry(ctx, user.Id, entryId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.JournalEntry{}, ErrNotFound
		}
		return models.JournalEntry{}, err
	}

	return entry, nil
}

func (s *Service) UpdateJournalEntry(ctx context.Context, user models.User, entryId string, params JournalEntryParams) (models.JournalEntry, error) {
	if err := validateJournalParams(params); err != nil {
		return models.JournalEntry{}, err
	}

	existing, err := s.Store.GetJournalEntry(ctx, user.Id, entryId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.JournalEntry{}, ErrNotFound
		}
		return models.JournalEntry{}, err
	}

	updated := existing
	updated.Title = params.Title
	updated.Content = params.Content
	updated.Encrypted = params.Encrypted
	updated.WordCount = resolveWordCount(params)
	if params.EntryDay != "" {
		updated.EntryDay = params.EntryDay
	}
	updated.Updated = time.Now().Unix()

	result, err := s.Store.UpdateJournalEntry(ctx, updated)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.JournalEntry{}, ErrNotFound
		}
		return models.JournalEntry{}, err
	}

	s.StatsBatcher.EventCh <- worker.StatsEvent{
		UserId:    user.Id,
		Kind:      models.StatsJournal,
		Op:        worker.StatsOpUpdate,
		Day:       result.EntryDay,
		WordDelta: result.WordCount - existing.WordCount,
	}

	return result, nil
}

func (s *Service) DeleteJournalEntry(ctx context.Context, user models.User, entryId string) error {
	existing, err := s.Store.GetJournalEntry(ctx, user.Id, entryId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.Store.DeleteJournalEntry(ctx, user.Id, entryId); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.StatsBatcher.EventCh <- worker.StatsEvent{
		UserId:    user.Id,
		Kind:      models.StatsJournal,
		Op:        worker.StatsOpDelete,
		Day:       existing.EntryDay,
		WordDelta: -existing.WordCount,
	}

	return nil
}

const journalListLimit = 100

func (s *Service) ListJournalEntries(ctx context.Context, user models.User) ([]models.JournalEntry, error) {
	return s.Store.ListJournalEntries(ctx, user.Id, journalListLimit)
}

func resolveWordCount(params JournalEntryParams) int {
	if params.Encrypted {
		return params.WordCount
	}
	return countWords(params.Content)
}
