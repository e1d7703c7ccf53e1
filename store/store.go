package store

import (
	"context"
	"errors"

	"github.com/vireoapp/vireo/models"
)

type VireoStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, userId string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	DeleteUser(ctx context.Context, userId string) error
	SetUserEncryptionFlag(ctx context.Context, userId string, enabled bool) error

	CreateKeyRecord(ctx context.Context, record models.KeyRecord) error
	GetKeyRecord(ctx context.Context, userId string) (models.KeyRecord, error)
	DeleteKeyRecord(ctx context.Context, userId string) error

	CreateShare(ctx context.Context, grant models.ShareGrant) error
	GetShare(ctx context.Context, shareId string) (models.ShareGrant, error)
	RevokeShare(ctx context.Context, shareId string, ownerId string, revokedAt int64) error
	ListSharesByOwner(ctx context.Context, ownerId string) ([]models.ShareGrant, error)
	ListSharesByRecipient(ctx context.Context, recipientId string) ([]models.ShareGrant, error)
	DeleteUserShares(ctx context.Context, userId string) error
	IncrementShareAccessCount(ctx context.Context, shareId string, count int) error

	CreateJournalEntry(ctx context.Context, entry models.JournalEntry) error
	GetJournalEntry(ctx context.Context, userId string, entryId string) (models.JournalEntry, error)
	UpdateJournalEntry(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error)
	DeleteJournalEntry(ctx context.Context, userId string, entryId string) error
	ListJournalEntries(ctx context.Context, userId string, limit int32) ([]models.JournalEntry, error)
	SetItemSharedWith(ctx context.Context, userId string, itemType models.ItemType, itemId string, sharedWith []string) error

	CreateHabit(ctx context.Context, habit models.Habit) error
	GetHabit(ctx context.Context, userId string, habitId string) (models.Habit, error)
	SetHabitArchived(ctx context.Context, userId string, habitId string, archived bool) error
	DeleteHabit(ctx context.Context, userId string, habitId string) error
	ListHabits(ctx context.Context, userId string) ([]models.Habit, error)
	CreateHabitCheckIn(ctx context.Context, checkIn models.HabitCheckIn) error
	ListHabitCheckIns(ctx context.Context, userId string, habitId string, limit int32) ([]models.HabitCheckIn, error)
	DeleteHabitCheckIns(ctx context.Context, userId string, habitId string) (int, error)

	CreateGoal(ctx context.Context, goal models.Goal) error
	GetGoal(ctx context.Context, userId string, goalId string) (models.Goal, error)
	UpdateGoal(ctx context.Context, goal models.Goal) (models.Goal, error)
	DeleteGoal(ctx context.Context, userId string, goalId string) error
	ListGoals(ctx context.Context, userId string) ([]models.Goal, error)

	GetStats(ctx context.Context, userId string, kind models.StatsKind) (models.Stats, error)
	PutStats(ctx context.Context, stats models.Stats) error
}

// Custom error types for clarity
var (
	ErrItemNotFound    = errors.New("item does not exist")
	ErrItemExists      = errors.New("item already exists")
	ErrConditionFailed = errors.New("condition not met")
)
