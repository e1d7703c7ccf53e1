package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vireoapp/vireo/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) GetUser(ctx context.Context, userId string) (models.User, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) DeleteUser(ctx context.Context, userId string) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}

func (m *MockStore) SetUserEncryptionFlag(ctx context.Context, userId string, enabled bool) error {
	args := m.Called(ctx, userId, enabled)
	return args.Error(0)
}

func (m *MockStore) CreateKeyRecord(ctx context.Context, record models.KeyRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStore) GetKeyRecord(ctx context.Context, userId string) (models.KeyRecord, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(models.KeyRecord), args.Error(1)
}

func (m *MockStore) DeleteKeyRecord(ctx context.Context, userId string) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}

func (m *MockStore) CreateShare(ctx context.Context, grant models.ShareGrant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *MockStore) GetShare(ctx context.Context, shareId string) (models.ShareGrant, error) {
	args := m.Called(ctx, shareId)
	return args.Get(0).(models.ShareGrant), args.Error(1)
}

func (m *MockStore) RevokeShare(ctx context.Context, shareId string, ownerId string, revokedAt int64) error {
	args := m.Called(ctx, shareId, ownerId, revokedAt)
	return args.Error(0)
}

func (m *MockStore) ListSharesByOwner(ctx context.Context, ownerId string) ([]models.ShareGrant, error) {
	args := m.Called(ctx, ownerId)
	return args.Get(0).([]models.ShareGrant), args.Error(1)
}

func (m *MockStore) ListSharesByRecipient(ctx context.Context, recipientId string) ([]models.ShareGrant, error) {
	args := m.Called(ctx, recipientId)
	return args.Get(0).([]models.ShareGrant), args.Error(1)
}

func (m *MockStore) DeleteUserShares(ctx context.Context, userId string) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}

func (m *MockStore) IncrementShareAccessCount(ctx context.Context, shareId string, count int) error {
	args := m.Called(ctx, shareId, count)
	return args.Error(0)
}

func (m *MockStore) CreateJournalEntry(ctx context.Context, entry models.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStore) GetJournalEntry(ctx context.Context, userId string, entryId string) (models.JournalEntry, error) {
	args := m.Called(ctx, userId, entryId)
	return args.Get(0).(models.JournalEntry), args.Error(1)
}

func (m *MockStore) UpdateJournalEntry(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(models.JournalEntry), args.Error(1)
}

func (m *MockStore) DeleteJournalEntry(ctx context.Context, userId string, entryId string) error {
	args := m.Called(ctx, userId, entryId)
	return args.Error(0)
}

func (m *MockStore) ListJournalEntries(ctx context.Context, userId string, limit int32) ([]models.JournalEntry, error) {
	args := m.Called(ctx, userId, limit)
	return args.Get(0).([]models.JournalEntry), args.Error(1)
}

func (m *MockStore) SetItemSharedWith(ctx context.Context, userId string, itemType models.ItemType, itemId string, sharedWith []string) error {
	args := m.Called(ctx, userId, itemType, itemId, sharedWith)
	return args.Error(0)
}

func (m *MockStore) CreateHabit(ctx context.Context, habit models.Habit) error {
	args := m.Called(ctx, habit)
	return args.Error(0)
}

func (m *MockStore) GetHabit(ctx context.Context, userId string, habitId string) (models.Habit, error) {
	args := m.Called(ctx, userId, habitId)
	return args.Get(0).(models.Habit), args.Error(1)
}

func (m *MockStore) SetHabitArchived(ctx context.Context, userId string, habitId string, archived bool) error {
	args := m.Called(ctx, userId, habitId, archived)
	return args.Error(0)
}

func (m *MockStore) DeleteHabit(ctx context.Context, userId string, habitId string) error {
	args := m.Called(ctx, userId, habitId)
	return args.Error(0)
}

func (m *MockStore) ListHabits(ctx context.Context, userId string) ([]models.Habit, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]models.Habit), args.Error(1)
}

func (m *MockStore) CreateHabitCheckIn(ctx context.Context, checkIn models.HabitCheckIn) error {
	args := m.Called(ctx, checkIn)
	return args.Error(0)
}

func (m *MockStore) ListHabitCheckIns(ctx context.Context, userId string, habitId string, limit int32) ([]models.HabitCheckIn, error) {
	args := m.Called(ctx, userId, habitId, limit)
	return args.Get(0).([]models.HabitCheckIn), args.Error(1)
}

func (m *MockStore) DeleteHabitCheckIns(ctx context.Context, userId string, habitId string) (int, error) {
	args := m.Called(ctx, userId, habitId)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) CreateGoal(ctx context.Context, goal models.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *MockStore) GetGoal(ctx context.Context, userId string, goalId string) (models.Goal, error) {
	args := m.Called(ctx, userId, goalId)
	return args.Get(0).(models.Goal), args.Error(1)
}

func (m *MockStore) UpdateGoal(ctx context.Context, goal models.Goal) (models.Goal, error) {
	args := m.Called(ctx, goal)
	return args.Get(0).(models.Goal), args.Error(1)
}

func (m *MockStore) DeleteGoal(ctx context.Context, userId string, goalId string) error {
	args := m.Called(ctx, userId, goalId)
	return args.Error(0)
}

func (m *MockStore) ListGoals(ctx context.Context, userId string) ([]models.Goal, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]models.Goal), args.Error(1)
}

func (m *MockStore) GetStats(ctx context.Context, userId string, kind models.StatsKind) (models.Stats, error) {
	args := m.Called(ctx, userId, kind)
	return args.Get(0).(models.Stats), args.Error(1)
}

func (m *MockStore) PutStats(ctx context.Context, stats models.Stats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}
