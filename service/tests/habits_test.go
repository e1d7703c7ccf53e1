package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/service"
	"github.com/vireoapp/vireo/store"
	"github.com/vireoapp/vireo/worker"
)

func TestCreateHabit_Success(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}

	mockStore.On("CreateHabit", ctx, mock.MatchedBy(func(h models.Habit) bool {
		return h.UserId == user.Id && h.Id != "" && h.Name == "Meditate"
	})).Return(nil)

	habit, err := svc.CreateHabit(ctx, user, service.HabitParams{Name: "Meditate", Schedule: "daily"})
	assert.NoError(t, err)
	assert.Equal(t, "daily", habit.Schedule)
	assert.False(t, habit.Archived)
}

func TestCreateHabit_EmptyName(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	_, err := svc.CreateHabit(context.Background(), models.User{Id: "u1"}, service.HabitParams{})

	var validationErr *service.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
}

func TestArchiveHabit_NotFound(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("SetHabitArchived", ctx, "u1", "missing", true).Return(store.ErrItemNotFound)

	err := svc.ArchiveHabit(ctx, models.User{Id: "u1"}, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCheckInHabit_Success(t *testing.T) {
	svc, mockStore, _, _, statsBatcher, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	habit := models.Habit{Id: "h1", UserId: user.Id, Name: "Meditate"}

	mockStore.On("GetHabit", ctx, user.Id, "h1").Return(habit, nil)
	mockStore.On("CreateHabitCheckIn", ctx, mock.MatchedBy(func(c models.HabitCheckIn) bool {
		return c.HabitId == "h1" && c.UserId == user.Id && c.Day == "2026-03-01"
	})).Return(nil)

	checkIn, err := svc.CheckInHabit(ctx, user, "h1", "2026-03-01", "felt great")
	assert.NoError(t, err)
	assert.Equal(t, "felt great", checkIn.Note)

	ev := drainStatsEvent(t, statsBatcher)
	assert.Equal(t, worker.StatsOpCreate, ev.Op)
	assert.Equal(t, models.StatsHabit, ev.Kind)
	assert.Equal(t, "2026-03-01", ev.Day)
}

func TestCheckInHabit_DefaultsToToday(t *testing.T) {
	svc, mockStore, _, _, statsBatcher, _ := setupService(t)
	ctx := context.Background()

	today := time.Now().Format("2006-01-02")
	user := models.User{Id: "user1"}

	mockStore.On("GetHabit", ctx, user.Id, "h1").Return(models.Habit{Id: "h1", UserId: user.Id, Name: "Run"}, nil)
	mockStore.On("CreateHabitCheckIn", ctx, mock.Anything).Return(nil)

	checkIn, err := svc.CheckInHabit(ctx, user, "h1", "", "")
	assert.NoError(t, err)
	assert.Equal(t, today, checkIn.Day)

	ev := drainStatsEvent(t, statsBatcher)
	assert.Equal(t, today, ev.Day)
}

func TestCheckInHabit_SameDayDuplicate(t *testing.T) {
	svc, mockStore, _, _, statsBatcher, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}

	mockStore.On("GetHabit", ctx, user.Id, "h1").Return(models.Habit{Id: "h1", UserId: user.Id, Name: "Run"}, nil)
	mockStore.On("CreateHabitCheckIn", ctx, mock.Anything).Return(store.ErrItemExists)

	_, err := svc.CheckInHabit(ctx, user, "h1", "2026-03-01", "")
	assert.ErrorIs(t, err, service.ErrConflict)

	// Duplicate did not reach the stats batcher
	select {
	case ev := <-statsBatcher.EventCh:
		assert.Fail(t, "unexpected stats event", "%+v", ev)
	default:
	}
}

func TestCheckInHabit_ArchivedHabit(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	mockStore.On("GetHabit", ctx, user.Id, "h1").
		Return(models.Habit{Id: "h1", UserId: user.Id, Name: "Run", Archived: true}, nil)

	_, err := svc.CheckInHabit(ctx, user, "h1", "2026-03-01", "")

	var validationErr *service.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockStore.AssertNotCalled(t, "CreateHabitCheckIn", mock.Anything, mock.Anything)
}

func TestCheckInHabit_BadDay(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)

	_, err := svc.CheckInHabit(context.Background(), models.User{Id: "u1"}, "h1", "03/01/2026", "")

	var validationErr *service.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "day", validationErr.Field)

	mockStore.AssertNotCalled(t, "GetHabit", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckInHabit_HabitNotFound(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetHabit", ctx, "u1", "missing").Return(models.Habit{}, store.ErrItemNotFound)

	_, err := svc.CheckInHabit(ctx, models.User{Id: "u1"}, "missing", "2026-03-01", "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteHabit_CascadesCheckIns(t *testing.T) {
	svc, mockStore, _, _, statsBatcher, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("DeleteHabit", ctx, "u1", "h1").Return(nil)
	mockStore.On("DeleteHabitCheckIns", ctx, "u1", "h1").Return(2, nil)

	err := svc.DeleteHabit(ctx, models.User{Id: "u1"}, "h1")
	assert.NoError(t, err)

	// One decrement per removed check-in keeps the aggregate symmetric
	// with the per-check-in increments.
	for i := 0; i < 2; i++ {
		ev := drainStatsEvent(t, statsBatcher)
		assert.Equal(t, worker.StatsOpDelete, ev.Op)
		assert.Equal(t, models.StatsHabit, ev.Kind)
	}
	select {
	case ev := <-statsBatcher.EventCh:
		assert.Fail(t, "unexpected extra stats event", "%+v", ev)
	default:
	}
}

func TestDeleteHabit_CheckInCascadeFailureIgnored(t *testing.T) {
	svc, mockStore, _, _, statsBatcher, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("DeleteHabit", ctx, "u1", "h1").Return(nil)
	mockStore.On("DeleteHabitCheckIns", ctx, "u1", "h1").
		Return(0, errors.New("batch delete failed"))

	err := svc.DeleteHabit(ctx, models.User{Id: "u1"}, "h1")
	assert.NoError(t, err)

	select {
	case ev := <-statsBatcher.EventCh:
		assert.Fail(t, "unexpected stats event after failed cascade", "%+v", ev)
	default:
	}
}
