package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/store"
	"github.com/vireoapp/vireo/worker"
)

type HabitParams struct {
	Name     string
	Schedule string
}

func (s *Service) CreateHabit(ctx context.Context, user models.User, params HabitParams) (models.Habit, error) {
	if err := validateHabitParams(params); err != nil {
		return models.Habit{}, err
	}

	habitId, err := uuid.NewV7()
	if err != nil {
		return models.Habit{}, err
	}

	habit := models.Habit{
		Id:       habitId.String(),
		UserId:   user.Id,
		Name:     params.Name,
		Schedule: params.Schedule,
		Created:  time.Now().Unix(),
	}

	if err := s.Store.CreateHabit(ctx, habit); err != nil {
		return models.Habit{}, err
	}

	return habit, nil
}

func (s *Service) ListHabits(ctx context.Context, user models.User) ([]models.Habit, error) {
	return s.Store.ListHabits(ctx, user.Id)
}

func (s *Service) ArchiveHabit(ctx context.Context, user models.User, habitId string) error {
	if err := s.Store.SetHabitArchived(ctx, user.Id, habitId, true); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteHabit removes the habit and cascades to its check-in rows. The
// habit aggregate counts check-ins, so the cascade emits one decrement
// per removed check-in; cascade failures are logged and leave the
// primary delete intact.
func (s *Service) DeleteHabit(ctx context.Context, user models.User, habitId string) error {
	if err := s.Store.DeleteHabit(ctx, user.Id, habitId); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return ErrNotFound
		}
		return err
	}

	removed, err := s.Store.DeleteHabitCheckIns(ctx, user.Id, habitId)
	if err != nil {
		log.Printf("Failed to delete check-ins for habit %s: %v", habitId, err)
	}
	for i := 0; i < removed; i++ {
		s.StatsBatcher.EventCh <- worker.StatsEvent{
			UserId: user.Id,
			Kind:   models.StatsHabit,
			Op:     worker.StatsOpDelete,
		}
	}

	return nil
}

// CheckInHabit records one completion of a habit for a calendar day.
// One check-in per habit per day: a duplicate fails with ErrConflict
// via the store's conditional write, not an application-level lock.
func (s *Service) CheckInHabit(ctx context.Context, user models.User, habitId string, day string, note string) (models.HabitCheckIn, error) {
	if day == "" {
		day = time.Now().Format("2006-01-02")
	}
	if err := validateDay("day", day); err != nil {
		return models.HabitCheckIn{}, err
	}

	habit, err := s.Store.GetHabit(ctx, user.Id, habitId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.HabitCheckIn{}, ErrNotFound
		}
		return models.HabitCheckIn{}, err
	}
	if habit.Archived {
		return models.HabitCheckIn{}, validationErr("habitId", "habit is archived")
	}

	checkIn := models.HabitCheckIn{
		HabitId: habitId,
		UserId:  user.Id,
		Day:     day,
		Note:    note,
		Created: time.Now().Unix(),
	}

	if err := s.Store.CreateHabitCheckIn(ctx, checkIn); err != nil {
		if errors.Is(err, store.ErrItemExists) {
			return models.HabitCheckIn{}, ErrConflict
		}
		return models.HabitCheckIn{}, err
	}

	s.StatsBatcher.EventCh <- worker.StatsEvent{
		UserId: user.Id,
		Kind:   models.StatsHabit,
		Op:     worker.StatsOpCreate,
		Day:    day,
	}

	return checkIn, nil
}

const checkInListLimit = 90

func (s *Service) ListHabitCheckIns(ctx context.Context, user models.User, habitId string) ([]models.HabitCheckIn, error) {
	return s.Store.ListHabitCheckIns(ctx, user.Id, habitId, checkInListLimit)
}
