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

type GoalParams struct {
	Title    string
	Target   int
	Progress int
	DueDay   string
}

func (s *Service) CreateGoal(ctx context.Context, user models.User, params GoalParams) (models.Goal, error) {
	if err := validateGoalParams(params); err != nil {
		return models.Goal{}, err
	}

	goalId, err := uuid.NewV7()
	if err != nil {
		return models.Goal{}, err
	}

	now := time.Now()

	goal := models.Goal{
		Id:       goalId.String(),
		UserId:   user.Id,
		Title:    params.Title,
		Target:   params.Target,
		Progress: params.Progress,
		DueDay:   params.DueDay,
		Created:  now.Unix(),
		Updated:  now.Unix(),
	}
	goal.Completed = goal.Target > 0 && goal.Progress >= goal.Target

	if err := s.Store.CreateGoal(ctx, goal); err != nil {
		return models.Goal{}, err
	}

	s.StatsBatcher.EventCh <- worker.StatsEvent{
		UserId: user.Id,
		Kind:   models.StatsGoal,
		Op:     worker.StatsOpCreate,
		Day:    now.Format("2006-01-02"),
	}

	return goal, nil
}

func (s *Service) GetGoal(ctx context.Context, user models.User, goalId string) (models.Goal, error) {
	goal, err := s.Store.GetGoal(ctx, user.Id, goalId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Goal{}, ErrNotFound
		}
		return models.Goal{}, err
	}

	return goal, nil
}

func (s *Service) UpdateGoal(ctx context.Context, user models.User, goalId string, params GoalParams) (models.Goal, error) {
	if err := validateGoalParams(params); err != nil {
		return models.Goal{}, err
	}

	existing, err := s.Store.GetGoal(ctx, user.Id, goalId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Goal{}, ErrNotFound
		}
		return models.Goal{}, err
	}

	updated := existing
	updated.Title = params.Title
	updated.Target = params.Target
	updated.Progress = params.Progress
	updated.DueDay = params.DueDay
	updated.Completed = updated.Target > 0 && updated.Progress >= updated.Target
	updated.Updated = time.Now().Unix()

	result, err := s.Store.UpdateGoal(ctx, updated)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Goal{}, ErrNotFound
		}
		return models.Goal{}, err
	}

	return result, nil
}

func (s *Service) DeleteGoal(ctx context.Context, user models.User, goalId string) error {
	if err := s.Store.DeleteGoal(ctx, user.Id, goalId); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.StatsBatcher.EventCh <- worker.StatsEvent{
		UserId: user.Id,
		Kind:   models.StatsGoal,
		Op:     worker.StatsOpDelete,
	}

	return nil
}

func (s *Service) ListGoals(ctx context.Context, user models.User) ([]models.Goal, error) {
	return s.Store.ListGoals(ctx, user.Id)
}

// GetStats returns the aggregate for one kind; a user with no events
// yet gets a zero aggregate, not an error.
func (s *Service) GetStats(ctx context.Context, user models.User, kind models.StatsKind) (models.Stats, error) {
	if kind != models.StatsJournal && kind != models.StatsHabit && kind != models.StatsGoal {
		return models.Stats{}, validationErr("kind", "must be journal, habit, or goal")
	}

	stats, err := s.Store.GetStats(ctx, user.Id, kind)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Stats{UserId: user.Id, Kind: kind}, nil
		}
		return models.Stats{}, err
	}

	return stats, nil
}
