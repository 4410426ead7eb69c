package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/bracket-live/brackets"
	"github.com/Dosada05/bracket-live/models"
	"github.com/Dosada05/bracket-live/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Title     string    `json:"title"`
	Location  *string   `json:"location"`
	StartTime time.Time `json:"start_time"`
}

// TournamentDetail — турнир вместе с полным списком матчей; этим же чтением
// клиент восстанавливает состояние после переподключения.
type TournamentDetail struct {
	Tournament *models.Tournament `json:"tournament"`
	Matches    []*models.Match    `json:"matches"`
}

type DashboardData struct {
	Tournaments []*models.Tournament  `json:"tournaments"`
	Stats       models.DashboardStats `json:"stats"`
}

type TournamentService interface {
	Create(ctx context.Context, creatorID uuid.UUID, input CreateTournamentInput) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	Get(ctx context.Context, id uuid.UUID) (*TournamentDetail, error)
	Delete(ctx context.Context, id, actorID uuid.UUID) error
	Join(ctx context.Context, id, userID uuid.UUID) (*models.Tournament, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*DashboardData, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	userRepo       repositories.UserRepository
	hub            Broadcaster
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	hub Broadcaster,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		userRepo:       userRepo,
		hub:            hub,
	}
}

func (s *tournamentService) Create(ctx context.Context, creatorID uuid.UUID, input CreateTournamentInput) (*models.Tournament, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTournamentTitleRequired
	}
	startTime := input.StartTime
	if startTime.IsZero() {
		startTime = time.Now().Add(24 * time.Hour)
	}

	tournament := &models.Tournament{
		ID:        uuid.New(),
		Title:     title,
		Location:  input.Location,
		StartTime: startTime,
		CreatorID: creatorID,
		Status:    models.StatusPending,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.hub.BroadcastAll(brackets.Message{Type: brackets.EventTournamentCreated, Payload: tournament})
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) Get(ctx context.Context, id uuid.UUID) (*TournamentDetail, error) {
	detail := &TournamentDetail{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tournament, err := s.tournamentRepo.GetByID(gCtx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return fmt.Errorf("failed to fetch tournament %s: %w", id, err)
		}
		detail.Tournament = tournament
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch matches of tournament %s: %w", id, err)
		}
		detail.Matches = matches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *tournamentService) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to fetch tournament %s: %w", id, err)
	}
	if tournament.CreatorID != actorID {
		return ErrForbiddenOperation
	}

	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to delete tournament %s: %w", id, err)
	}

	s.hub.BroadcastAll(brackets.Message{Type: brackets.EventTournamentDeleted, Payload: tournament})
	return nil
}

func (s *tournamentService) Join(ctx context.Context, id, userID uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to fetch tournament %s: %w", id, err)
	}
	// Состав фиксируется генерацией сетки: после старта не присоединиться.
	if tournament.Status != models.StatusPending {
		return nil, ErrTournamentInvalidState
	}

	if err := s.tournamentRepo.AddPlayer(ctx, id, userID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyJoined):
			return nil, ErrAlreadyJoined
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to join tournament %s: %w", id, err)
	}

	updated, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload tournament %s: %w", id, err)
	}

	s.hub.BroadcastAll(brackets.Message{Type: brackets.EventParticipantJoined, Payload: updated})
	return updated, nil
}

func (s *tournamentService) Dashboard(ctx context.Context, userID uuid.UUID) (*DashboardData, error) {
	data := &DashboardData{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tournaments, err := s.tournamentRepo.ListByCreator(gCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to list tournaments of user %s: %w", userID, err)
		}
		data.Tournaments = tournaments
		return nil
	})
	g.Go(func() error {
		count, err := s.userRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		data.Stats.Users = count
		return nil
	})
	g.Go(func() error {
		count, err := s.tournamentRepo.CountByStatus(gCtx, models.StatusStarted)
		if err != nil {
			return fmt.Errorf("failed to count active tournaments: %w", err)
		}
		data.Stats.ActiveTournaments = count
		return nil
	})
	g.Go(func() error {
		count, err := s.matchRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count matches: %w", err)
		}
		data.Stats.Matches = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}
