package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-live/brackets"
	"github.com/Dosada05/bracket-live/models"
	"github.com/Dosada05/bracket-live/repositories"
	"github.com/google/uuid"
)

// Проигранная гонка за слот преемника перечитывается и повторяется;
// больше двух претендентов на матч быть не может, запас — на случай
// транзиентных ошибок хранилища.
const slotFillRetries = 3

// RecordWinnerResult — результат записи победителя: обновлённый матч и
// либо обновлённый следующий матч, либо завершённый турнир (для финала).
type RecordWinnerResult struct {
	Match      *models.Match      `json:"match"`
	NextMatch  *models.Match      `json:"next_match,omitempty"`
	Tournament *models.Tournament `json:"tournament,omitempty"`
}

type MatchService interface {
	RecordWinner(ctx context.Context, tournamentID, matchID, winnerID, actorID uuid.UUID) (*RecordWinnerResult, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error)
}

type matchService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	hub            Broadcaster
}

func NewMatchService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	hub Broadcaster,
) MatchService {
	return &matchService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		hub:            hub,
	}
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %s: %w", tournamentID, err)
	}
	return matches, nil
}

// RecordWinner — единственный путь записи результата матча. Проверки идут
// строго по порядку: создатель турнира, существование матча, победитель ещё
// не записан, победитель — один из игроков матча. При любой непройденной
// проверке состояние не меняется и событие не рассылается.
func (s *matchService) RecordWinner(ctx context.Context, tournamentID, matchID, winnerID, actorID uuid.UUID) (*RecordWinnerResult, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if tournament.CreatorID != actorID {
		return nil, ErrForbiddenOperation
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if match.TournamentID != tournamentID {
		return nil, ErrMatchNotFound
	}
	if match.WinnerID != nil {
		return nil, ErrMatchAlreadyDecided
	}
	if !match.HasPlayer(winnerID) {
		return nil, ErrInvalidWinner
	}

	// Условная запись: пустой winner — критическая секция, вторая попытка
	// (в том числе параллельная) отклоняется, а не проглатывается.
	if err := s.matchRepo.SetWinner(ctx, matchID, winnerID); err != nil {
		if errors.Is(err, repositories.ErrWinnerAlreadySet) {
			return nil, ErrMatchAlreadyDecided
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	match.WinnerID = &winnerID

	// Флаг занятости поднимается только после того, как запись прошла:
	// отклонённый вызов не рассылает вообще ничего.
	room := brackets.TournamentRoom(tournamentID)
	s.hub.BroadcastToRoom(room, brackets.Message{
		Type:    brackets.EventLoader,
		Payload: brackets.LoaderPayload{Scope: "round", Active: true, TournamentID: &tournamentID},
	})
	defer s.hub.BroadcastToRoom(room, brackets.Message{
		Type:    brackets.EventLoader,
		Payload: brackets.LoaderPayload{Scope: "round", Active: false, TournamentID: &tournamentID},
	})

	result := &RecordWinnerResult{Match: match}

	if match.NextMatchID != nil {
		next, err := s.fillSuccessorSlot(ctx, *match.NextMatchID, winnerID)
		if err != nil {
			return nil, err
		}
		result.NextMatch = next

		s.hub.BroadcastToRoom(room, brackets.Message{Type: brackets.EventMatchUpdated, Payload: result})
		return result, nil
	}

	// Финал: завершаем турнир.
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournamentID, models.StatusStarted, models.StatusFinished); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: tournament %s is not in the started status", ErrStoreConflict, tournamentID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tournament.Status = models.StatusFinished
	result.Tournament = tournament

	s.hub.BroadcastToRoom(room, brackets.Message{Type: brackets.EventMatchUpdated, Payload: result})
	s.hub.BroadcastAll(brackets.Message{
		Type:    brackets.EventStatusChanged,
		Payload: map[string]interface{}{"id": tournamentID, "status": models.StatusFinished},
	})
	return result, nil
}

// fillSuccessorSlot кладёт победителя в первый свободный слот следующего
// матча. Какой физический слот достанется — гонка между парными матчами;
// на честность не влияет, посев после первого раунда значения не имеет.
// Повтор с тем же победителем — no-op, поэтому операцию безопасно
// ретраить после проигранной гонки.
func (s *matchService) fillSuccessorSlot(ctx context.Context, nextID, winnerID uuid.UUID) (*models.Match, error) {
	for attempt := 0; attempt < slotFillRetries; attempt++ {
		next, err := s.matchRepo.GetByID(ctx, nextID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if next.HasPlayer(winnerID) {
			return next, nil
		}

		slot := 0
		switch {
		case next.Player1ID == nil:
			slot = 1
		case next.Player2ID == nil:
			slot = 2
		default:
			// Оба слота заняты другими игроками: у матча не может быть
			// третьего предшественника.
			return nil, fmt.Errorf("%w: no free slot in match %s", ErrStoreConflict, nextID)
		}

		err = s.matchRepo.AssignSlot(ctx, nextID, slot, winnerID)
		if err == nil {
			if slot == 1 {
				next.Player1ID = &winnerID
			} else {
				next.Player2ID = &winnerID
			}
			return next, nil
		}
		if errors.Is(err, repositories.ErrSlotOccupied) {
			// Парный матч успел занять слот — перечитываем и пробуем другой.
			continue
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil, fmt.Errorf("%w: could not fill successor match %s after %d attempts", ErrStoreUnavailable, nextID, slotFillRetries)
}
