package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/Dosada05/bracket-live/brackets"
	"github.com/Dosada05/bracket-live/models"
	"github.com/Dosada05/bracket-live/repositories"
	"github.com/google/uuid"
)

type BracketService interface {
	Generate(ctx context.Context, tournamentID, actorID uuid.UUID) ([]*models.Match, error)
}

type bracketService struct {
	txRunner       repositories.TxRunner
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	matchService   MatchService
	hub            Broadcaster

	// rand фиксируется в тестах для детерминированной жеребьёвки.
	rand *rand.Rand
}

func NewBracketService(
	txRunner repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	matchService MatchService,
	hub Broadcaster,
	rnd *rand.Rand,
) BracketService {
	return &bracketService{
		txRunner:       txRunner,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		matchService:   matchService,
		hub:            hub,
		rand:           rnd,
	}
}

// Generate строит и сохраняет сетку single elimination и переводит турнир
// в статус started. Сетка и смена статуса пишутся одной транзакцией:
// параллельный вызов проиграет условный переход pending→started и не
// оставит вторую сетку.
func (s *bracketService) Generate(ctx context.Context, tournamentID, actorID uuid.UUID) ([]*models.Match, error) {
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
	if tournament.Status != models.StatusPending {
		return nil, ErrTournamentInvalidState
	}
	if len(tournament.Players) < 2 {
		return nil, ErrInsufficientPlayers
	}

	players := make([]uuid.UUID, len(tournament.Players))
	for i, p := range tournament.Players {
		players[i] = p.ID
	}

	plan, err := brackets.BuildSingleElimination(brackets.BuildParams{
		TournamentID: tournamentID,
		Players:      players,
		Rand:         s.rand,
	})
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughPlayers) {
			return nil, ErrInsufficientPlayers
		}
		return nil, fmt.Errorf("failed to build bracket for tournament %s: %w", tournamentID, err)
	}

	room := brackets.TournamentRoom(tournamentID)
	s.hub.BroadcastToRoom(room, brackets.Message{
		Type:    brackets.EventLoader,
		Payload: brackets.LoaderPayload{Scope: "bracket", Active: true, TournamentID: &tournamentID},
	})
	defer s.hub.BroadcastToRoom(room, brackets.Message{
		Type:    brackets.EventLoader,
		Payload: brackets.LoaderPayload{Scope: "bracket", Active: false, TournamentID: &tournamentID},
	})

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.CreateBatch(ctx, exec, plan.Matches); err != nil {
			return err
		}
		return s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusPending, models.StatusStarted)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			// Кто-то успел сгенерировать сетку между проверкой и записью.
			return nil, ErrTournamentInvalidState
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Bye-матчи закрываются обычной записью победителя: единственный игрок
	// матча первого раунда проходит дальше тем же путём, что и победитель
	// сыгранного матча.
	if err := s.advanceByes(ctx, tournamentID, actorID, plan); err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.hub.BroadcastToRoom(room, brackets.Message{
		Type: brackets.EventBracketGenerated,
		Payload: map[string]interface{}{
			"tournament_id": tournamentID,
			"rounds":        plan.Rounds,
			"matches":       matches,
		},
	})
	s.hub.BroadcastAll(brackets.Message{
		Type:    brackets.EventStatusChanged,
		Payload: map[string]interface{}{"id": tournamentID, "status": models.StatusStarted},
	})
	return matches, nil
}

func (s *bracketService) advanceByes(ctx context.Context, tournamentID, actorID uuid.UUID, plan *brackets.Plan) error {
	for _, match := range plan.Round1() {
		sole := match.SolePlayer()
		if sole == nil {
			continue
		}
		_, err := s.matchService.RecordWinner(ctx, tournamentID, match.ID, *sole, actorID)
		if err != nil && !errors.Is(err, ErrMatchAlreadyDecided) {
			return fmt.Errorf("failed to advance bye in match %s: %w", match.ID, err)
		}
	}
	return nil
}
