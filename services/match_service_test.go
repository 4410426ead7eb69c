package services

import (
	"context"
	"sync"
	"testing"

	"github.com/Dosada05/bracket-live/brackets"
	"github.com/Dosada05/bracket-live/models"
	"github.com/Dosada05/bracket-live/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedBracket кладёт в хранилище мини-сетку из трёх матчей: два полуфинала,
// сходящиеся в финал, с игроками players[0..3].
func seedBracket(t *testing.T, store *repositories.InMemoryStore, tournamentID uuid.UUID, players []uuid.UUID) (semi1, semi2, final *models.Match) {
	t.Helper()
	require.Len(t, players, 4)

	final = &models.Match{ID: uuid.New(), TournamentID: tournamentID, Round: 2, Position: 0}
	semi1 = &models.Match{
		ID: uuid.New(), TournamentID: tournamentID, Round: 1, Position: 0,
		Player1ID: &players[0], Player2ID: &players[1], NextMatchID: &final.ID,
	}
	semi2 = &models.Match{
		ID: uuid.New(), TournamentID: tournamentID, Round: 1, Position: 1,
		Player1ID: &players[2], Player2ID: &players[3], NextMatchID: &final.ID,
	}
	require.NoError(t, store.Matches().CreateBatch(context.Background(), nil, []*models.Match{semi1, semi2, final}))
	return semi1, semi2, final
}

func TestRecordWinnerPreconditions(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewInMemoryStore()
	hub := newFakeHub()
	svc := NewMatchService(store.Tournaments(), store.Matches(), hub)

	creator := seedUser(t, store, "creator@example.com")
	stranger := seedUser(t, store, "stranger@example.com")
	tournament, players := seedTournament(t, store, creator.ID, models.StatusStarted, 4)
	semi1, _, _ := seedBracket(t, store, tournament.ID, players)

	t.Run("tournament not found", func(t *testing.T) {
		_, err := svc.RecordWinner(ctx, uuid.New(), semi1.ID, players[0], creator.ID)
		assert.ErrorIs(t, err, ErrTournamentNotFound)
	})

	t.Run("forbidden for non-creator before match lookup", func(t *testing.T) {
		_, err := svc.RecordWinner(ctx, tournament.ID, uuid.New(), players[0], stranger.ID)
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})

	t.Run("match not found", func(t *testing.T) {
		_, err := svc.RecordWinner(ctx, tournament.ID, uuid.New(), players[0], creator.ID)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("match from another tournament", func(t *testing.T) {
		other, otherPlayers := seedTournament(t, store, creator.ID, models.StatusStarted, 4)
		otherSemi, _, _ := seedBracket(t, store, other.ID, otherPlayers)
		_, err := svc.RecordWinner(ctx, tournament.ID, otherSemi.ID, otherPlayers[0], creator.ID)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("winner must be a match player", func(t *testing.T) {
		_, err := svc.RecordWinner(ctx, tournament.ID, semi1.ID, players[2], creator.ID)
		assert.ErrorIs(t, err, ErrInvalidWinner)
	})

	// Никакая из отклонённых операций не должна была ничего записать.
	stored, err := store.Matches().GetByID(ctx, semi1.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.WinnerID)
	assert.Empty(t, hub.roomMessagesOfType(brackets.TournamentRoom(tournament.ID), brackets.EventMatchUpdated))
}

func TestRecordWinnerPropagatesToNextMatch(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewInMemoryStore()
	hub := newFakeHub()
	svc := NewMatchService(store.Tournaments(), store.Matches(), hub)

	creator := seedUser(t, store, "creator@example.com")
	tournament, players := seedTournament(t, store, creator.ID, models.StatusStarted, 4)
	semi1, semi2, final := seedBracket(t, store, tournament.ID, players)

	result, err := svc.RecordWinner(ctx, tournament.ID, semi1.ID, players[0], creator.ID)
	require.NoError(t, err)
	require.NotNil(t, result.NextMatch)
	assert.Equal(t, final.ID, result.NextMatch.ID)
	require.NotNil(t, result.Match.WinnerID)
	assert.Equal(t, players[0], *result.Match.WinnerID)

	result, err = svc.RecordWinner(ctx, tournament.ID, semi2.ID, players[3], creator.ID)
	require.NoError(t, err)

	storedFinal, err := store.Matches().GetByID(ctx, final.ID)
	require.NoError(t, err)
	require.NotNil(t, storedFinal.Player1ID)
	require.NotNil(t, storedFinal.Player2ID)
	assert.ElementsMatch(t,
		[]uuid.UUID{players[0], players[3]},
		[]uuid.UUID{*storedFinal.Player1ID, *storedFinal.Player2ID})

	events := hub.roomMessagesOfType(brackets.TournamentRoom(tournament.ID), brackets.EventMatchUpdated)
	assert.Len(t, events, 2)
}

func TestRecordWinnerRejectsSecondWrite(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewInMemoryStore()
	hub := newFakeHub()
	svc := NewMatchService(store.Tournaments(), store.Matches(), hub)

	creator := seedUser(t, store, "creator@example.com")
	tournament, players := seedTournament(t, store, creator.ID, models.StatusStarted, 4)
	semi1, _, _ := seedBracket(t, store, tournament.ID, players)

	_, err := svc.RecordWinner(ctx, tournament.ID, semi1.ID, players[0], creator.ID)
	require.NoError(t, err)

	room := brackets.TournamentRoom(tournament.ID)
	broadcastsAfterSuccess := len(hub.roomMessages(room))

	// Повтор с тем же победителем тоже отклоняется: запись одноразовая.
	_, err = svc.RecordWinner(ctx, tournament.ID, semi1.ID, players[0], creator.ID)
	assert.ErrorIs(t, err, ErrMatchAlreadyDecided)

	_, err = svc.RecordWinner(ctx, tournament.ID, semi1.ID, players[1], creator.ID)
	assert.ErrorIs(t, err, ErrMatchAlreadyDecided)

	// Отклонённые записи не рассылают ничего, включая транзиентный флаг.
	assert.Equal(t, broadcastsAfterSuccess, len(hub.roomMessages(room)))
}

func TestRecordWinnerFinalFinishesTournament(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewInMemoryStore()
	hub := newFakeHub()
	svc := NewMatchService(store.Tournaments(), store.Matches(), hub)

	creator := seedUser(t, store, "creator@example.com")
	tournament, players := seedTournament(t, store, creator.ID, models.StatusStarted, 2)

	final := &models.Match{
		ID: uuid.New(), TournamentID: tournament.ID, Round: 1, Position: 0,
		Player1ID: &players[0], Player2ID: &players[1],
	}
	require.NoError(t, store.Matches().CreateBatch(ctx, nil, []*models.Match{final}))

	result, err := svc.RecordWinner(ctx, tournament.ID, final.ID, players[1], creator.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Tournament)
	assert.Equal(t, models.StatusFinished, result.Tournament.Status)
	assert.Nil(t, result.NextMatch)

	stored, err := store.Tournaments().GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, stored.Status)

	finished := false
	for _, msg := range hub.allMessages() {
		if msg.Type == brackets.EventStatusChanged {
			finished = true
		}
	}
	assert.True(t, finished, "finishing the tournament must be announced")
}

func TestRecordWinnerConcurrentSiblingsFillDistinctSlots(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewInMemoryStore()
	svc := NewMatchService(store.Tournaments(), store.Matches(), newFakeHub())

	creator := seedUser(t, store, "creator@example.com")
	tournament, players := seedTournament(t, store, creator.ID, models.StatusStarted, 4)
	semi1, semi2, final := seedBracket(t, store, tournament.ID, players)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.RecordWinner(ctx, tournament.ID, semi1.ID, players[1], creator.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.RecordWinner(ctx, tournament.ID, semi2.ID, players[2], creator.ID)
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	storedFinal, err := store.Matches().GetByID(ctx, final.ID)
	require.NoError(t, err)
	require.NotNil(t, storedFinal.Player1ID)
	require.NotNil(t, storedFinal.Player2ID)
	assert.ElementsMatch(t,
		[]uuid.UUID{players[1], players[2]},
		[]uuid.UUID{*storedFinal.Player1ID, *storedFinal.Player2ID})
}
