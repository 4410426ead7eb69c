package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/bracket-live/brackets"
	"github.com/Dosada05/bracket-live/models"
	"github.com/Dosada05/bracket-live/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTournamentFixture(t *testing.T) (*repositories.InMemoryStore, *fakeHub, TournamentService) {
	t.Helper()
	store := repositories.NewInMemoryStore()
	hub := newFakeHub()
	svc := NewTournamentService(store.Tournaments(), store.Matches(), store.Users(), hub)
	return store, hub, svc
}

func TestCreateTournament(t *testing.T) {
	ctx := context.Background()
	store, hub, svc := newTournamentFixture(t)
	creator := seedUser(t, store, "creator@example.com")

	t.Run("title required", func(t *testing.T) {
		_, err := svc.Create(ctx, creator.ID, CreateTournamentInput{Title: "  "})
		assert.ErrorIs(t, err, ErrTournamentTitleRequired)
	})

	t.Run("created pending with default start time", func(t *testing.T) {
		tournament, err := svc.Create(ctx, creator.ID, CreateTournamentInput{Title: " Summer Cup "})
		require.NoError(t, err)
		assert.Equal(t, "Summer Cup", tournament.Title)
		assert.Equal(t, models.StatusPending, tournament.Status)
		assert.Equal(t, creator.ID, tournament.CreatorID)
		assert.True(t, tournament.StartTime.After(time.Now()))

		var announced bool
		for _, msg := range hub.allMessages() {
			if msg.Type == brackets.EventTournamentCreated {
				announced = true
			}
		}
		assert.True(t, announced)
	})
}

func TestJoinTournament(t *testing.T) {
	ctx := context.Background()
	store, hub, svc := newTournamentFixture(t)
	creator := seedUser(t, store, "creator@example.com")
	player := seedUser(t, store, "player@example.com")

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Join(ctx, uuid.New(), player.ID)
		assert.ErrorIs(t, err, ErrTournamentNotFound)
	})

	t.Run("joins pending tournament", func(t *testing.T) {
		tournament, _ := seedTournament(t, store, creator.ID, models.StatusPending, 0)

		updated, err := svc.Join(ctx, tournament.ID, player.ID)
		require.NoError(t, err)
		require.Len(t, updated.Players, 1)
		assert.Equal(t, player.ID, updated.Players[0].ID)

		var announced bool
		for _, msg := range hub.allMessages() {
			if msg.Type == brackets.EventParticipantJoined {
				announced = true
			}
		}
		assert.True(t, announced)
	})

	t.Run("duplicate join rejected", func(t *testing.T) {
		tournament, _ := seedTournament(t, store, creator.ID, models.StatusPending, 0)
		_, err := svc.Join(ctx, tournament.ID, player.ID)
		require.NoError(t, err)
		_, err = svc.Join(ctx, tournament.ID, player.ID)
		assert.ErrorIs(t, err, ErrAlreadyJoined)
	})

	t.Run("roster is locked after start", func(t *testing.T) {
		for _, status := range []models.TournamentStatus{models.StatusStarted, models.StatusFinished} {
			tournament, _ := seedTournament(t, store, creator.ID, status, 0)
			_, err := svc.Join(ctx, tournament.ID, player.ID)
			assert.ErrorIs(t, err, ErrTournamentInvalidState, "status=%s", status)
		}
	})
}

func TestDeleteTournament(t *testing.T) {
	ctx := context.Background()
	store, hub, svc := newTournamentFixture(t)
	creator := seedUser(t, store, "creator@example.com")
	stranger := seedUser(t, store, "stranger@example.com")

	tournament, _ := seedTournament(t, store, creator.ID, models.StatusPending, 2)

	assert.ErrorIs(t, svc.Delete(ctx, tournament.ID, stranger.ID), ErrForbiddenOperation)
	require.NoError(t, svc.Delete(ctx, tournament.ID, creator.ID))
	assert.ErrorIs(t, svc.Delete(ctx, tournament.ID, creator.ID), ErrTournamentNotFound)

	var announced bool
	for _, msg := range hub.allMessages() {
		if msg.Type == brackets.EventTournamentDeleted {
			announced = true
		}
	}
	assert.True(t, announced)
}

func TestGetTournamentDetail(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newTournamentFixture(t)
	creator := seedUser(t, store, "creator@example.com")
	tournament, players := seedTournament(t, store, creator.ID, models.StatusStarted, 2)

	match := &models.Match{
		ID: uuid.New(), TournamentID: tournament.ID, Round: 1, Position: 0,
		Player1ID: &players[0], Player2ID: &players[1],
	}
	require.NoError(t, store.Matches().CreateBatch(ctx, nil, []*models.Match{match}))

	detail, err := svc.Get(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, detail.Tournament.ID)
	assert.Len(t, detail.Tournament.Players, 2)
	require.Len(t, detail.Matches, 1)
	assert.Equal(t, match.ID, detail.Matches[0].ID)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newTournamentFixture(t)
	creator := seedUser(t, store, "creator@example.com")
	other := seedUser(t, store, "other@example.com")

	mine, minePlayers := seedTournament(t, store, creator.ID, models.StatusStarted, 2)
	seedTournament(t, store, other.ID, models.StatusPending, 0)

	match := &models.Match{
		ID: uuid.New(), TournamentID: mine.ID, Round: 1, Position: 0,
		Player1ID: &minePlayers[0], Player2ID: &minePlayers[1],
	}
	require.NoError(t, store.Matches().CreateBatch(ctx, nil, []*models.Match{match}))

	data, err := svc.Dashboard(ctx, creator.ID)
	require.NoError(t, err)

	require.Len(t, data.Tournaments, 1)
	assert.Equal(t, mine.ID, data.Tournaments[0].ID)
	assert.Equal(t, 4, data.Stats.Users) // creator, other и два участника
	assert.Equal(t, 1, data.Stats.ActiveTournaments)
	assert.Equal(t, 1, data.Stats.Matches)
}
