package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/bracket-live/models"
	"github.com/google/uuid"
)

// InMemoryStore — потокобезопасное хранилище в памяти с той же семантикой
// условных записей, что и у postgres-реализаций. Используется юнит-тестами
// и локальной разработкой без БД.
type InMemoryStore struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]models.User
	tournaments map[uuid.UUID]models.Tournament
	players     map[uuid.UUID][]uuid.UUID // tournamentID -> user ids, порядок регистрации
	matches     map[uuid.UUID]models.Match
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:       make(map[uuid.UUID]models.User),
		tournaments: make(map[uuid.UUID]models.Tournament),
		players:     make(map[uuid.UUID][]uuid.UUID),
		matches:     make(map[uuid.UUID]models.Match),
	}
}

func (s *InMemoryStore) Users() UserRepository             { return (*memoryUserRepo)(s) }
func (s *InMemoryStore) Tournaments() TournamentRepository { return (*memoryTournamentRepo)(s) }
func (s *InMemoryStore) Matches() MatchRepository          { return (*memoryMatchRepo)(s) }

// TxRunner хранилища в памяти не даёт настоящей атомарности; для тестов
// сервисного слоя достаточно сквозного выполнения.
func (s *InMemoryStore) TxRunner() TxRunner { return memoryTxRunner{} }

type memoryTxRunner struct{}

func (memoryTxRunner) RunInTx(ctx context.Context, fn func(exec SQLExecutor) error) error {
	return fn(nil)
}

type memoryUserRepo InMemoryStore

func (r *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrEmailTaken
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepo) UpdateAvatarKey(ctx context.Context, id uuid.UUID, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.AvatarKey = key
	r.users[id] = u
	return nil
}

func (r *memoryUserRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

type memoryTournamentRepo InMemoryStore

func (r *memoryTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tournament.CreatedAt.IsZero() {
		tournament.CreatedAt = time.Now()
	}
	stored := *tournament
	stored.Players = nil
	r.tournaments[tournament.ID] = stored
	return nil
}

func (r *memoryTournamentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	t.Players = r.playersLocked(id)
	return &t, nil
}

func (r *memoryTournamentRepo) List(ctx context.Context) ([]*models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Tournament, 0, len(r.tournaments))
	for id, t := range r.tournaments {
		t := t
		t.Players = r.playersLocked(id)
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryTournamentRepo) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Tournament, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Tournament, 0)
	for _, t := range all {
		if t.CreatorID == creatorID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memoryTournamentRepo) playersLocked(tournamentID uuid.UUID) []models.User {
	ids := r.players[tournamentID]
	players := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			players = append(players, u)
		}
	}
	return players
}

func (r *memoryTournamentRepo) AddPlayer(ctx context.Context, tournamentID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[tournamentID]; !ok {
		return ErrTournamentNotFound
	}
	for _, id := range r.players[tournamentID] {
		if id == userID {
			return ErrAlreadyJoined
		}
	}
	r.players[tournamentID] = append(r.players[tournamentID], userID)
	return nil
}

func (r *memoryTournamentRepo) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, from, to models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok || t.Status != from {
		return ErrStatusConflict
	}
	t.Status = to
	r.tournaments[id] = t
	return nil
}

func (r *memoryTournamentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	delete(r.players, id)
	for mid, m := range r.matches {
		if m.TournamentID == id {
			delete(r.matches, mid)
		}
	}
	return nil
}

func (r *memoryTournamentRepo) CountByStatus(ctx context.Context, status models.TournamentStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, t := range r.tournaments {
		if t.Status == status {
			count++
		}
	}
	return count, nil
}

type memoryMatchRepo InMemoryStore

func (r *memoryMatchRepo) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		r.matches[m.ID] = *m
	}
	return nil
}

func (r *memoryMatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return &m, nil
}

func (r *memoryMatchRepo) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (r *memoryMatchRepo) SetWinner(ctx context.Context, id, winnerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	if m.WinnerID != nil {
		return ErrWinnerAlreadySet
	}
	m.WinnerID = &winnerID
	r.matches[id] = m
	return nil
}

func (r *memoryMatchRepo) AssignSlot(ctx context.Context, id uuid.UUID, slot int, playerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	switch slot {
	case 1:
		if m.Player1ID != nil {
			return ErrSlotOccupied
		}
		m.Player1ID = &playerID
	case 2:
		if m.Player2ID != nil {
			return ErrSlotOccupied
		}
		m.Player2ID = &playerID
	default:
		return ErrSlotOccupied
	}
	r.matches[id] = m
	return nil
}

func (r *memoryMatchRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches), nil
}
