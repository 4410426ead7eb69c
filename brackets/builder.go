package brackets

import (
	"errors"
	"math/rand"

	"github.com/Dosada05/bracket-live/models"
	"github.com/google/uuid"
)

var ErrNotEnoughPlayers = errors.New("not enough players to build a single elimination bracket (minimum 2)")

// BuildParams — входные данные построения сетки.
type BuildParams struct {
	TournamentID uuid.UUID
	Players      []uuid.UUID

	// Rand задаёт источник случайности для перемешивания; nil — глобальный.
	Rand *rand.Rand
}

// Plan — полная структура сетки single elimination до сохранения:
// матчи всех раундов с проставленными ID и ссылками на следующий матч.
type Plan struct {
	Rounds  int
	Matches []*models.Match
}

// Round1 возвращает матчи первого раунда в порядке позиций.
func (p *Plan) Round1() []*models.Match {
	round1 := make([]*models.Match, 0, len(p.Matches))
	for _, m := range p.Matches {
		if m.Round == 1 {
			round1 = append(round1, m)
		}
	}
	return round1
}

// BuildSingleElimination строит дерево матчей: перемешивает участников,
// дополняет список до ближайшей степени двойки bye-слотами, разбивает на
// пары и связывает матч m раунда r с матчем m/2 раунда r+1.
//
// Bye-слоты распределяются по одному на матч (в хвост первого раунда),
// поэтому матч с двумя пустыми слотами невозможен: количество bye всегда
// меньше половины размера сетки.
func BuildSingleElimination(params BuildParams) (*Plan, error) {
	n := len(params.Players)
	if n < 2 {
		return nil, ErrNotEnoughPlayers
	}

	shuffled := make([]uuid.UUID, n)
	copy(shuffled, params.Players)
	if params.Rand != nil {
		params.Rand.Shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	} else {
		rand.Shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	}

	size := 1
	for size < n {
		size <<= 1
	}
	rounds := 0
	for p := size; p > 1; p >>= 1 {
		rounds++
	}
	byes := size - n

	// Слоты первого раунда: сначала полные пары, затем по одному
	// участнику на bye-матч.
	slots := make([]*uuid.UUID, size)
	fullPairs := size/2 - byes
	idx := 0
	for i := 0; i < fullPairs*2; i++ {
		slots[i] = &shuffled[idx]
		idx++
	}
	for i := fullPairs * 2; i < size; i += 2 {
		slots[i] = &shuffled[idx]
		idx++
	}

	matrix := make([][]*models.Match, rounds+1)
	for r := 1; r <= rounds; r++ {
		count := size >> uint(r)
		matrix[r] = make([]*models.Match, count)
		for m := 0; m < count; m++ {
			matrix[r][m] = &models.Match{
				ID:           uuid.New(),
				TournamentID: params.TournamentID,
				Round:        r,
				Position:     m,
			}
		}
	}

	for i := 0; i < size; i += 2 {
		match := matrix[1][i/2]
		match.Player1ID = slots[i]
		match.Player2ID = slots[i+1]
	}

	for r := 1; r < rounds; r++ {
		for m, match := range matrix[r] {
			nextID := matrix[r+1][m/2].ID
			match.NextMatchID = &nextID
		}
	}

	// Матчи перечисляются от финала к первому раунду: next_match_id
	// ссылается на строку старшего раунда, и при вставке в этом порядке
	// внешний ключ всегда находит уже существующую строку.
	plan := &Plan{Rounds: rounds}
	for r := rounds; r >= 1; r-- {
		plan.Matches = append(plan.Matches, matrix[r]...)
	}
	return plan, nil
}
