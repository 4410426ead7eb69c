package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/bracket-live/middleware"
	"github.com/Dosada05/bracket-live/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) RecordWinner(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	tournamentID, err := tournamentIDFromURL(r)
	if err != nil {
		notFoundResponse(w, r)
		return
	}
	matchID, err := uuid.Parse(chi.URLParam(r, "matchID"))
	if err != nil {
		notFoundResponse(w, r)
		return
	}

	var input struct {
		WinnerID uuid.UUID `json:"winner_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WinnerID == uuid.Nil {
		badRequestResponse(w, r, errors.New("winner_id is required"))
		return
	}

	result, err := h.matchService.RecordWinner(r.Context(), tournamentID, matchID, input.WinnerID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := tournamentIDFromURL(r)
	if err != nil {
		notFoundResponse(w, r)
		return
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
