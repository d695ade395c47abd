package handler

import (
	"net/http"

	"praktikum_core/internal/api/middleware"
	"praktikum_core/internal/app/service"
	"praktikum_core/internal/common"

	"github.com/go-chi/chi/v5"
)

type ScoreboardHandler struct {
	statsService *service.StatsService
}

func NewScoreboardHandler(sts *service.StatsService) *ScoreboardHandler {
	return &ScoreboardHandler{statsService: sts}
}

func (h *ScoreboardHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.LecturerOnly)
	r.Get("/{assignmentID}/scoreboard", h.getScoreboard)
}

func (h *ScoreboardHandler) getScoreboard(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentID")

	board, err := h.statsService.BuildScoreboard(r.Context(), assignmentID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, board)
}
