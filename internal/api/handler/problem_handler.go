package handler

import (
	"encoding/json"
	"net/http"

	"praktikum_core/internal/api/middleware"
	"praktikum_core/internal/app/service"
	"praktikum_core/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService    *service.ProblemService
	submissionService *service.SubmissionService
	statsService      *service.StatsService
}

func NewProblemHandler(ps *service.ProblemService, ss *service.SubmissionService, sts *service.StatsService) *ProblemHandler {
	return &ProblemHandler{problemService: ps, submissionService: ss, statsService: sts}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/{problemID}", h.getProblem)
	r.Get("/{problemID}/submissions", h.getHistory)
	r.Get("/{problemID}/stats", h.getStats)
	r.Get("/languages", h.listLanguages)

	r.Group(func(lecturerRouter chi.Router) {
		lecturerRouter.Use(middleware.LecturerOnly)
		lecturerRouter.Post("/", h.createProblem)
	})
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	role, _ := middleware.GetUserRoleFromContext(r.Context())
	problemID := chi.URLParam(r, "problemID")

	problem, err := h.problemService.GetProblem(r.Context(), role, problemID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	problemID := chi.URLParam(r, "problemID")

	submissions, err := h.submissionService.GetHistory(r.Context(), userID, problemID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submissions)
}

func (h *ProblemHandler) getStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	problemID := chi.URLParam(r, "problemID")

	stats, err := h.statsService.GetStatsForUser(r.Context(), userID, problemID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *ProblemHandler) listLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.problemService.ListLanguages(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, languages)
}
