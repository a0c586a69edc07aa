package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	contestservice "crucible/contexts/contest-core/contest-service"
	contesterrors "crucible/contexts/contest-core/contest-service/domain/errors"
	contesthttp "crucible/contexts/contest-core/contest-service/transport/http"
	entryservice "crucible/contexts/contest-core/entry-service"
	entryerrors "crucible/contexts/contest-core/entry-service/domain/errors"
	entryservices "crucible/contexts/contest-core/entry-service/domain/services"
	entryhttp "crucible/contexts/contest-core/entry-service/transport/http"
	judgingengine "crucible/contexts/contest-core/judging-engine"
	judgingerrors "crucible/contexts/contest-core/judging-engine/domain/errors"
	judginghttp "crucible/contexts/contest-core/judging-engine/transport/http"
	payoutengine "crucible/contexts/contest-core/payout-engine"
	payouterrors "crucible/contexts/contest-core/payout-engine/domain/errors"
	payouthttp "crucible/contexts/contest-core/payout-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "crucible/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	contests contestservice.Module
	entries  entryservice.Module
	judging  judgingengine.Module
	payouts  payoutengine.Module
}

func New(
	contests contestservice.Module,
	entries entryservice.Module,
	judging judgingengine.Module,
	payouts payoutengine.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		contests: contests,
		entries:  entries,
		judging:  judging,
		payouts:  payouts,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /contests", s.handleCreateContest)
	s.mux.HandleFunc("GET /contests", s.handleListContests)
	s.mux.HandleFunc("GET /contests/{contest_id}", s.handleGetContest)
	s.mux.HandleFunc("POST /contests/{contest_id}/activate", s.handleActivateContest)
	s.mux.HandleFunc("GET /contests/{contest_id}/history", s.handleContestHistory)

	s.mux.HandleFunc("POST /entries", s.handleSubmitEntry)
	s.mux.HandleFunc("GET /entries/{entry_id}", s.handleGetEntry)
	s.mux.HandleFunc("GET /contests/{contest_id}/entries", s.handleListContestEntries)

	s.mux.HandleFunc("POST /judgments", s.handleRecordJudgment)
	s.mux.HandleFunc("GET /contests/{contest_id}/standings", s.handleStandings)

	s.mux.HandleFunc("POST /contests/{contest_id}/finalize", s.handleFinalizeContest)
	s.mux.HandleFunc("POST /contests/{contest_id}/cancel", s.handleCancelContest)
	s.mux.HandleFunc("GET /contests/{contest_id}/results", s.handleContestResults)
}

func (s *Server) handleCreateContest(w http.ResponseWriter, r *http.Request) {
	moderatorID := r.Header.Get("X-User-Id")
	if strings.TrimSpace(moderatorID) == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req contesthttp.CreateContestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.contests.Handler.CreateContestHandler(
		r.Context(),
		moderatorID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListContests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}

	resp, err := s.contests.Handler.ListContestsHandler(r.Context(), query.Get("status"), limit)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetContest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contests.Handler.GetContestHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActivateContest(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get("X-User-Id")
	if strings.TrimSpace(actorID) == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req contesthttp.ActivateContestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	resp, err := s.contests.Handler.ActivateContestHandler(
		r.Context(),
		r.PathValue("contest_id"),
		actorID,
		req,
	)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContestHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contests.Handler.StateHistoryHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitEntry(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if strings.TrimSpace(userID) == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req entryhttp.SubmitEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.entries.Handler.SubmitEntryHandler(
		r.Context(),
		userID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeEntryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	resp, err := s.entries.Handler.GetEntryHandler(r.Context(), r.PathValue("entry_id"))
	if err != nil {
		writeEntryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListContestEntries(w http.ResponseWriter, r *http.Request) {
	resp, err := s.entries.Handler.ListContestEntriesHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeEntryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordJudgment(w http.ResponseWriter, r *http.Request) {
	judgeID := r.Header.Get("X-User-Id")

	var req judginghttp.RecordJudgmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.judging.Handler.RecordJudgmentHandler(r.Context(), judgeID, req); err != nil {
		writeJudgingDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	resp, err := s.judging.Handler.StandingsHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeJudgingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalizeContest(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get("X-User-Id")
	if strings.TrimSpace(actorID) == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req payouthttp.FinalizeContestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	resp, err := s.payouts.Handler.FinalizeContestHandler(
		r.Context(),
		r.PathValue("contest_id"),
		actorID,
		req,
	)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelContest(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get("X-User-Id")
	if strings.TrimSpace(actorID) == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req payouthttp.CancelContestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	resp, err := s.payouts.Handler.CancelContestHandler(
		r.Context(),
		r.PathValue("contest_id"),
		actorID,
		req,
	)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContestResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payouts.Handler.ContestResultsHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeContestDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contesterrors.ErrContestNotFound):
		writeError(w, http.StatusNotFound, "contest_not_found", err.Error())
	case errors.Is(err, contesterrors.ErrInvalidContestInput):
		writeError(w, http.StatusBadRequest, "invalid_contest_input", err.Error())
	case errors.Is(err, contesterrors.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, contesterrors.ErrContestConflict):
		writeError(w, http.StatusConflict, "contest_conflict", err.Error())
	case errors.Is(err, contesterrors.ErrIdempotencyKeyRequired):
		writeError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, contesterrors.ErrIdempotencyConflict):
		writeError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEntryDomainError(w http.ResponseWriter, err error) {
	var validation *entryservices.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusUnprocessableEntity, entryhttp.ValidationFailureResponse{
			Valid:     false,
			ErrorKind: string(validation.Kind),
			Message:   validation.Message,
		})
		return
	}
	switch {
	case errors.Is(err, entryerrors.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "entry_not_found", err.Error())
	case errors.Is(err, entryerrors.ErrContestNotFound):
		writeError(w, http.StatusNotFound, "contest_not_found", err.Error())
	case errors.Is(err, entryerrors.ErrImageNotFound):
		writeError(w, http.StatusNotFound, "image_not_found", err.Error())
	case errors.Is(err, entryerrors.ErrInsufficientBalance):
		writeError(w, http.StatusPaymentRequired, "insufficient_balance", err.Error())
	case errors.Is(err, entryerrors.ErrInvalidSubmissionInput):
		writeError(w, http.StatusBadRequest, "invalid_submission_input", err.Error())
	case errors.Is(err, entryerrors.ErrEntryConflict):
		writeError(w, http.StatusConflict, "entry_conflict", err.Error())
	case errors.Is(err, entryerrors.ErrIdempotencyKeyRequired):
		writeError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, entryerrors.ErrIdempotencyConflict):
		writeError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeJudgingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, judgingerrors.ErrContestNotFound):
		writeError(w, http.StatusNotFound, "contest_not_found", err.Error())
	case errors.Is(err, judgingerrors.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "entry_not_found", err.Error())
	case errors.Is(err, judgingerrors.ErrContestNotJudgeable):
		writeError(w, http.StatusConflict, "contest_not_judgeable", err.Error())
	case errors.Is(err, judgingerrors.ErrInvalidJudgmentInput):
		writeError(w, http.StatusBadRequest, "invalid_judgment_input", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePayoutDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payouterrors.ErrContestNotFound):
		writeError(w, http.StatusNotFound, "contest_not_found", err.Error())
	case errors.Is(err, payouterrors.ErrContestNotFinalizable):
		writeError(w, http.StatusConflict, "contest_not_finalizable", err.Error())
	case errors.Is(err, payouterrors.ErrContestNotCancellable):
		writeError(w, http.StatusConflict, "contest_not_cancellable", err.Error())
	case errors.Is(err, payouterrors.ErrContestNotCompleted):
		writeError(w, http.StatusConflict, "contest_not_completed", err.Error())
	case errors.Is(err, payouterrors.ErrInvalidPrizeInput):
		writeError(w, http.StatusBadRequest, "invalid_prize_input", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, contesthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
