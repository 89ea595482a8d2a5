package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/footysim/bet-engine/internal/bet-api/dto"
	"github.com/footysim/bet-engine/internal/bets"
	"github.com/footysim/bet-engine/internal/ledger"
	"github.com/footysim/bet-engine/internal/matches"
	"github.com/footysim/bet-engine/internal/odds"
)

// Server expõe a API de comando/consulta do engine pro consumidor
// externo (UI/CLI): colocar aposta, depositar, sacar, e as visões de
// conta, partidas, apostas e journal.
type Server struct {
	log       *zap.Logger
	matches   *matches.Postgres
	oddsLog   *odds.Log
	oddsCache *odds.Cache
	engine    *bets.Engine
	funds     *ledger.Manager
	ws        http.HandlerFunc // hub WebSocket (opcional)
}

func NewServer(log *zap.Logger, m *matches.Postgres, o *odds.Log, c *odds.Cache, e *bets.Engine, f *ledger.Manager, ws http.HandlerFunc) *Server {
	return &Server{log: log, matches: m, oddsLog: o, oddsCache: c, engine: e, funds: f, ws: ws}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/bets", s.placeBet)
	r.Get("/v1/bets", s.betHistory)
	r.Get("/v1/bets/{id}", s.getBet)

	r.Get("/v1/account", s.accountSummary)
	r.Post("/v1/account/deposit", s.deposit)
	r.Post("/v1/account/withdraw", s.withdraw)
	r.Get("/v1/account/transactions", s.transactions)

	r.Get("/v1/matches/scheduled", s.scheduledMatches)
	r.Get("/v1/matches/completed", s.completedMatches)
	r.Get("/v1/matches/results", s.resultsByStage)

	if s.ws != nil {
		r.Get("/ws", s.ws)
	}
	return r
}

// placeBet valida e coloca uma aposta. Erros de validação viram 4xx; a
// odd congelada e o retorno potencial voltam no corpo.
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.MatchID == "" {
		writeError(w, http.StatusBadRequest, "match_id required")
		return
	}

	b, err := s.engine.Place(r.Context(), req.MatchID, req.Side, req.StakeCents)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := s.engine.GetByID(r.Context(), id)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) betHistory(w http.ResponseWriter, r *http.Request) {
	bs, err := s.engine.History(r.Context(), queryLimit(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	if bs == nil {
		bs = []bets.Bet{}
	}
	writeJSON(w, http.StatusOK, bs)
}

func (s *Server) accountSummary(w http.ResponseWriter, r *http.Request) {
	a, err := s.funds.Summary(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.fundsOp(w, r, s.funds.Deposit)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.fundsOp(w, r, s.funds.Withdraw)
}

func (s *Server) fundsOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, amount int64) (*ledger.Account, error)) {
	var req dto.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	a, err := op(r.Context(), req.AmountCents)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	ts, err := s.funds.Transactions(r.Context(), queryLimit(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	if ts == nil {
		ts = []ledger.Transaction{}
	}
	writeJSON(w, http.StatusOK, ts)
}

// scheduledMatches lista partidas agendadas com a última odd de cada
// uma. Odds saem do cache Redis quando possível; miss cai pro log no
// Postgres.
func (s *Server) scheduledMatches(w http.ResponseWriter, r *http.Request) {
	ms, err := s.matches.Scheduled(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}

	out := make([]dto.ScheduledMatch, 0, len(ms))
	for _, m := range ms {
		sm := dto.ScheduledMatch{
			MatchID:   m.ID,
			Stage:     m.StageName,
			HomeTeam:  m.HomeTeamName,
			AwayTeam:  m.AwayTeamName,
			CreatedAt: m.CreatedAt,
		}
		sm.Odds = s.latestOdds(r, m.ID)
		out = append(out, sm)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) latestOdds(r *http.Request, matchID string) *odds.Snapshot {
	if s.oddsCache != nil {
		if snap, ok, err := s.oddsCache.GetCurrent(r.Context(), matchID); err == nil && ok {
			return snap
		}
	}
	snap, err := s.oddsLog.LatestActive(r.Context(), matchID)
	if err != nil {
		s.log.Warn("latest odds lookup failed", zap.String("match_id", matchID), zap.Error(err))
		return nil
	}
	return snap
}

func (s *Server) completedMatches(w http.ResponseWriter, r *http.Request) {
	ms, err := s.matches.RecentCompleted(r.Context(), queryLimit(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	out := make([]dto.CompletedMatch, 0, len(ms))
	for _, m := range ms {
		out = append(out, dto.NewCompletedMatch(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) resultsByStage(w http.ResponseWriter, r *http.Request) {
	groups, err := s.matches.CompletedByStage(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	out := make([]dto.StageResults, 0, len(groups))
	for _, g := range groups {
		sr := dto.StageResults{Stage: g.StageName, Matches: make([]dto.CompletedMatch, 0, len(g.Matches))}
		for _, m := range g.Matches {
			sr.Matches = append(sr.Matches, dto.NewCompletedMatch(m))
		}
		out = append(out, sr)
	}
	writeJSON(w, http.StatusOK, out)
}

// writeEngineError traduz a taxonomia de erros do engine pra HTTP.
// Erros de validação são esperados e recuperáveis; o resto é 500.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, bets.ErrInvalidSide):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, bets.ErrInvalidMatch):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, bets.ErrOddsUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.internalError(w, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}
