package main

import (
	"bytes"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Simplici0/ringvirkning/internal/history"
	"github.com/Simplici0/ringvirkning/internal/preferences"
	"github.com/Simplici0/ringvirkning/internal/report"
	"github.com/Simplici0/ringvirkning/internal/ripple"
	"github.com/Simplici0/ringvirkning/internal/scenario"
	"github.com/Simplici0/ringvirkning/internal/session"
	"github.com/Simplici0/ringvirkning/internal/tenant"
)

type server struct {
	db         *sql.DB
	sessions   *session.Registry
	cookies    *cookieService
	defaultCfg ripple.Config
	logger     zerolog.Logger
}

// calculationRequest is shared by the stateless endpoints. Input and config are
// partial objects laid over the tenant's values, or over the defaults when no
// tenant is named.
type calculationRequest struct {
	TenantID   string             `json:"tenantId"`
	Input      json.RawMessage    `json:"input"`
	Config     json.RawMessage    `json:"config"`
	ScenarioID string             `json:"scenarioId"`
	Scenario   *scenario.Scenario `json:"scenario"`
}

type calculationResponse struct {
	Input       ripple.OrganizationInput `json:"input"`
	Config      ripple.Config            `json:"config"`
	Calculation ripple.Calculation       `json:"calculation"`
}

type simulatorRequest struct {
	Input      json.RawMessage    `json:"input"`
	Config     json.RawMessage    `json:"config"`
	ScenarioID string             `json:"scenarioId"`
	Scenario   *scenario.Scenario `json:"scenario"`
}

type snapshotRequest struct {
	Name string `json:"name"`
}

type comparisonSlotRequest struct {
	SnapshotID string `json:"snapshotId"`
}

type comparisonResponse struct {
	Left       string              `json:"left"`
	Right      string              `json:"right"`
	Comparison *history.Comparison `json:"comparison"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := tenant.List(r.Context(), s.db)
	if err != nil {
		s.logger.Error().Err(err).Msg("list tenants")
		s.writeError(w, http.StatusInternalServerError, "failed to load tenants")
		return
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	s.writeJSON(w, http.StatusOK, tenants)
}

func (s *server) handleDefaultConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.defaultCfg)
}

func (s *server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, scenario.Presets())
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, cfg, status, err := s.resolveCalculation(r, req)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, calculationResponse{
		Input:       input,
		Config:      cfg,
		Calculation: ripple.CalculateTotalRipple(input, cfg),
	})
}

func (s *server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req calculationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, cfg, status, err := s.resolveCalculation(r, req)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}

	sc, status, err := resolveScenario(req.ScenarioID, req.Scenario)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}
	if sc == nil {
		s.writeError(w, http.StatusBadRequest, "scenarioId or scenario is required")
		return
	}

	s.writeJSON(w, http.StatusOK, scenario.CompareScenarios(input, *sc, cfg))
}

func (s *server) resolveCalculation(r *http.Request, req calculationRequest) (ripple.OrganizationInput, ripple.Config, int, error) {
	baseInput := ripple.OrganizationInput{}
	baseCfg := s.defaultCfg
	if req.TenantID != "" {
		t, err := tenant.Get(r.Context(), s.db, req.TenantID)
		if errors.Is(err, tenant.ErrNotFound) {
			return baseInput, baseCfg, http.StatusNotFound, err
		}
		if err != nil {
			s.logger.Error().Err(err).Str("tenant", req.TenantID).Msg("load tenant")
			return baseInput, baseCfg, http.StatusInternalServerError, errors.New("failed to load tenant")
		}
		baseInput, baseCfg = t.Input, t.Config
	}

	input, err := overlay(req.Input, baseInput)
	if err != nil {
		return input, baseCfg, http.StatusBadRequest, errors.New("invalid input: " + err.Error())
	}
	cfg, err := overlay(req.Config, baseCfg)
	if err != nil {
		return input, cfg, http.StatusBadRequest, errors.New("invalid config: " + err.Error())
	}

	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return input, cfg, http.StatusBadRequest, errors.New("invalid input: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return input, cfg, http.StatusBadRequest, errors.New("invalid config: " + err.Error())
	}
	return input, cfg, http.StatusOK, nil
}

func resolveScenario(id string, inline *scenario.Scenario) (*scenario.Scenario, int, error) {
	if id != "" {
		p, err := scenario.Preset(id)
		if err != nil {
			return nil, http.StatusNotFound, err
		}
		return &p, http.StatusOK, nil
	}
	if inline != nil {
		if err := inline.Validate(); err != nil {
			return nil, http.StatusBadRequest, err
		}
	}
	return inline, http.StatusOK, nil
}

func (s *server) currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFrom(r.Context()))
	if err != nil {
		s.logger.Error().Err(err).Msg("load session")
		s.writeError(w, http.StatusInternalServerError, "failed to load session")
		return nil, false
	}
	return sess, true
}

func (s *server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Prefs())
}

func (s *server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}

	var p preferences.Prefs
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := p.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := sess.SetPrefs(r.Context(), p)
	switch {
	case errors.Is(err, tenant.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.logger.Error().Err(err).Str("session", sess.ID()).Msg("save preferences")
		s.writeError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *server) handleGetSimulator(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.State())
}

func (s *server) handlePutSimulator(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}

	var req simulatorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	current := sess.State()
	input, err := overlay(req.Input, current.Input)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid input: "+err.Error())
		return
	}
	cfg, err := overlay(req.Config, current.Config)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid config: "+err.Error())
		return
	}
	sc, status, err := resolveScenario(req.ScenarioID, req.Scenario)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}

	state, err := sess.Update(input, cfg, sc)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	state, ok, err := sess.Undo(r.Context())
	if !ok {
		s.writeError(w, http.StatusConflict, "nothing to undo")
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("session", sess.ID()).Msg("save preferences after undo")
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *server) handleRedo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	state, ok, err := sess.Redo(r.Context())
	if !ok {
		s.writeError(w, http.StatusConflict, "nothing to redo")
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("session", sess.ID()).Msg("save preferences after redo")
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}

	state := sess.State()
	view := preferences.ViewMode(r.URL.Query().Get("view"))
	if view == "" {
		view = state.Prefs.ViewMode
	}

	var buf bytes.Buffer
	if err := report.WriteCalculation(&buf, state.Input.Name, state.Calculation, report.Options{Detailed: view == preferences.ViewDetailed}); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	if state.Comparison != nil {
		buf.WriteString("\n")
		if err := report.WriteComparison(&buf, *state.Comparison); err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to render report")
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshots())
}

func (s *server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}

	var req snapshotRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	s.writeJSON(w, http.StatusCreated, sess.SaveSnapshot(req.Name))
}

func (s *server) handleRenameSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}

	var req snapshotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	snap, ok := sess.RenameSnapshot(chi.URLParam(r, "id"), req.Name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	sess.DeleteSnapshot(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	pair, data, _ := sess.Comparison()
	s.writeJSON(w, http.StatusOK, comparisonResponse{Left: pair[0], Right: pair[1], Comparison: data})
}

func (s *server) handleSetComparisonSlot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}

	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "slot must be 0 or 1")
		return
	}

	var req comparisonSlotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.SetComparison(slot, req.SnapshotID); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, data, _ := sess.Comparison()
	s.writeJSON(w, http.StatusOK, comparisonResponse{Left: pair[0], Right: pair[1], Comparison: data})
}
