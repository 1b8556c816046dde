// Package api exposes the calculation engine over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"efuel-lca/decision/carbon"
	"efuel-lca/decision/integration"
	"efuel-lca/decision/params"
	"efuel-lca/decision/policy"
	"efuel-lca/decision/uncertainty"
	lcaerrors "efuel-lca/pkg/errors"
	"efuel-lca/pkg/platform"
)

const (
	version       = "0.1.0"
	defaultTrials = 1000
)

// Server is the HTTP API server
type Server struct {
	engine     *integration.Engine
	policies   *policy.Engine
	store      carbon.Store
	base       *params.Set
	config     *Config
	logger     zerolog.Logger
	startedAt  time.Time
	httpServer *http.Server
}

// Config holds server configuration
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxRequestSize  int64
	MaxTrials       int
	Workers         int
	CORSOrigins     []string
	APIKey          string
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		RequestTimeout:  90 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxRequestSize:  1 << 20,
		MaxTrials:       100000,
		Workers:         4,
		CORSOrigins:     []string{"*"},
	}
}

// NewServer creates a server whose requests start from base. A nil store
// uses the built-in intensity table; nil policies use the built-ins.
func NewServer(base *params.Set, store carbon.Store, policies *policy.Engine, config *Config, logger zerolog.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if base == nil {
		base = params.Default()
	}
	if store == nil {
		store = carbon.NewStaticStore()
	}
	if policies == nil {
		policies = policy.NewEngine()
	}
	return &Server{
		engine:    integration.NewEngine(store, integration.WithLogger(logger), integration.WithWorkers(config.Workers)),
		policies:  policies,
		store:     store,
		base:      base.Clone(),
		config:    config,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(s.config.RequestTimeout))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(platform.APIKey(s.config.APIKey))
		r.Get("/electricity-sources", s.handleSources)
		r.Get("/parameters", s.handleParameters)
		r.Post("/calculate", s.handleCalculate)
		r.Post("/sweep", s.handleSweep)
		r.Post("/montecarlo", s.handleMonteCarlo)
		r.Post("/sensitivity", s.handleSensitivity)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests within ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info().Str("addr", s.config.Addr).Str("version", version).Msg("API server started")

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+platform.APIKeyHeader)
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// METADATA ENDPOINTS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": version,
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// SourceResponse is one entry of the electricity source table.
type SourceResponse struct {
	Source          string  `json:"source"`
	CarbonIntensity float64 `json:"carbon_intensity"` // kg CO2e/kWh
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	names := carbon.ListSources(s.store)
	out := make([]SourceResponse, 0, len(names))
	for _, name := range names {
		v, err := s.store.Intensity(name)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		out = append(out, SourceResponse{Source: name, CarbonIntensity: v})
	}
	s.jsonResponse(w, http.StatusOK, out)
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	names := params.Names()
	out := make(map[string]float64, len(names))
	for _, name := range names {
		v, err := carbon.Lookup(s.store, s.base, name)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		out[name] = v
	}
	s.jsonResponse(w, http.StatusOK, out)
}

// =============================================================================
// CALCULATION ENDPOINTS
// =============================================================================

// ScenarioRequest adjusts the server's base scenario for one request.
// Parameters is a partial parameter document merged over the base;
// Overrides then set dotted parameter names.
type ScenarioRequest struct {
	Parameters        json.RawMessage    `json:"parameters,omitempty"`
	Overrides         map[string]float64 `json:"overrides,omitempty"`
	ElectricitySource string             `json:"electricity_source,omitempty"`
	CarbonIntensity   *float64           `json:"carbon_intensity,omitempty"`
}

// CalculateRequest runs one scenario and checks it against policies.
type CalculateRequest struct {
	ScenarioRequest
	Policies []policy.Policy `json:"policies,omitempty"`
}

// CalculateResponse is the full result of one run.
type CalculateResponse struct {
	Result  *integration.IntegratedResult `json:"result"`
	Metrics map[string]float64            `json:"metrics"`
	Policy  *policy.EvaluationResult      `json:"policy"`
	Success bool                          `json:"success"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	set, err := s.scenario(req.ScenarioRequest)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	result, err := s.engine.Run(r.Context(), set)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	evaluation, err := s.policies.Evaluate(result, req.Policies...)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, CalculateResponse{
		Result:  result,
		Metrics: result.Metrics(),
		Policy:  evaluation,
		Success: true,
	})
}

// SweepRequest compares electricity sources. No sources means the default set.
type SweepRequest struct {
	ScenarioRequest
	Sources []string `json:"sources,omitempty"`
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := s.decode(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	set, err := s.scenario(req.ScenarioRequest)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	points, err := s.engine.SweepElectricitySources(r.Context(), set, req.Sources)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, points)
}

// MonteCarloRequest samples the scenario's declared distributions.
type MonteCarloRequest struct {
	ScenarioRequest
	Trials      int       `json:"trials"`
	Seed        uint64    `json:"seed"`
	Percentiles []float64 `json:"percentiles,omitempty"`
	KeepSamples bool      `json:"keep_samples"`
}

func (s *Server) handleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	var req MonteCarloRequest
	if err := s.decode(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	if req.Trials == 0 {
		req.Trials = defaultTrials
	}
	if req.Trials > s.config.MaxTrials {
		s.handleError(w, r, lcaerrors.NewInvalidParameter("montecarlo", "trials", float64(req.Trials),
			fmt.Sprintf("must not exceed %d", s.config.MaxTrials)))
		return
	}
	set, err := s.scenario(req.ScenarioRequest)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	mc := uncertainty.MonteCarlo{
		Trials:      req.Trials,
		Seed:        req.Seed,
		Workers:     s.config.Workers,
		Percentiles: req.Percentiles,
		KeepSamples: req.KeepSamples,
		Logger:      &s.logger,
	}
	result, err := mc.Run(r.Context(), set, s.engine.Evaluate)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// SensitivityRequest perturbs parameters one at a time. Empty lists mean
// the default parameters and every metric.
type SensitivityRequest struct {
	ScenarioRequest
	Perturb []string `json:"perturb,omitempty"`
	Metrics []string `json:"metrics,omitempty"`
	Delta   float64  `json:"delta,omitempty"`
}

// SensitivityResponse lists records in analysis order and by leverage.
type SensitivityResponse struct {
	Records []uncertainty.Record `json:"records"`
	Ranked  []uncertainty.Record `json:"ranked"`
}

func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	var req SensitivityRequest
	if err := s.decode(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	set, err := s.scenario(req.ScenarioRequest)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if slices.Contains(req.Perturb, params.CarbonIntensityParam) {
		if set, err = carbon.Pin(s.store, set); err != nil {
			s.handleError(w, r, err)
			return
		}
	}

	sa := uncertainty.Sensitivity{Delta: req.Delta, Workers: s.config.Workers, Logger: &s.logger}
	records, err := sa.Analyze(r.Context(), set, req.Perturb, req.Metrics, s.engine.Evaluate)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, SensitivityResponse{
		Records: records,
		Ranked:  uncertainty.RankByLeverage(records),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// badRequest marks malformed input that never reached the engine.
type badRequest struct{ error }

func (e badRequest) Unwrap() error { return e.error }

// decode reads a JSON body into v. An empty body leaves v zero.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return badRequest{fmt.Errorf("invalid request: %w", err)}
	}
	return nil
}

// scenario applies a request's adjustments to a copy of the base set.
func (s *Server) scenario(req ScenarioRequest) (*params.Set, error) {
	set := s.base.Clone()
	if len(req.Parameters) > 0 {
		dec := json.NewDecoder(bytes.NewReader(req.Parameters))
		dec.DisallowUnknownFields()
		if err := dec.Decode(set); err != nil {
			return nil, badRequest{fmt.Errorf("invalid parameters: %w", err)}
		}
	}
	if req.ElectricitySource != "" {
		set = set.WithElectricitySource(req.ElectricitySource)
	}
	if req.CarbonIntensity != nil {
		set = set.WithCarbonIntensity(*req.CarbonIntensity)
	}
	if len(req.Overrides) > 0 {
		var err error
		if set, err = set.WithValues(req.Overrides); err != nil {
			return nil, badRequest{err}
		}
	}
	return set, nil
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}
	if ee, ok := lcaerrors.As(err); ok {
		resp.Code = ee.Code
		resp.Stage = ee.Stage
		resp.Parameter = ee.Parameter
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	s.jsonResponse(w, status, resp)
}

func statusFor(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	switch lcaerrors.CodeOf(err) {
	case lcaerrors.CodeInvalidParameter:
		return http.StatusBadRequest
	case lcaerrors.CodeInconsistentCoupling, lcaerrors.CodeSamplingError:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn().Err(err).Msg("encoding response")
	}
}
