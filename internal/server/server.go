package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/san-kum/wavestring/internal/config"
	"github.com/san-kum/wavestring/internal/metrics"
	"github.com/san-kum/wavestring/internal/profile"
	"github.com/san-kum/wavestring/internal/wave"
)

var Version = "dev"

const DefaultTick = 50 * time.Millisecond

// MaxStepsPerRequest bounds the work one /api/step call may ask for.
const MaxStepsPerRequest = 1 << 20

// Server shares one solver between the stepping loop and HTTP clients.
// Every solver access holds mu.
type Server struct {
	mu     sync.Mutex
	solver *wave.Solver
	cfg    *config.Config
	halted error

	reg       *profile.Registry
	telemetry *metrics.Telemetry
	tick      time.Duration
	log       *slog.Logger
}

func New(cfg *config.Config, reg *profile.Registry) (*Server, error) {
	s, err := cfg.Build(reg)
	if err != nil {
		return nil, err
	}
	return &Server{
		solver:    s,
		cfg:       cfg.Clone(),
		reg:       reg,
		telemetry: metrics.NewTelemetry(s.Params()),
		tick:      DefaultTick,
		log:       slog.Default(),
	}, nil
}

func (s *Server) SetTick(d time.Duration)  { s.tick = d }
func (s *Server) SetLogger(l *slog.Logger) { s.log = l }

// Snapshot is the JSON form of the solver state.
type Snapshot struct {
	Time      float64    `json:"time"`
	Steps     int        `json:"steps"`
	StepDt    float64    `json:"step_dt"`
	Remainder float64    `json:"remainder"`
	A         float64    `json:"a"`
	Length    float64    `json:"length"`
	Left      string     `json:"left"`
	Right     string     `json:"right"`
	Error     string     `json:"error,omitempty"`
	Field     wave.Field `json:"field"`
}

func (s *Server) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.solver.Params()
	snap := Snapshot{
		Time:      s.solver.Time(),
		Steps:     s.solver.Steps(),
		StepDt:    s.solver.StepDt(),
		Remainder: s.solver.Remainder(),
		A:         p.A,
		Length:    p.L,
		Left:      s.solver.Left().Kind.String(),
		Right:     s.solver.Right().Kind.String(),
		Field:     s.solver.Field(),
	}
	if s.halted != nil {
		snap.Error = s.halted.Error()
	}
	return snap
}

// advance moves the shared solver forward by dt and reports the frame to
// telemetry. A halted solver stays put until it is reset.
func (s *Server) advance(dt float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted != nil {
		return 0, s.halted
	}
	if math.IsInf(dt, 0) || dt/s.solver.StepDt() > MaxStepsPerRequest {
		return 0, fmt.Errorf("%w: %v exceeds %d steps", wave.ErrInvalidDuration, dt, MaxStepsPerRequest)
	}
	n, err := s.solver.Advance(dt)
	if err != nil {
		if !errors.Is(err, wave.ErrInvalidDuration) {
			s.halted = err
			s.log.Error("solver halted", "time", s.solver.Time(), "err", err)
		}
		return n, err
	}
	s.telemetry.OnFrame(s.solver.Time(), s.solver.Steps(), s.solver.Field())
	return n, nil
}

// Run advances the solver by the configured frame dt on every tick until
// ctx is done.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.advance(s.cfg.Run.FrameDt)
		}
	}
}

// Router handles:
// - Prometheus metrics
// - websocket frame stream
// - solver state, stepping, reset and boundary swaps
// - version
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", s.telemetry.Handler())
	r.HandleFunc("/ws", s.websocketHandler)

	// Full paths on the root router so a wrong method gets 405, not 404.
	r.HandleFunc("/api/version", s.versionHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/state", s.stateHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/step", s.stepHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/reset", s.resetHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/boundary/{side}", s.boundaryHandler).Methods(http.MethodPut)

	return r
}

// Handler is the router wrapped in OpenTelemetry instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.Router(), "wavestring",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}

// ListenAndServe serves on addr and runs the stepping loop until ctx is
// done, then shuts the listener down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

// stepHandler advances by ?dt=, defaulting to one frame.
func (s *Server) stepHandler(w http.ResponseWriter, r *http.Request) {
	dt := s.cfg.Run.FrameDt
	if q := r.URL.Query().Get("dt"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid dt %q", q))
			return
		}
		dt = v
	}

	n, err := s.advance(dt)
	switch {
	case errors.Is(err, wave.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusConflict, err)
		return
	}

	snap := s.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"steps":     n,
		"remainder": snap.Remainder,
		"time":      snap.Time,
	})
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ux, ut, err := s.cfg.InitialFuncs(s.reg)
	if err == nil {
		err = s.solver.Reset(ux, ut, s.cfg.Params())
	}
	if err == nil {
		s.halted = nil
		s.telemetry.SetParams(s.solver.Params())
	}
	s.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("solver reset")
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) boundaryHandler(w http.ResponseWriter, r *http.Request) {
	side := mux.Vars(r)["side"]
	if side != "left" && side != "right" {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown side %q", side))
		return
	}

	var bc config.BoundaryConfig
	if err := json.NewDecoder(r.Body).Decode(&bc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := bc.Boundary(s.reg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	if side == "left" {
		s.solver.SetLeft(b)
		s.cfg.Left = bc
	} else {
		s.solver.SetRight(b)
		s.cfg.Right = bc
	}
	s.mu.Unlock()

	trace.SpanFromContext(r.Context()).AddEvent("boundary swapped", trace.WithAttributes(
		attribute.String("side", side),
		attribute.String("kind", b.Kind.String()),
		attribute.String("func", bc.Func.String()),
	))
	s.log.Info("boundary swapped", "side", side, "kind", b.Kind, "func", bc.Func.String())

	writeJSON(w, http.StatusOK, s.snapshot())
}
