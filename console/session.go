package console

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/panyam/vmsim/core"
	"github.com/panyam/vmsim/loader"
	"github.com/panyam/vmsim/runtime"
)

// RunResult is one completed simulation with the parameters that
// produced it.
type RunResult struct {
	Scheme   string       `json:"scheme"`
	Optimize bool         `json:"optimize"`
	Metrics  core.Metrics `json:"metrics"`
}

// Session is an interactive simulation context: a loaded trace, the
// channel parameters, and the results of the runs performed so far. It
// is shared between the REPL console and the REST server, so all access
// goes through the lock.
type Session struct {
	mu        sync.Mutex
	channel   *core.Channel
	trace     *loader.TraceData
	tracePath string
	results   []RunResult
}

// NewSession creates a Session with the default channel parameters.
func NewSession() *Session {
	return &Session{channel: core.NewChannel()}
}

// Load parses the trace at path and makes it the session's active
// workload. Reloading the same path re-reads the file.
func (s *Session) Load(path string) error {
	trace, err := loader.ParseTraceFile(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = trace
	s.tracePath = path
	s.results = nil
	slog.Info("trace loaded", "path", path,
		"pages", trace.PageCount, "accesses", len(trace.History))
	return nil
}

// SetSpeed updates the channel bandwidth (MB/s).
func (s *Session) SetSpeed(speed float64) error {
	if speed <= 0 {
		return fmt.Errorf("channel speed must be positive, got %g", speed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel.Speed = speed
	return nil
}

// SetDelay updates the channel per-transfer delay.
func (s *Session) SetDelay(delay float64) error {
	if delay < 0 {
		return fmt.Errorf("channel delay must be non-negative, got %g", delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel.Delay = delay
	return nil
}

// Channel returns a copy of the current channel parameters.
func (s *Session) Channel() core.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.channel
}

// TraceInfo reports the active trace path, its page count and its
// access count; the path is empty when nothing is loaded.
func (s *Session) TraceInfo() (path string, pages int, accesses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trace == nil {
		return "", 0, 0
	}
	return s.tracePath, s.trace.PageCount, len(s.trace.History)
}

// Run simulates one migration of the loaded trace. The scheme token is
// "pre" or "post", as on the command line.
func (s *Session) Run(schemeToken string, optimize bool) (core.Metrics, error) {
	scheme, err := runtime.ParseScheme(schemeToken)
	if err != nil {
		return core.Metrics{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(scheme, optimize)
}

// run assumes the lock is held.
func (s *Session) run(scheme runtime.Scheme, optimize bool) (core.Metrics, error) {
	if s.trace == nil {
		return core.Metrics{}, fmt.Errorf("no trace loaded; use load first")
	}
	channel := *s.channel
	sim := runtime.NewSimulator(s.trace.PageCount, s.trace.History, &channel)
	metrics, err := sim.RunMigration(scheme, optimize)
	if err != nil {
		return core.Metrics{}, err
	}
	s.results = append(s.results, RunResult{
		Scheme:   scheme.String(),
		Optimize: optimize,
		Metrics:  metrics,
	})
	return metrics, nil
}

// Compare runs every scheme/optimization combination on the loaded
// trace and returns the four results in a fixed order.
func (s *Session) Compare() ([]RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []RunResult
	for _, scheme := range []runtime.Scheme{runtime.SchemePreCopy, runtime.SchemePostCopy} {
		for _, optimize := range []bool{false, true} {
			metrics, err := s.run(scheme, optimize)
			if err != nil {
				return nil, err
			}
			out = append(out, RunResult{
				Scheme:   scheme.String(),
				Optimize: optimize,
				Metrics:  metrics,
			})
		}
	}
	return out, nil
}

// Results returns a copy of every result recorded since the last Load.
func (s *Session) Results() []RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RunResult, len(s.results))
	copy(out, s.results)
	return out
}
