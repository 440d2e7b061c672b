package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/panyam/vmsim/components"
	"github.com/panyam/vmsim/core"
)

// ErrUnknownScheme is returned by RunMigration for a scheme value it
// does not recognize.
var ErrUnknownScheme = errors.New("unknown migration scheme")

// Scheme selects which live-migration strategy a run simulates.
type Scheme int

const (
	// SchemePreCopy copies memory iteratively while the guest runs,
	// re-sending pages dirtied after they were copied, then stops the
	// world for the residual.
	SchemePreCopy Scheme = iota

	// SchemePostCopy transfers control immediately and pulls pages on
	// demand (remote faults) while pushing the rest in background.
	SchemePostCopy
)

func (s Scheme) String() string {
	switch s {
	case SchemePreCopy:
		return "pre"
	case SchemePostCopy:
		return "post"
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// ParseScheme maps the driver tokens "pre" and "post" to a Scheme.
func ParseScheme(token string) (Scheme, error) {
	switch token {
	case "pre":
		return SchemePreCopy, nil
	case "post":
		return SchemePostCopy, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, token)
}

const (
	pageSize    = 4     // KB
	pageNumSize = 0.004 // KB

	// Gap between consecutive trace entries on the simulated timeline.
	// Entry i arrives at i * accessGap seconds.
	accessGap = 1e-6 // s

	// Pre-copy stop criteria.
	maxIterationCount = 1000
	okLeavePagesPart  = 0.01

	// Post-copy locality windows: relative widths of the boosted index
	// intervals around a faulted page.
	seqK   = 0.001
	localK = 0.01
)

// Simulator replays a guest memory-access trace against a channel cost
// model and reports aggregate migration metrics. One instance owns all
// of its state; each RunMigration call starts from a fresh reset, so a
// single Simulator can run every scheme/optimization combination on the
// same trace.
type Simulator struct {
	// Number of distinct pages the guest touches. Trace page indices
	// must lie in [0, PageCount).
	PageCount int

	// Time-ordered guest access trace.
	History core.AccessHistory

	// Cost model for the migration link.
	Channel *core.Channel

	pagesToTransfer []int
	historyPos      int
	clock           core.Duration
	delays          core.Duration
}

// NewSimulator creates a Simulator. A nil channel gets the default
// Channel(10, 10).
func NewSimulator(pageCount int, history core.AccessHistory, channel *core.Channel) *Simulator {
	if channel == nil {
		channel = core.NewChannel()
	}
	return &Simulator{
		PageCount: pageCount,
		History:   history,
		Channel:   channel,
	}
}

// RunMigration resets the engine state and simulates one migration under
// the given scheme. With optimization on, pre-copy orders each round by
// ascending dirty count and post-copy schedules background pushes by
// locality score instead of page order.
func (s *Simulator) RunMigration(scheme Scheme, optimize bool) (core.Metrics, error) {
	s.reset()
	slog.Debug("starting migration run",
		"scheme", scheme.String(), "optimize", optimize,
		"pages", s.PageCount, "accesses", len(s.History))
	switch scheme {
	case SchemePreCopy:
		return s.runPreCopy(optimize), nil
	case SchemePostCopy:
		return s.runPostCopy(optimize), nil
	}
	return core.Metrics{}, fmt.Errorf("%w: %v", ErrUnknownScheme, scheme)
}

// reset reseeds the transfer queue with every page in order and rewinds
// the clock, the fault-delay accumulator and the trace cursor.
func (s *Simulator) reset() {
	s.pagesToTransfer = make([]int, s.PageCount)
	for i := range s.pagesToTransfer {
		s.pagesToTransfer[i] = i
	}
	s.historyPos = 0
	s.clock = 0
	s.delays = 0
}

func (s *Simulator) runPreCopy(optimize bool) core.Metrics {
	if s.PageCount == 0 {
		return core.Metrics{}
	}

	transmitted := 0.0
	iteration := 0
	changeCount := make([]int, s.PageCount)

	for iteration < maxIterationCount &&
		float64(len(s.pagesToTransfer))/float64(s.PageCount) > okLeavePagesPart {

		if optimize {
			// Least-dirtied pages go first: they are the least likely to
			// be dirtied again before the round ends.
			sort.SliceStable(s.pagesToTransfer, func(i, j int) bool {
				return changeCount[s.pagesToTransfer[i]] < changeCount[s.pagesToTransfer[j]]
			})
		}

		sentThisRound := make(map[int]bool, len(s.pagesToTransfer))
		inNextRound := make(map[int]bool)
		var nextRound []int

		for len(s.pagesToTransfer) > 0 {
			page := s.pagesToTransfer[0]
			s.pagesToTransfer = s.pagesToTransfer[1:]

			transmitted += pageSize
			s.clock += s.Channel.TransferTime(pageSize)
			sentThisRound[page] = true

			// Writes that land on a page after it was copied invalidate
			// the copy; queue such pages for the next round.
			for {
				dirtied, ok := s.nextAccessedPage(core.OpWrite)
				if !ok {
					break
				}
				if sentThisRound[dirtied] && !inNextRound[dirtied] {
					inNextRound[dirtied] = true
					nextRound = append(nextRound, dirtied)
					changeCount[dirtied]++
				}
			}
		}

		s.pagesToTransfer = nextRound
		iteration++
		slog.Debug("pre-copy round complete",
			"iteration", iteration, "dirtied", len(nextRound))
	}

	// Stop-the-world phase: whatever is still dirty goes over as one
	// blob while the guest is paused. Skipped outright when the last
	// round converged to zero.
	var downtime core.Duration
	if remaining := len(s.pagesToTransfer); remaining > 0 {
		volume := float64(remaining) * pageSize
		transmitted += volume
		downtime = s.Channel.TransferTime(volume)
		s.clock += downtime
		s.pagesToTransfer = s.pagesToTransfer[:0]
	}

	return core.Metrics{
		Downtime:           downtime,
		Delays:             0,
		TotalMigrationTime: s.clock,
		TransmittedData:    transmitted,
		EvictionTime:       s.clock,
	}
}

func (s *Simulator) runPostCopy(optimize bool) core.Metrics {
	if s.PageCount == 0 {
		return core.Metrics{}
	}

	transmitted := 0.0
	missCount := 0
	alreadySent := make(map[int]bool, s.PageCount)

	var tree *components.MaxSegmentTree
	if optimize {
		tree = components.NewMaxSegmentTree(s.PageCount)
	}

	for len(alreadySent) < s.PageCount {
		var page int
		if optimize {
			page = tree.Max(0, s.PageCount-1).Index
			tree.Reset(page)
		} else {
			page = s.pagesToTransfer[0]
			s.pagesToTransfer = s.pagesToTransfer[1:]
		}

		transmitted += pageSize
		s.clock += s.Channel.TransferTime(pageSize)
		alreadySent[page] = true

		// Reads against pages still on the source are remote faults: the
		// destination requests the page number and waits for the page.
		for {
			faulted, ok := s.nextAccessedPage(core.OpRead)
			if !ok {
				break
			}
			if alreadySent[faulted] {
				continue
			}
			missCount++
			s.delays += s.Channel.TransferTime(pageNumSize) + s.Channel.TransferTime(pageSize)
			transmitted += pageNumSize + pageSize
			s.clock += s.Channel.TransferTime(pageSize)
			alreadySent[faulted] = true

			if optimize {
				// Boost pages near the fault so the argmax pushes them
				// before they fault too. The weight grows with the miss
				// count: late faults signal the hot working set.
				boostWindow(tree, faulted, seqK, missCount)
				boostWindow(tree, faulted, localK, missCount)
			}
		}
	}

	return core.Metrics{
		Downtime:           0,
		Delays:             s.delays,
		TotalMigrationTime: s.clock,
		TransmittedData:    transmitted,
		EvictionTime:       s.clock,
	}
}

// boostWindow range-adds delta over the half-open locality window
// [(1-k)*page, (1+k)*page), bounds truncated to ints. The window is
// empty for page 0; the tree clamps the right bound.
func boostWindow(tree *components.MaxSegmentTree, page int, k float64, delta int) {
	left := int((1 - k) * float64(page))
	right := int((1 + k) * float64(page))
	tree.Add(left, right, delta)
}

// nextAccessedPage advances the shared trace cursor over every entry
// whose scheduled arrival (position * accessGap) the clock has passed,
// and returns the first one matching op. Entries skipped on the way are
// consumed for good: guest accesses are replayed in strict temporal
// order regardless of which filter observes them.
func (s *Simulator) nextAccessedPage(op core.Operation) (int, bool) {
	for s.historyPos < len(s.History) && float64(s.historyPos)*accessGap <= s.clock {
		access := s.History[s.historyPos]
		s.historyPos++
		if access.Op == op {
			return access.Page, true
		}
	}
	return 0, false
}
