// Package health serves /livez and /readyz probes backed by periodic checks.
//
// A check flips to failing only after FailureThreshold consecutive errors and
// back to passing on the first success. Liveness checks start passing;
// readiness checks start failing until their first successful run.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Kind selects the probe a check contributes to.
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

// Check describes a single named check.
type Check struct {
	Name    string
	Timeout time.Duration
	Func    CheckFunc
	// FailureThreshold defaults to 3.
	FailureThreshold int
}

var errNotRun = errors.New("check has not run yet")

type probe struct {
	Check
	kind Kind

	passing atomic.Bool
	lastErr atomic.Pointer[error]

	// Owned by the goroutine running the probe.
	fails int
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	err := p.Func(ctx)
	p.lastErr.Store(&err)
	if err == nil {
		p.fails = 0
		p.passing.Store(true)
		return
	}
	p.fails++
	if p.fails >= p.FailureThreshold {
		p.passing.Store(false)
	}
}

func (p *probe) failure() string {
	if p.passing.Load() {
		return ""
	}
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error()
	}
	return errNotRun.Error()
}

// Health holds the registered checks and the manual readiness switch.
type Health struct {
	ready atomic.Bool

	mu     sync.Mutex
	probes []*probe
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// Add registers a check. Checks added after Start are not run.
func (h *Health) Add(kind Kind, c Check) {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Second
	}
	p := &probe{Check: c, kind: kind}
	if kind == Liveness {
		p.passing.Store(true)
	}

	h.mu.Lock()
	h.probes = append(h.probes, p)
	h.mu.Unlock()
}

// Start runs every check immediately and then once per interval until Stop
// is called or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		return
	}
	ctx, h.cancel = context.WithCancel(ctx)
	h.group, ctx = errgroup.WithContext(ctx)
	for _, p := range h.probes {
		h.group.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				p.run(ctx)
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}
}

// Stop cancels the checks and waits for them to return.
func (h *Health) Stop() {
	h.mu.Lock()
	cancel, g := h.cancel, h.group
	h.cancel, h.group = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	_ = g.Wait()
}

// SetReady flips the manual readiness switch, e.g. to drain before shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the switch is on and all readiness checks pass.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(h.failures(Readiness)) == 0
}

func (h *Health) failures(kind Kind) map[string]string {
	h.mu.Lock()
	probes := h.probes
	h.mu.Unlock()

	out := make(map[string]string)
	for _, p := range probes {
		if p.kind != kind {
			continue
		}
		if msg := p.failure(); msg != "" {
			out[p.Name] = msg
		}
	}
	return out
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failures(Liveness))
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures(Readiness)
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

// writeStatus writes {"status":"ok"} or 503 with
// {"status":"unhealthy","checks":{name: error}}.
func writeStatus(w http.ResponseWriter, failures map[string]string) {
	status, text := http.StatusOK, "ok"
	if len(failures) > 0 {
		status, text = http.StatusServiceUnavailable, "unhealthy"
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	e.Str(text)
	if len(failures) > 0 {
		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		sort.Strings(names)

		e.FieldStart("checks")
		e.ObjStart()
		for _, name := range names {
			e.FieldStart(name)
			e.Str(failures[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
