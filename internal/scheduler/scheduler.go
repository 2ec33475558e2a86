// Package scheduler pings the registered provider adapters on a ticker and
// keeps the latest result per provider for /healthz.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/bookinghub/internal/application/providers"
	"github.com/example/bookinghub/internal/application/usecases"
)

// Status is the outcome of the most recent ping of one provider.
type Status struct {
	Provider  string    `json:"provider"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

type Scheduler struct {
	Providers *providers.Registry
	Interval  time.Duration
	Log       logrus.FieldLogger

	now func() time.Time

	mu     sync.Mutex
	status map[string]Status
	wg     sync.WaitGroup
}

func New(p *providers.Registry, interval time.Duration, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{Providers: p, Interval: interval, Log: log, now: time.Now, status: map[string]Status{}}
}

// Run blocks until ctx is done. A non-positive Interval runs a single round.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Tick(ctx)
	if s.Interval <= 0 {
		return nil
	}

	t := time.NewTicker(s.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return nil
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

// Tick pings every supported provider concurrently and waits for the round.
func (s *Scheduler) Tick(ctx context.Context) {
	ping := usecases.PingProvider{Providers: s.Providers}
	for _, tag := range s.Providers.Supported() {
		tag := tag
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			st := Status{Provider: tag, Healthy: true}
			if _, err := ping.Execute(pctx, tag); err != nil {
				st.Healthy = false
				st.Error = err.Error()
				s.Log.WithError(err).WithField("provider", tag).Warn("provider ping failed")
			}
			st.CheckedAt = s.now()

			s.mu.Lock()
			s.status[tag] = st
			s.mu.Unlock()
		}()
	}
	s.wg.Wait()
}

// Snapshot returns the latest statuses sorted by provider.
func (s *Scheduler) Snapshot() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Status, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
