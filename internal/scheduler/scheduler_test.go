package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/bookinghub/internal/application/providers"
	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/infrastructure/demo"
	"github.com/example/bookinghub/internal/logger"
)

type downAdapter struct{ *demo.Adapter }

func (downAdapter) Name() string                   { return "down" }
func (downAdapter) Ping(ctx context.Context) error { return errors.New("unreachable") }

func newRegistry() *providers.Registry {
	p := providers.NewRegistry("demo")
	p.Register("demo", func() (reservation.Adapter, error) { return demo.New(), nil })
	p.Register("down", func() (reservation.Adapter, error) { return downAdapter{demo.New()}, nil })
	p.Register("broken", func() (reservation.Adapter, error) { return nil, errors.New("no credentials") })
	return p
}

func TestTickRecordsEveryProvider(t *testing.T) {
	s := New(newRegistry(), 0, logger.Discard())
	fixed := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := s.Snapshot()
	if len(got) != 3 {
		t.Fatalf("snapshot = %+v", got)
	}
	want := map[string]bool{"broken": false, "demo": true, "down": false}
	for _, st := range got {
		if st.Healthy != want[st.Provider] {
			t.Errorf("%s healthy = %v (%s)", st.Provider, st.Healthy, st.Error)
		}
		if !st.CheckedAt.Equal(fixed) {
			t.Errorf("%s checked_at = %v", st.Provider, st.CheckedAt)
		}
	}
	if got[0].Provider != "broken" || got[2].Provider != "down" {
		t.Fatalf("not sorted: %+v", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(newRegistry(), time.Millisecond, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
