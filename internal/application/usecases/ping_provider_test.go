package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/example/bookinghub/internal/application/providers"
	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/infrastructure/demo"
	"github.com/example/bookinghub/internal/infrastructure/opentable"
)

func registry() *providers.Registry {
	r := providers.NewRegistry(demo.ProviderName)
	r.Register(demo.ProviderName, func() (reservation.Adapter, error) { return demo.New(), nil })
	r.Register(opentable.ProviderName, func() (reservation.Adapter, error) { return opentable.New(opentable.Config{}), nil })
	return r
}

func TestPingProvider(t *testing.T) {
	uc := PingProvider{Providers: registry()}
	ctx := context.Background()

	if name, err := uc.Execute(ctx, "DEMO"); err != nil || name != "demo" {
		t.Fatalf("ping demo = %q, %v", name, err)
	}
	if _, err := uc.Execute(ctx, "opentable"); err == nil {
		t.Fatal("opentable without token should fail")
	}
	if _, err := uc.Execute(ctx, "resy"); !errors.Is(err, providers.ErrUnknownProvider) {
		t.Fatalf("unknown provider err = %v", err)
	}
	if _, err := (PingProvider{}).Execute(ctx, "demo"); err == nil {
		t.Fatal("nil registry should fail")
	}
}
