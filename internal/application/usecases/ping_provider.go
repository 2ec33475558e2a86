package usecases

import (
	"context"
	"fmt"

	"github.com/example/bookinghub/internal/application/providers"
)

type PingProvider struct {
	Providers *providers.Registry
}

// Execute builds the adapter registered under tag and pings it.
func (u PingProvider) Execute(ctx context.Context, tag string) (string, error) {
	if u.Providers == nil {
		return "", fmt.Errorf("provider registry is nil")
	}
	p, err := u.Providers.Get(tag)
	if err != nil {
		return "", err
	}
	if err := p.Ping(ctx); err != nil {
		return p.Name(), fmt.Errorf("ping %s: %w", p.Name(), err)
	}
	return p.Name(), nil
}
