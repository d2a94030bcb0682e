package provider

import (
	"context"
	"fmt"

	"chatpipe/pkg/circuitbreaker"
	"chatpipe/pkg/models"
)

// CircuitBreakerDirectory trips when the wrapped directory keeps failing,
// shedding load from a struggling backing store.
type CircuitBreakerDirectory struct {
	inner Directory
	cb    *circuitbreaker.Wrapper
}

func NewCircuitBreakerDirectory(inner Directory, cfg circuitbreaker.Config) *CircuitBreakerDirectory {
	return &CircuitBreakerDirectory{
		inner: inner,
		cb:    circuitbreaker.NewWrapper(cfg),
	}
}

func (d *CircuitBreakerDirectory) Name() string {
	return d.inner.Name()
}

func (d *CircuitBreakerDirectory) FetchNames(ctx context.Context, ids []string) (map[string]models.MemberInfo, error) {
	result, err := d.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return d.inner.FetchNames(ctx, ids)
	})

	d.cb.RecordRequest(err == nil)

	if err != nil {
		if d.cb.IsOpen() {
			return nil, fmt.Errorf("circuit breaker is open for %s: %w", d.inner.Name(), err)
		}
		return nil, err
	}

	names, ok := result.(map[string]models.MemberInfo)
	if !ok {
		return nil, fmt.Errorf("directory returned invalid result type")
	}

	return names, nil
}
