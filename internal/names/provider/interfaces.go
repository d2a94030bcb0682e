package provider

import (
	"context"

	"chatpipe/pkg/models"
)

// Directory fetches naming records for a batch of user ids. Ids absent
// from the result are unknown to the backing store.
type Directory interface {
	FetchNames(ctx context.Context, ids []string) (map[string]models.MemberInfo, error)
	Name() string
}
