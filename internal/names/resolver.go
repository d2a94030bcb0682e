package names

import (
	"context"
	"strings"
	"time"

	"chatpipe/internal/logger"
	"chatpipe/internal/names/provider"
	"chatpipe/pkg/metrics"
	"chatpipe/pkg/models"
)

// Resolver turns user ids into display names through a Directory. Lookups
// degrade to the raw id on any failure; resolution never blocks
// classification beyond the configured timeout.
type Resolver struct {
	directory provider.Directory
	timeout   time.Duration
	logger    logger.Logger
}

func NewResolver(directory provider.Directory, timeout time.Duration, log logger.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Resolver{
		directory: directory,
		timeout:   timeout,
		logger:    log,
	}
}

// Lookup resolves display names for a batch of ids. Every requested id is
// present in the result; unknown or failed ids map to themselves.
func (r *Resolver) Lookup(ctx context.Context, ids []string) map[string]string {
	result := make(map[string]string, len(ids))
	for _, id := range ids {
		result[id] = id
	}
	if len(ids) == 0 || r.directory == nil {
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	infos, err := r.directory.FetchNames(ctx, ids)
	metrics.ObserveNameLookupDuration(r.directory.Name(), time.Since(start))
	if err != nil {
		metrics.IncNameLookup(r.directory.Name(), "error")
		r.logger.WarnwCtx(ctx, "Name lookup failed, falling back to raw ids",
			"provider", r.directory.Name(),
			"ids", len(ids),
			"error", err,
		)
		return result
	}
	metrics.IncNameLookup(r.directory.Name(), "success")

	for id, info := range infos {
		result[id] = info.DisplayName()
	}
	return result
}

// LookupAsync resolves a batch without blocking the caller and delivers
// the result through the callback.
func (r *Resolver) LookupAsync(ctx context.Context, ids []string, callback func(map[string]string)) {
	go func() {
		callback(r.Lookup(ctx, ids))
	}()
}

// Substitute replaces every "{userID}" placeholder in content with the
// resolved display name for that id.
func (r *Resolver) Substitute(ctx context.Context, content string, ids []string) string {
	if len(ids) == 0 || !strings.Contains(content, "{") {
		return content
	}

	names := r.Lookup(ctx, ids)
	for id, name := range names {
		content = strings.ReplaceAll(content, "{"+id+"}", name)
	}
	return content
}

// SubstituteCell rewrites a system cell's content in place using its
// replaced-user-id list.
func (r *Resolver) SubstituteCell(ctx context.Context, cell *models.SystemCellData) {
	if cell == nil || len(cell.ReplacedUserIDList) == 0 {
		return
	}
	cell.Content = r.Substitute(ctx, cell.Content, cell.ReplacedUserIDList)
}
