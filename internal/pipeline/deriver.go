package pipeline

import (
	"context"
	"time"

	"chatpipe/internal/business"
	"chatpipe/internal/calling"
	"chatpipe/internal/enrich"
	"chatpipe/internal/i18n"
	"chatpipe/internal/logger"
	"chatpipe/internal/names"
	"chatpipe/internal/registry"
	"chatpipe/internal/revoke"
	"chatpipe/pkg/metrics"
	"chatpipe/pkg/models"
)

// Config wires the deriver's collaborators. Every field is optional:
// omitted collaborators degrade to no-op behavior (no registered builders,
// no calling claim, raw-id names).
type Config struct {
	Catalog  *i18n.Catalog
	Registry *registry.Registry
	Revoke   *revoke.Handler
	Calling  *calling.Adapter
	Business *business.Resolver
	Names    *names.Resolver
	Enricher *enrich.Enricher
	Logger   logger.Logger
}

// Deriver runs one envelope through the shared rule chain and produces
// the classified cell, the conversation-list preview, or both. A single
// chain backs both surfaces so a message suppressed on one is suppressed
// on the other.
type Deriver struct {
	rules    []Rule
	enricher *enrich.Enricher
	logger   logger.Logger
}

func NewDeriver(cfg Config) *Deriver {
	if cfg.Logger == nil {
		cfg.Logger = logger.NopLogger()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = i18n.NewCatalog()
	}
	if cfg.Registry == nil {
		cfg.Registry = registry.New()
	}
	if cfg.Revoke == nil {
		cfg.Revoke = revoke.NewHandler(0, cfg.Catalog)
	}
	if cfg.Business == nil {
		cfg.Business = business.NewResolver(cfg.Logger)
	}
	if cfg.Enricher == nil {
		cfg.Enricher = enrich.NewEnricher(nil, cfg.Logger)
	}

	return &Deriver{
		rules: []Rule{
			&riskRule{catalog: cfg.Catalog},
			&revokeRule{handler: cfg.Revoke},
			&cloudCustomRule{registry: cfg.Registry},
			&elementRule{
				catalog:  cfg.Catalog,
				registry: cfg.Registry,
				calling:  cfg.Calling,
				business: cfg.Business,
				names:    cfg.Names,
				logger:   cfg.Logger,
			},
		},
		enricher: cfg.Enricher,
		logger:   cfg.Logger,
	}
}

// Classify builds the cell data for one envelope. A nil result means the
// message is deliberately suppressed from the timeline.
func (d *Deriver) Classify(ctx context.Context, env *models.MessageEnvelope) models.CellData {
	for _, rule := range d.rules {
		cell, handled := rule.CellData(ctx, env)
		if !handled {
			continue
		}
		if cell == nil {
			d.logger.DebugwCtx(ctx, "Message suppressed",
				"rule", rule.Name(),
				"elem_type", env.ElemType,
			)
			return nil
		}
		return d.enricher.Enrich(ctx, cell, env)
	}
	return nil
}

// ResolveDisplayString produces the conversation-list preview for one
// envelope. ok reports whether the message appears in previews at all; a
// true result with empty text is a legitimate empty preview.
func (d *Deriver) ResolveDisplayString(ctx context.Context, env *models.MessageEnvelope) (string, bool) {
	for _, rule := range d.rules {
		text, ok, handled := rule.DisplayString(ctx, env)
		if !handled {
			continue
		}
		return text, ok
	}
	return "", false
}

// Derive runs both surfaces over one envelope and packages the result for
// fan-out.
func (d *Deriver) Derive(ctx context.Context, env *models.MessageEnvelope) *models.DerivedRecord {
	record := &models.DerivedRecord{
		MsgID:          env.MsgID,
		ConversationID: env.ConversationID(),
		DerivedAt:      time.Now().UTC(),
		TraceID:        env.Metadata.TraceID,
	}

	cell := d.Classify(ctx, env)
	if cell != nil {
		record.Kind = cell.Kind()
		record.Cell = cell
		metrics.IncDerivedCell(cell.Kind())
	} else {
		record.Suppressed = true
	}

	record.Preview, record.HasPreview = d.ResolveDisplayString(ctx, env)
	return record
}
