package calling

import (
	"context"
	"encoding/json"

	"chatpipe/internal/i18n"
	"chatpipe/internal/logger"
	"chatpipe/pkg/models"
)

// Calling message appearances.
const (
	AppearanceDetails  = "details"
	AppearanceSimplify = "simplify"
)

// Business IDs the call sub-protocol announces itself with.
const (
	businessIDAVCall  = "av_call"
	businessIDRTCCall = "rtc_call"
)

// Provider decodes calling events out of signaling envelopes. It is the
// external calling-info predicate plus extraction behind the adapter.
type Provider struct {
	style      string
	selfUserID string
	catalog    *i18n.Catalog
	logger     logger.Logger
}

func NewProvider(style, selfUserID string, catalog *i18n.Catalog, log logger.Logger) *Provider {
	if style != AppearanceDetails {
		style = AppearanceSimplify
	}
	return &Provider{
		style:      style,
		selfUserID: selfUserID,
		catalog:    catalog,
		logger:     log,
	}
}

// InfoFor reports whether the envelope is a calling event and, if so,
// returns its decoded info. An envelope is claimed when it carries
// signaling data whose businessID is one of the call protocol IDs.
func (p *Provider) InfoFor(ctx context.Context, env *models.MessageEnvelope) (*Info, bool) {
	if env.Signaling == nil || env.Signaling.Data == "" {
		return nil, false
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(env.Signaling.Data), &data); err != nil {
		p.logger.DebugwCtx(ctx, "Malformed signaling data, not a calling message",
			"error", err,
		)
		return nil, false
	}

	businessID, ok := data["businessID"].(string)
	if !ok || (businessID != businessIDAVCall && businessID != businessIDRTCCall) {
		return nil, false
	}

	return &Info{
		env:        env,
		data:       data,
		style:      p.style,
		selfUserID: p.selfUserID,
		catalog:    p.catalog,
	}, true
}
