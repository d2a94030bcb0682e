package business

import (
	"context"
	"encoding/json"

	"chatpipe/internal/constants"
	"chatpipe/internal/logger"
	"chatpipe/pkg/models"
)

// Resolver extracts the business routing key from custom-element or
// signaling payloads. Pure, no I/O; malformed JSON yields an empty route.
type Resolver struct {
	logger logger.Logger
}

func NewResolver(log logger.Logger) *Resolver {
	return &Resolver{logger: log}
}

func (r *Resolver) Resolve(ctx context.Context, env *models.MessageEnvelope) models.BusinessRoute {
	if env.Signaling != nil {
		return r.resolveSignaling(ctx, env)
	}

	if env.ElemType == models.ElemCustom {
		return r.resolveCustom(ctx, env)
	}

	return models.BusinessRoute{}
}

func (r *Resolver) resolveSignaling(ctx context.Context, env *models.MessageEnvelope) models.BusinessRoute {
	route := models.BusinessRoute{
		ExcludeFromHistory: env.ExcludedFromLastMessage && env.ExcludedFromUnreadCount,
	}

	if env.Signaling.Data == "" {
		return route
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(env.Signaling.Data), &payload); err != nil {
		r.logger.DebugwCtx(ctx, "Malformed signaling data, no business route",
			"error", err,
		)
		return models.BusinessRoute{}
	}

	if id, ok := payload["businessID"].(string); ok {
		route.BusinessID = id
	}

	return route
}

func (r *Resolver) resolveCustom(ctx context.Context, env *models.MessageEnvelope) models.BusinessRoute {
	if len(env.CustomPayload) == 0 {
		return models.BusinessRoute{}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(env.CustomPayload, &payload); err != nil {
		r.logger.DebugwCtx(ctx, "Malformed custom payload, no business route",
			"error", err,
		)
		return models.BusinessRoute{}
	}

	if id, ok := payload["businessID"].(string); ok && id != "" {
		return models.BusinessRoute{BusinessID: id}
	}

	if _, ok := payload[constants.BusinessIDCustomerService]; ok {
		if src, ok := payload["src"].(string); ok && src != "" {
			return models.BusinessRoute{BusinessID: constants.BusinessIDCustomerService + src}
		}
	}

	if _, ok := payload[constants.BusinessIDChatbot]; ok {
		if src, ok := payload["src"].(float64); ok && int(src) == constants.ChatbotIgnoreSrc {
			return models.BusinessRoute{BusinessID: constants.BusinessIDIgnore}
		}
		return models.BusinessRoute{BusinessID: constants.BusinessIDChatbot}
	}

	return models.BusinessRoute{}
}
