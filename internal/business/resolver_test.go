package business

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"chatpipe/internal/logger"
	"chatpipe/pkg/models"
)

func TestResolve_CustomPayload(t *testing.T) {
	r := NewResolver(logger.NopLogger())
	ctx := context.Background()

	tests := []struct {
		name    string
		payload string
		want    models.BusinessRoute
	}{
		{
			name:    "direct business id",
			payload: `{"businessID":"orders"}`,
			want:    models.BusinessRoute{BusinessID: "orders"},
		},
		{
			name:    "empty business id falls through",
			payload: `{"businessID":""}`,
			want:    models.BusinessRoute{},
		},
		{
			name:    "customer service with src",
			payload: `{"customerServicePlugin":{},"src":"7"}`,
			want:    models.BusinessRoute{BusinessID: "customerServicePlugin7"},
		},
		{
			name:    "customer service without src",
			payload: `{"customerServicePlugin":{}}`,
			want:    models.BusinessRoute{},
		},
		{
			name:    "chatbot ignored src",
			payload: `{"chatbotPlugin":true,"src":22}`,
			want:    models.BusinessRoute{BusinessID: "IgnoreMessage"},
		},
		{
			name:    "chatbot other src",
			payload: `{"chatbotPlugin":true,"src":3}`,
			want:    models.BusinessRoute{BusinessID: "chatbotPlugin"},
		},
		{
			name:    "chatbot without src",
			payload: `{"chatbotPlugin":true}`,
			want:    models.BusinessRoute{BusinessID: "chatbotPlugin"},
		},
		{
			name:    "malformed json",
			payload: `{"businessID":`,
			want:    models.BusinessRoute{},
		},
		{
			name:    "unrelated payload",
			payload: `{"foo":"bar"}`,
			want:    models.BusinessRoute{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &models.MessageEnvelope{
				ElemType:      models.ElemCustom,
				CustomPayload: json.RawMessage(tt.payload),
			}
			assert.Equal(t, tt.want, r.Resolve(ctx, env))
		})
	}
}

func TestResolve_EmptyCustomPayload(t *testing.T) {
	r := NewResolver(logger.NopLogger())

	env := &models.MessageEnvelope{ElemType: models.ElemCustom}
	assert.Equal(t, models.BusinessRoute{}, r.Resolve(context.Background(), env))
}

func TestResolve_Signaling(t *testing.T) {
	r := NewResolver(logger.NopLogger())
	ctx := context.Background()

	tests := []struct {
		name            string
		data            string
		excludedLast    bool
		excludedUnread  bool
		want            models.BusinessRoute
	}{
		{
			name: "business id from data",
			data: `{"businessID":"av_call"}`,
			want: models.BusinessRoute{BusinessID: "av_call"},
		},
		{
			name:           "both exclusion flags set",
			data:           `{"businessID":"av_call"}`,
			excludedLast:   true,
			excludedUnread: true,
			want:           models.BusinessRoute{BusinessID: "av_call", ExcludeFromHistory: true},
		},
		{
			name:         "only last-message exclusion",
			data:         `{"businessID":"av_call"}`,
			excludedLast: true,
			want:         models.BusinessRoute{BusinessID: "av_call"},
		},
		{
			name:           "only unread-count exclusion",
			data:           `{"businessID":"av_call"}`,
			excludedUnread: true,
			want:           models.BusinessRoute{BusinessID: "av_call"},
		},
		{
			name:           "empty data keeps exclusion",
			data:           "",
			excludedLast:   true,
			excludedUnread: true,
			want:           models.BusinessRoute{ExcludeFromHistory: true},
		},
		{
			name:           "malformed data drops exclusion too",
			data:           `not-json`,
			excludedLast:   true,
			excludedUnread: true,
			want:           models.BusinessRoute{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &models.MessageEnvelope{
				ElemType:                models.ElemCustom,
				Signaling:               &models.SignalingInfo{ActionType: 1, Data: tt.data},
				ExcludedFromLastMessage: tt.excludedLast,
				ExcludedFromUnreadCount: tt.excludedUnread,
			}
			assert.Equal(t, tt.want, r.Resolve(ctx, env))
		})
	}
}

func TestResolve_NonCustomNonSignaling(t *testing.T) {
	r := NewResolver(logger.NopLogger())

	env := &models.MessageEnvelope{ElemType: models.ElemText}
	assert.Equal(t, models.BusinessRoute{}, r.Resolve(context.Background(), env))
}
