package calling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatpipe/internal/i18n"
	"chatpipe/internal/logger"
	"chatpipe/pkg/models"
)

func newTestAdapter(style string) *Adapter {
	catalog := i18n.NewCatalog()
	provider := NewProvider(style, "self", catalog, logger.NopLogger())
	return NewAdapter(provider, catalog)
}

func callEnvelope(actionType int, data string) *models.MessageEnvelope {
	return &models.MessageEnvelope{
		MsgID:     "m1",
		Sender:    "u1",
		UserID:    "u2",
		Timestamp: time.Now(),
		ElemType:  models.ElemCustom,
		Status:    models.StatusSendSuccess,
		Signaling: &models.SignalingInfo{
			ActionType: actionType,
			Data:       data,
		},
	}
}

func TestTryAdapt_NonCallingNotClaimed(t *testing.T) {
	a := newTestAdapter(AppearanceSimplify)
	ctx := context.Background()

	tests := []struct {
		name string
		env  *models.MessageEnvelope
	}{
		{
			name: "no signaling",
			env: &models.MessageEnvelope{
				MsgID: "m1", ElemType: models.ElemText,
				Text: &models.TextElem{Text: "hi"},
			},
		},
		{
			name: "signaling with foreign business id",
			env:  callEnvelope(ActionInvite, `{"businessID":"some_plugin"}`),
		},
		{
			name: "malformed signaling data",
			env:  callEnvelope(ActionInvite, `not-json`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claimed, cell := a.TryAdapt(ctx, tt.env)
			assert.False(t, claimed)
			assert.Nil(t, cell)
		})
	}
}

func TestTryAdapt_ExcludedCallYieldsNoCell(t *testing.T) {
	a := newTestAdapter(AppearanceSimplify)

	env := callEnvelope(ActionInvite, `{"businessID":"av_call","call_type":1}`)
	env.ExcludedFromLastMessage = true
	env.ExcludedFromUnreadCount = true

	claimed, cell := a.TryAdapt(context.Background(), env)
	assert.True(t, claimed)
	assert.Nil(t, cell)

	claimed, _, ok := a.TryDisplayString(context.Background(), env)
	assert.True(t, claimed)
	assert.False(t, ok)
}

func TestTryAdapt_C2CCallIsTextCell(t *testing.T) {
	a := newTestAdapter(AppearanceSimplify)

	env := callEnvelope(ActionInvite,
		`{"businessID":"av_call","call_type":1,"data":{"inviter":"self","cmd":"audioCall"}}`)

	claimed, cell := a.TryAdapt(context.Background(), env)
	require.True(t, claimed)
	require.NotNil(t, cell)

	text, ok := cell.(*models.TextCellData)
	require.True(t, ok)
	assert.Equal(t, "Calling", text.Text)
	assert.True(t, text.IsAudioCall)
	assert.False(t, text.IsVideoCall)
	assert.True(t, text.IsCaller)
	assert.Equal(t, models.DirectionOutgoing, text.Base().Direction)
}

func TestTryAdapt_C2CVideoCallee(t *testing.T) {
	a := newTestAdapter(AppearanceSimplify)

	env := callEnvelope(ActionInvite,
		`{"businessID":"av_call","call_type":2,"data":{"inviter":"u1","cmd":"videoCall"}}`)

	claimed, cell := a.TryAdapt(context.Background(), env)
	require.True(t, claimed)

	text, ok := cell.(*models.TextCellData)
	require.True(t, ok)
	assert.True(t, text.IsVideoCall)
	assert.False(t, text.IsCaller)
	assert.Equal(t, models.DirectionIncoming, text.Base().Direction)
}

func TestTryAdapt_MissedCallShowsUnreadPoint(t *testing.T) {
	a := newTestAdapter(AppearanceSimplify)

	env := callEnvelope(ActionCancelInvite,
		`{"businessID":"av_call","call_type":1,"data":{"inviter":"u1"}}`)

	claimed, cell := a.TryAdapt(context.Background(), env)
	require.True(t, claimed)

	text, ok := cell.(*models.TextCellData)
	require.True(t, ok)
	assert.Equal(t, "Canceled by caller", text.Text)
	assert.True(t, text.ShowUnreadPoint)

	env.LocalCustomInt = 1
	_, cell = a.TryAdapt(context.Background(), env)
	text = cell.(*models.TextCellData)
	assert.False(t, text.ShowUnreadPoint)
}

func TestTryAdapt_GroupCallIsSystemCell(t *testing.T) {
	a := newTestAdapter(AppearanceSimplify)

	env := callEnvelope(ActionInvite,
		`{"businessID":"av_call","call_type":1,"data":{"inviter":"u1"}}`)
	env.GroupID = "g1"
	env.NickName = "Ann"
	env.Signaling.GroupID = "g1"
	env.Signaling.Inviter = "u1"
	env.Signaling.InviteeList = []string{"u2", "u3"}

	claimed, cell := a.TryAdapt(context.Background(), env)
	require.True(t, claimed)

	sys, ok := cell.(*models.SystemCellData)
	require.True(t, ok)
	assert.Equal(t, `"Ann" started a group call`, sys.Content)
	assert.Equal(t, []string{"u1", "u2", "u3"}, sys.ReplacedUserIDList)
}

func TestTryAdapt_UnknownProtocolYieldsNoCell(t *testing.T) {
	a := newTestAdapter(AppearanceSimplify)

	env := callEnvelope(99, `{"businessID":"av_call"}`)

	claimed, cell := a.TryAdapt(context.Background(), env)
	assert.True(t, claimed)
	assert.Nil(t, cell)
}

func TestTryAdapt_DetailsAppearanceIgnoresExclusion(t *testing.T) {
	a := newTestAdapter(AppearanceDetails)

	env := callEnvelope(ActionInvite, `{"businessID":"av_call","call_type":1}`)
	env.ExcludedFromLastMessage = true
	env.ExcludedFromUnreadCount = true

	claimed, cell := a.TryAdapt(context.Background(), env)
	require.True(t, claimed)
	require.NotNil(t, cell)

	text, ok := cell.(*models.TextCellData)
	require.True(t, ok)
	assert.Equal(t, "Started a call", text.Text)
}

func TestTryDisplayString(t *testing.T) {
	a := newTestAdapter(AppearanceSimplify)
	ctx := context.Background()

	t.Run("hangup with duration", func(t *testing.T) {
		env := callEnvelope(ActionInvite,
			`{"businessID":"av_call","call_type":1,"call_end":75}`)

		claimed, preview, ok := a.TryDisplayString(ctx, env)
		assert.True(t, claimed)
		assert.True(t, ok)
		assert.Equal(t, "Call duration:01:15", preview)
	})

	t.Run("rtc business id also claimed", func(t *testing.T) {
		env := callEnvelope(ActionAcceptInvite, `{"businessID":"rtc_call","call_type":1}`)

		claimed, preview, ok := a.TryDisplayString(ctx, env)
		assert.True(t, claimed)
		assert.True(t, ok)
		assert.Equal(t, "Answered", preview)
	})

	t.Run("unknown protocol omitted from previews", func(t *testing.T) {
		env := callEnvelope(99, `{"businessID":"av_call"}`)

		claimed, _, ok := a.TryDisplayString(ctx, env)
		assert.True(t, claimed)
		assert.False(t, ok)
	})

	t.Run("non-calling not claimed", func(t *testing.T) {
		env := callEnvelope(ActionInvite, `{"businessID":"other"}`)

		claimed, _, ok := a.TryDisplayString(ctx, env)
		assert.False(t, claimed)
		assert.False(t, ok)
	})
}
