package revoke

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatpipe/internal/i18n"
	"chatpipe/pkg/models"
)

func revokedText(sentAt time.Time) *models.MessageEnvelope {
	return &models.MessageEnvelope{
		MsgID:     "m1",
		Sender:    "u1",
		UserID:    "u2",
		Timestamp: sentAt,
		ElemType:  models.ElemText,
		Status:    models.StatusLocalRevoked,
		IsSelf:    true,
		Text:      &models.TextElem{Text: "typo"},
	}
}

func TestCanReEdit_WindowBoundary(t *testing.T) {
	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := NewHandler(2*time.Minute, i18n.NewCatalog())

	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{name: "well inside window", elapsed: 30 * time.Second, want: true},
		{name: "one second before boundary", elapsed: 119 * time.Second, want: true},
		{name: "exactly at boundary", elapsed: 120 * time.Second, want: false},
		{name: "past window", elapsed: 200 * time.Second, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.WithClock(func() time.Time { return sentAt.Add(tt.elapsed) })
			assert.Equal(t, tt.want, h.CanReEdit(revokedText(sentAt)))
		})
	}
}

func TestCanReEdit_Eligibility(t *testing.T) {
	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := NewHandler(2*time.Minute, i18n.NewCatalog()).
		WithClock(func() time.Time { return sentAt.Add(10 * time.Second) })

	t.Run("non-text element", func(t *testing.T) {
		env := revokedText(sentAt)
		env.ElemType = models.ElemImage
		env.Text = nil
		env.Image = &models.ImageElem{Path: "/p"}
		assert.False(t, h.CanReEdit(env))
	})

	t.Run("incoming message", func(t *testing.T) {
		env := revokedText(sentAt)
		env.IsSelf = false
		assert.False(t, h.CanReEdit(env))
	})

	t.Run("revoked by someone else", func(t *testing.T) {
		env := revokedText(sentAt)
		env.Revoker = &models.MemberInfo{UserID: "admin"}
		assert.False(t, h.CanReEdit(env))
	})

	t.Run("revoker is sender", func(t *testing.T) {
		env := revokedText(sentAt)
		env.Revoker = &models.MemberInfo{UserID: "u1"}
		assert.True(t, h.CanReEdit(env))
	})
}

func TestHandle_SelfRevokeIsSystemCell(t *testing.T) {
	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := NewHandler(2*time.Minute, i18n.NewCatalog()).
		WithClock(func() time.Time { return sentAt.Add(10 * time.Second) })

	cell := h.Handle(revokedText(sentAt))
	sys, ok := cell.(*models.SystemCellData)
	require.True(t, ok)
	assert.Equal(t, "You recalled a message", sys.Content)
	assert.True(t, sys.SupportReEdit)
	assert.Equal(t, models.DirectionOutgoing, sys.Base().Direction)
}

func TestHandle_GroupRevokeByAdminIsGroupTip(t *testing.T) {
	h := NewHandler(0, i18n.NewCatalog())

	env := revokedText(time.Now())
	env.IsSelf = false
	env.GroupID = "g1"
	env.Revoker = &models.MemberInfo{UserID: "admin", NameCard: "The Admin"}

	cell := h.Handle(env)
	tip, ok := cell.(*models.JoinGroupCellData)
	require.True(t, ok)
	assert.Equal(t, "admin", tip.OpUserID)
	assert.Equal(t, "The Admin", tip.OpUserName)
	assert.Equal(t, `"The Admin" recalled a message`, tip.Content)
	assert.False(t, tip.SupportReEdit)
}

func TestHandle_GroupSelfRevokeStaysSystemCell(t *testing.T) {
	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := NewHandler(2*time.Minute, i18n.NewCatalog()).
		WithClock(func() time.Time { return sentAt.Add(10 * time.Second) })

	env := revokedText(sentAt)
	env.GroupID = "g1"

	_, ok := h.Handle(env).(*models.SystemCellData)
	assert.True(t, ok)
}

func TestDisplayString(t *testing.T) {
	h := NewHandler(0, i18n.NewCatalog())

	t.Run("self", func(t *testing.T) {
		env := revokedText(time.Now())
		assert.Equal(t, "You recalled a message", h.DisplayString(env))
	})

	t.Run("other sender revoked own message", func(t *testing.T) {
		env := revokedText(time.Now())
		env.IsSelf = false
		env.NickName = "Carol"
		assert.Equal(t, `"Carol" recalled a message`, h.DisplayString(env))
	})

	t.Run("revoked by third party", func(t *testing.T) {
		env := revokedText(time.Now())
		env.Revoker = &models.MemberInfo{UserID: "admin", NickName: "Admin"}
		assert.Equal(t, `"Admin" recalled a message`, h.DisplayString(env))
	})
}
