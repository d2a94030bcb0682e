package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatpipe/internal/registry"
	"chatpipe/pkg/models"
)

func textEnvelope(msgID, text string) *models.MessageEnvelope {
	return &models.MessageEnvelope{
		MsgID:     msgID,
		Sender:    "u1",
		UserID:    "u2",
		Timestamp: time.Now(),
		ElemType:  models.ElemText,
		Status:    models.StatusSendSuccess,
		Text:      &models.TextElem{Text: text},
	}
}

func customEnvelope(msgID string, payload string) *models.MessageEnvelope {
	return &models.MessageEnvelope{
		MsgID:         msgID,
		Sender:        "u1",
		UserID:        "u2",
		Timestamp:     time.Now(),
		ElemType:      models.ElemCustom,
		Status:        models.StatusSendSuccess,
		CustomPayload: json.RawMessage(payload),
	}
}

func TestDeriver_RevokeDominatesClassification(t *testing.T) {
	d := NewDeriver(Config{})
	ctx := context.Background()

	tests := []struct {
		name string
		env  *models.MessageEnvelope
	}{
		{
			name: "revoked text",
			env: &models.MessageEnvelope{
				MsgID: "m1", Sender: "u1", UserID: "u2",
				Timestamp: time.Now(),
				ElemType:  models.ElemText,
				Status:    models.StatusLocalRevoked,
				Text:      &models.TextElem{Text: "hi"},
			},
		},
		{
			name: "revoked image",
			env: &models.MessageEnvelope{
				MsgID: "m2", Sender: "u1", UserID: "u2",
				Timestamp: time.Now(),
				ElemType:  models.ElemImage,
				Status:    models.StatusLocalRevoked,
				Image:     &models.ImageElem{Path: "/tmp/a.png"},
			},
		},
		{
			name: "revoked custom with reply flag",
			env: &models.MessageEnvelope{
				MsgID: "m3", Sender: "u1", UserID: "u2",
				Timestamp:        time.Now(),
				ElemType:         models.ElemCustom,
				Status:           models.StatusLocalRevoked,
				CloudCustomFlags: []string{models.FlagReply},
				CustomPayload:    json.RawMessage(`{"businessID":"orders"}`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := d.Classify(ctx, tt.env)
			require.NotNil(t, cell)
			assert.Equal(t, models.KindSystem, cell.Kind())
		})
	}
}

func TestDeriver_GroupRevokeByOtherIsGroupTip(t *testing.T) {
	d := NewDeriver(Config{})

	env := &models.MessageEnvelope{
		MsgID: "m1", Sender: "u1", GroupID: "g1",
		Timestamp: time.Now(),
		ElemType:  models.ElemText,
		Status:    models.StatusLocalRevoked,
		Text:      &models.TextElem{Text: "hi"},
		Revoker:   &models.MemberInfo{UserID: "admin", NickName: "Admin"},
	}

	cell := d.Classify(context.Background(), env)
	require.NotNil(t, cell)

	tip, ok := cell.(*models.JoinGroupCellData)
	require.True(t, ok)
	assert.Equal(t, "admin", tip.OpUserID)
	assert.Equal(t, "Admin", tip.OpUserName)
	assert.Contains(t, tip.Content, "Admin")
}

func TestDeriver_RiskOverridesElementPreview(t *testing.T) {
	d := NewDeriver(Config{})

	env := textEnvelope("m1", "something nasty")
	env.HasRiskContent = true

	preview, ok := d.ResolveDisplayString(context.Background(), env)
	require.True(t, ok)
	assert.Equal(t, "The message content contains risks", preview)

	// Classification is untouched by the risk flag.
	cell := d.Classify(context.Background(), env)
	require.NotNil(t, cell)
	assert.Equal(t, models.KindText, cell.Kind())
}

func TestDeriver_RevokeBeatsRiskInPreview(t *testing.T) {
	d := NewDeriver(Config{})

	env := textEnvelope("m1", "something nasty")
	env.HasRiskContent = true
	env.Status = models.StatusLocalRevoked
	env.IsSelf = true

	preview, ok := d.ResolveDisplayString(context.Background(), env)
	require.True(t, ok)
	assert.Equal(t, "You recalled a message", preview)
}

func TestDeriver_SuppressionConsistency(t *testing.T) {
	d := NewDeriver(Config{})
	ctx := context.Background()

	env := &models.MessageEnvelope{
		MsgID: "m1", Sender: "u1", UserID: "u2",
		Timestamp:               time.Now(),
		ElemType:                models.ElemCustom,
		Status:                  models.StatusSendSuccess,
		ExcludedFromLastMessage: true,
		ExcludedFromUnreadCount: true,
		Signaling: &models.SignalingInfo{
			ActionType: 1,
			Inviter:    "u1",
			Data:       `{"businessID":"some_plugin"}`,
		},
	}

	assert.Nil(t, d.Classify(ctx, env))
	_, ok := d.ResolveDisplayString(ctx, env)
	assert.False(t, ok)
}

func TestDeriver_PartialExclusionDoesNotSuppress(t *testing.T) {
	d := NewDeriver(Config{})

	env := &models.MessageEnvelope{
		MsgID: "m1", Sender: "u1", UserID: "u2",
		Timestamp:               time.Now(),
		ElemType:                models.ElemCustom,
		Status:                  models.StatusSendSuccess,
		ExcludedFromLastMessage: true,
		Signaling: &models.SignalingInfo{
			ActionType: 1,
			Data:       `{"businessID":"some_plugin"}`,
		},
	}

	cell := d.Classify(context.Background(), env)
	require.NotNil(t, cell)
	assert.Equal(t, models.KindUnsupported, cell.Kind())
}

func TestDeriver_ClassifyIsIdempotent(t *testing.T) {
	d := NewDeriver(Config{})
	ctx := context.Background()

	env := textEnvelope("m1", "same again")
	env.GroupID = "g1"
	env.NickName = "Ann"

	first := d.Classify(ctx, env)
	second := d.Classify(ctx, env)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
}

func TestDeriver_EmptyGroupTipIsDropped(t *testing.T) {
	d := NewDeriver(Config{})
	ctx := context.Background()

	env := &models.MessageEnvelope{
		MsgID: "m1", Sender: "u1", GroupID: "g1",
		Timestamp: time.Now(),
		ElemType:  models.ElemGroupTips,
		Status:    models.StatusSendSuccess,
		GroupTips: &models.GroupTipsElem{
			Type: models.GroupTipMemberInfoChanged,
		},
	}

	assert.Nil(t, d.Classify(ctx, env))
	_, ok := d.ResolveDisplayString(ctx, env)
	assert.False(t, ok)
}

func TestDeriver_GroupTipWithTextIsSystemCell(t *testing.T) {
	d := NewDeriver(Config{})

	env := &models.MessageEnvelope{
		MsgID: "m1", Sender: "u1", GroupID: "g1",
		Timestamp: time.Now(),
		ElemType:  models.ElemGroupTips,
		Status:    models.StatusSendSuccess,
		GroupTips: &models.GroupTipsElem{
			Type: models.GroupTipMemberInfoChanged,
			Text: "Member muted for 10 minutes",
		},
	}

	cell := d.Classify(context.Background(), env)
	require.NotNil(t, cell)

	sys, ok := cell.(*models.SystemCellData)
	require.True(t, ok)
	assert.Equal(t, "Member muted for 10 minutes", sys.Content)

	preview, ok := d.ResolveDisplayString(context.Background(), env)
	require.True(t, ok)
	assert.Equal(t, "Member muted for 10 minutes", preview)
}

func TestDeriver_GroupTipKicked(t *testing.T) {
	d := NewDeriver(Config{})

	env := &models.MessageEnvelope{
		MsgID: "m1", Sender: "u1", GroupID: "g1",
		Timestamp: time.Now(),
		ElemType:  models.ElemGroupTips,
		Status:    models.StatusSendSuccess,
		GroupTips: &models.GroupTipsElem{
			Type:     models.GroupTipKicked,
			OpMember: models.MemberInfo{UserID: "u1", NameCard: "Alice"},
			MemberList: []models.MemberInfo{
				{UserID: "u2", NickName: "Bob"},
			},
		},
	}

	cell := d.Classify(context.Background(), env)
	require.NotNil(t, cell)

	tip, ok := cell.(*models.JoinGroupCellData)
	require.True(t, ok)
	assert.Equal(t, "u1", tip.OpUserID)
	assert.Equal(t, "Alice", tip.OpUserName)
	assert.Equal(t, []string{"u2"}, tip.UserIDList)
	assert.Equal(t, []string{"Bob"}, tip.UserNameList)
	assert.Equal(t, `"Alice" removed "Bob" from the group`, tip.Content)
}

func TestDeriver_UnregisteredChatbotIsUnsupported(t *testing.T) {
	d := NewDeriver(Config{})

	env := customEnvelope("m1", `{"businessID":"chatbotPlugin"}`)

	cell := d.Classify(context.Background(), env)
	require.NotNil(t, cell)

	unsupported, ok := cell.(*models.UnsupportedCellData)
	require.True(t, ok)
	assert.Equal(t, "[Unsupported message type]", unsupported.Text)
}

func TestDeriver_ChatbotIgnoreSrcIsDropped(t *testing.T) {
	d := NewDeriver(Config{})
	ctx := context.Background()

	env := customEnvelope("m1", `{"chatbotPlugin":true,"src":22}`)

	assert.Nil(t, d.Classify(ctx, env))
	_, ok := d.ResolveDisplayString(ctx, env)
	assert.False(t, ok)
}

func TestDeriver_UnregisteredCustomerServiceIsDropped(t *testing.T) {
	d := NewDeriver(Config{})

	env := customEnvelope("m1", `{"customerServicePlugin":{},"src":"7"}`)

	assert.Nil(t, d.Classify(context.Background(), env))
}

func TestDeriver_RegisteredBuilderGetsReuseKey(t *testing.T) {
	reg := registry.New()
	reg.Register("orders", registry.BuilderFunc{
		BuildFn: func(env *models.MessageEnvelope) models.CellData {
			return &models.CustomBusinessCellData{
				BusinessID: "orders",
				Payload:    env.CustomPayload,
			}
		},
	})

	d := NewDeriver(Config{Registry: reg})

	env := customEnvelope("m1", `{"businessID":"orders","order_id":42}`)

	cell := d.Classify(context.Background(), env)
	require.NotNil(t, cell)
	assert.Equal(t, models.KindCustomBusiness, cell.Kind())
	assert.Equal(t, "orders", cell.Base().ReuseKey)
}

func TestDeriver_BuilderShouldHideSuppresses(t *testing.T) {
	reg := registry.New()
	reg.Register("orders", registry.BuilderFunc{
		BuildFn: func(env *models.MessageEnvelope) models.CellData {
			return &models.CustomBusinessCellData{BusinessID: "orders"}
		},
		ShouldHideFn: func(cell models.CellData) bool { return true },
	})

	d := NewDeriver(Config{Registry: reg})

	env := customEnvelope("m1", `{"businessID":"orders"}`)

	assert.Nil(t, d.Classify(context.Background(), env))
}

func TestDeriver_ReplyBuilderWinsOverElementDispatch(t *testing.T) {
	reg := registry.New()
	reg.RegisterReplyBuilder(registry.BuilderFunc{
		BuildFn: func(env *models.MessageEnvelope) models.CellData {
			return &models.CustomBusinessCellData{BusinessID: "reply"}
		},
	})

	d := NewDeriver(Config{Registry: reg})

	env := textEnvelope("m1", "quoted reply")
	env.CloudCustomFlags = []string{models.FlagReply}

	cell := d.Classify(context.Background(), env)
	require.NotNil(t, cell)
	assert.Equal(t, models.KindCustomBusiness, cell.Kind())
}

func TestDeriver_ReplyFlagWithoutBuilderFallsThrough(t *testing.T) {
	d := NewDeriver(Config{})

	env := textEnvelope("m1", "quoted reply")
	env.CloudCustomFlags = []string{models.FlagReply}

	cell := d.Classify(context.Background(), env)
	require.NotNil(t, cell)
	assert.Equal(t, models.KindText, cell.Kind())
}

func TestDeriver_ElementDispatch(t *testing.T) {
	d := NewDeriver(Config{})
	ctx := context.Background()

	tests := []struct {
		name     string
		mutate   func(env *models.MessageEnvelope)
		wantKind string
	}{
		{
			name: "image",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemImage
				env.Image = &models.ImageElem{Path: "/p", Width: 100, Height: 80}
			},
			wantKind: models.KindImage,
		},
		{
			name: "sound",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemSound
				env.Sound = &models.SoundElem{Duration: 4}
			},
			wantKind: models.KindVoice,
		},
		{
			name: "video",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemVideo
				env.Video = &models.VideoElem{Duration: 9}
			},
			wantKind: models.KindVideo,
		},
		{
			name: "file",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemFile
				env.File = &models.FileElem{FileName: "a.pdf", FileSize: 1024}
			},
			wantKind: models.KindFile,
		},
		{
			name: "face",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemFace
				env.Face = &models.FaceElem{Index: 3}
			},
			wantKind: models.KindFace,
		},
		{
			name: "merger",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemMerger
				env.Merger = &models.MergerElem{Title: "Chat history of two"}
			},
			wantKind: models.KindMerger,
		},
		{
			name: "unknown",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemUnknown
			},
			wantKind: models.KindUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := textEnvelope("m1", "")
			env.Text = nil
			tt.mutate(env)

			cell := d.Classify(ctx, env)
			require.NotNil(t, cell)
			assert.Equal(t, tt.wantKind, cell.Kind())
		})
	}
}

func TestDeriver_ElementPreviews(t *testing.T) {
	d := NewDeriver(Config{})
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(env *models.MessageEnvelope)
		preview string
	}{
		{
			name:    "text",
			mutate:  func(env *models.MessageEnvelope) {},
			preview: "hello there",
		},
		{
			name: "image",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemImage
				env.Image = &models.ImageElem{}
			},
			preview: "[Photo]",
		},
		{
			name: "sound",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemSound
				env.Sound = &models.SoundElem{}
			},
			preview: "[Voice]",
		},
		{
			name: "video",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemVideo
				env.Video = &models.VideoElem{}
			},
			preview: "[Video]",
		},
		{
			name: "file",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemFile
				env.File = &models.FileElem{}
			},
			preview: "[File]",
		},
		{
			name: "face",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemFace
				env.Face = &models.FaceElem{}
			},
			preview: "[Sticker]",
		},
		{
			name: "merger with title",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemMerger
				env.Merger = &models.MergerElem{Title: "Chat history of two"}
			},
			preview: "Chat history of two",
		},
		{
			name: "merger without title",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemMerger
				env.Merger = &models.MergerElem{}
			},
			preview: "[Chat History]",
		},
		{
			name: "unknown",
			mutate: func(env *models.MessageEnvelope) {
				env.ElemType = models.ElemUnknown
			},
			preview: "[Unsupported message type]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := textEnvelope("m1", "hello there")
			tt.mutate(env)

			preview, ok := d.ResolveDisplayString(ctx, env)
			require.True(t, ok)
			assert.Equal(t, tt.preview, preview)
		})
	}
}

type previewingBuilder struct {
	registry.BuilderFunc
	preview string
}

func (b previewingBuilder) DisplayString(env *models.MessageEnvelope) string {
	return b.preview
}

func TestDeriver_CustomPreviews(t *testing.T) {
	reg := registry.New()
	reg.Register("orders", previewingBuilder{
		BuilderFunc: registry.BuilderFunc{
			BuildFn: func(env *models.MessageEnvelope) models.CellData {
				return &models.CustomBusinessCellData{BusinessID: "orders"}
			},
		},
		preview: "[Order update]",
	})
	reg.Register("polls", registry.BuilderFunc{
		BuildFn: func(env *models.MessageEnvelope) models.CellData {
			return &models.CustomBusinessCellData{BusinessID: "polls"}
		},
	})

	d := NewDeriver(Config{Registry: reg})
	ctx := context.Background()

	t.Run("builder supplies preview", func(t *testing.T) {
		env := customEnvelope("m1", `{"businessID":"orders"}`)
		preview, ok := d.ResolveDisplayString(ctx, env)
		require.True(t, ok)
		assert.Equal(t, "[Order update]", preview)
	})

	t.Run("builder without preview capability", func(t *testing.T) {
		env := customEnvelope("m1", `{"businessID":"polls"}`)
		preview, ok := d.ResolveDisplayString(ctx, env)
		require.True(t, ok)
		assert.Equal(t, "[Unsupported message type]", preview)
	})

	t.Run("unregistered business id", func(t *testing.T) {
		env := customEnvelope("m1", `{"businessID":"unknown"}`)
		preview, ok := d.ResolveDisplayString(ctx, env)
		require.True(t, ok)
		assert.Equal(t, "[Unsupported message type]", preview)
	})

	t.Run("empty business id", func(t *testing.T) {
		env := customEnvelope("m1", `{"foo":"bar"}`)
		preview, ok := d.ResolveDisplayString(ctx, env)
		require.True(t, ok)
		assert.Equal(t, "[Unsupported message type]", preview)
	})

	t.Run("silent business id omitted", func(t *testing.T) {
		env := customEnvelope("m1", `{"customerServicePlugin":{},"src":"7"}`)
		_, ok := d.ResolveDisplayString(ctx, env)
		assert.False(t, ok)
	})
}

func TestDeriver_EmptyTextBodyStillPreviews(t *testing.T) {
	d := NewDeriver(Config{})
	ctx := context.Background()

	env := textEnvelope("m1", "")

	preview, ok := d.ResolveDisplayString(ctx, env)
	assert.True(t, ok)
	assert.Equal(t, "", preview)

	// The classification surface agrees: an empty text message is a real
	// cell, not a suppression.
	cell := d.Classify(ctx, env)
	require.NotNil(t, cell)
	assert.Equal(t, models.KindText, cell.Kind())

	record := d.Derive(ctx, env)
	assert.True(t, record.HasPreview)
	assert.False(t, record.Suppressed)
}

func TestDeriver_EnrichmentThroughClassify(t *testing.T) {
	d := NewDeriver(Config{})

	env := textEnvelope("m1", "hi")
	env.GroupID = "g1"
	env.NickName = "Ann"

	cell := d.Classify(context.Background(), env)
	require.NotNil(t, cell)

	base := cell.Base()
	assert.True(t, base.ShowName)
	assert.Equal(t, "Ann", base.Name)
	assert.Equal(t, models.DirectionIncoming, base.Direction)
	assert.Equal(t, models.PresentationSuccess, base.Status)
}

func TestDeriver_DeriveRecord(t *testing.T) {
	d := NewDeriver(Config{})
	ctx := context.Background()

	env := textEnvelope("m1", "hi")
	env.Metadata.TraceID = "trace-1"

	record := d.Derive(ctx, env)
	require.NotNil(t, record)
	assert.Equal(t, "m1", record.MsgID)
	assert.Equal(t, "c2c_u2", record.ConversationID)
	assert.Equal(t, models.KindText, record.Kind)
	assert.NotNil(t, record.Cell)
	assert.False(t, record.Suppressed)
	assert.True(t, record.HasPreview)
	assert.Equal(t, "hi", record.Preview)
	assert.Equal(t, "trace-1", record.TraceID)
	assert.False(t, record.DerivedAt.IsZero())
}

func TestDeriver_DeriveSuppressedRecord(t *testing.T) {
	d := NewDeriver(Config{})

	env := customEnvelope("m1", `{"chatbotPlugin":true,"src":22}`)
	env.GroupID = "g1"

	record := d.Derive(context.Background(), env)
	require.NotNil(t, record)
	assert.Equal(t, "group_g1", record.ConversationID)
	assert.True(t, record.Suppressed)
	assert.Nil(t, record.Cell)
	assert.False(t, record.HasPreview)
}
