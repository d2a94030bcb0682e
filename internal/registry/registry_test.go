package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatpipe/pkg/models"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()

	_, ok := r.Lookup("orders")
	assert.False(t, ok)

	r.Register("orders", BuilderFunc{
		BuildFn: func(env *models.MessageEnvelope) models.CellData {
			return &models.CustomBusinessCellData{BusinessID: "orders"}
		},
	})

	b, ok := r.Lookup("orders")
	require.True(t, ok)
	cell := b.Build(&models.MessageEnvelope{MsgID: "m1"})
	assert.Equal(t, models.KindCustomBusiness, cell.Kind())
	assert.Equal(t, 1, r.Size())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := New()

	r.Register("orders", BuilderFunc{
		BuildFn: func(env *models.MessageEnvelope) models.CellData {
			return &models.CustomBusinessCellData{BusinessID: "v1"}
		},
	})
	r.Register("orders", BuilderFunc{
		BuildFn: func(env *models.MessageEnvelope) models.CellData {
			return &models.CustomBusinessCellData{BusinessID: "v2"}
		},
	})

	b, ok := r.Lookup("orders")
	require.True(t, ok)
	cell := b.Build(nil).(*models.CustomBusinessCellData)
	assert.Equal(t, "v2", cell.BusinessID)
	assert.Equal(t, 1, r.Size())
}

func TestRegistry_ReplyAndReferenceBuilders(t *testing.T) {
	r := New()

	_, ok := r.ReplyBuilder()
	assert.False(t, ok)
	_, ok = r.ReferenceBuilder()
	assert.False(t, ok)

	r.RegisterReplyBuilder(BuilderFunc{
		BuildFn: func(env *models.MessageEnvelope) models.CellData {
			return &models.CustomBusinessCellData{BusinessID: "reply"}
		},
	})
	r.RegisterReferenceBuilder(BuilderFunc{
		BuildFn: func(env *models.MessageEnvelope) models.CellData {
			return &models.CustomBusinessCellData{BusinessID: "reference"}
		},
	})

	b, ok := r.ReplyBuilder()
	require.True(t, ok)
	assert.Equal(t, "reply", b.Build(nil).(*models.CustomBusinessCellData).BusinessID)

	b, ok = r.ReferenceBuilder()
	require.True(t, ok)
	assert.Equal(t, "reference", b.Build(nil).(*models.CustomBusinessCellData).BusinessID)
}

func TestBuilderFunc_ShouldHideDefaultsFalse(t *testing.T) {
	b := BuilderFunc{
		BuildFn: func(env *models.MessageEnvelope) models.CellData {
			return &models.CustomBusinessCellData{BusinessID: "orders"}
		},
	}
	assert.False(t, b.ShouldHide(b.Build(nil)))

	hidden := BuilderFunc{
		BuildFn:      b.BuildFn,
		ShouldHideFn: func(cell models.CellData) bool { return true },
	}
	assert.True(t, hidden.ShouldHide(hidden.Build(nil)))
}
