package revoke

import (
	"time"

	"chatpipe/internal/constants"
	"chatpipe/internal/i18n"
	"chatpipe/pkg/models"
)

// Handler turns a locally-revoked envelope into its system-tip cell and
// decides re-edit eligibility.
type Handler struct {
	window  time.Duration
	catalog *i18n.Catalog
	now     func() time.Time
}

func NewHandler(window time.Duration, catalog *i18n.Catalog) *Handler {
	if window <= 0 {
		window = constants.DefaultReEditWindow
	}
	return &Handler{
		window:  window,
		catalog: catalog,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Test hook.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Handle always produces a system-style cell: a JoinGroupCellData when the
// revoke happened in a group and was not the sender's own action, a plain
// SystemCellData otherwise.
func (h *Handler) Handle(env *models.MessageEnvelope) models.CellData {
	content := h.DisplayString(env)

	if env.GroupID != "" && !h.selfRevoked(env) {
		cell := &models.JoinGroupCellData{
			SystemCellData: models.SystemCellData{
				CellBase: baseFor(env, models.KindJoinGroup),
				Content:  content,
			},
		}
		if env.Revoker != nil {
			cell.OpUserID = env.Revoker.UserID
			cell.OpUserName = env.Revoker.DisplayName()
		}
		return cell
	}

	return &models.SystemCellData{
		CellBase:      baseFor(env, models.KindSystem),
		Content:       content,
		SupportReEdit: h.CanReEdit(env),
	}
}

// CanReEdit reports whether the revoked message may still be recalled into
// the composer: outgoing self-revoked text, strictly inside the window.
func (h *Handler) CanReEdit(env *models.MessageEnvelope) bool {
	if env.ElemType != models.ElemText {
		return false
	}
	if !env.IsSelf {
		return false
	}
	if !h.selfRevoked(env) {
		return false
	}
	return h.now().Sub(env.Timestamp) < h.window
}

// DisplayString renders the revoke line: "you recalled" for the local
// user, otherwise the revoker's (or sender's) display name.
func (h *Handler) DisplayString(env *models.MessageEnvelope) string {
	if h.selfRevoked(env) {
		if env.IsSelf {
			return h.catalog.Get(i18n.KeyRevokeSelf)
		}
		return h.catalog.Format(i18n.KeyRevokeOtherFormat, env.ShowName())
	}
	return h.catalog.Format(i18n.KeyRevokeOtherFormat, env.Revoker.DisplayName())
}

// selfRevoked reports whether the revoke was the original sender's own
// action. An absent revoker is treated as self-revocation.
func (h *Handler) selfRevoked(env *models.MessageEnvelope) bool {
	return env.Revoker == nil || env.Revoker.UserID == env.Sender
}

func baseFor(env *models.MessageEnvelope, kind string) models.CellBase {
	direction := models.DirectionIncoming
	if env.IsSelf {
		direction = models.DirectionOutgoing
	}
	return models.CellBase{
		MsgID:     env.MsgID,
		Direction: direction,
		ReuseKey:  kind,
	}
}
