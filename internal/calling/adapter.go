package calling

import (
	"context"

	"chatpipe/internal/i18n"
	"chatpipe/pkg/models"
)

// Adapter translates calling events into cells. It is injected into the
// derivation rule chain by the composition root.
type Adapter struct {
	provider *Provider
	catalog  *i18n.Catalog
}

func NewAdapter(provider *Provider, catalog *i18n.Catalog) *Adapter {
	return &Adapter{provider: provider, catalog: catalog}
}

// TryAdapt claims an envelope when it is a calling event. A claimed
// envelope may still yield a nil cell, which means the message is
// excluded from the timeline.
func (a *Adapter) TryAdapt(ctx context.Context, env *models.MessageEnvelope) (bool, models.CellData) {
	info, ok := a.provider.InfoFor(ctx, env)
	if !ok {
		return false, nil
	}

	if info.ExcludeFromHistory() {
		return true, nil
	}

	switch info.ParticipantType() {
	case ParticipantC2C:
		content := info.Content()
		if content == "" {
			return true, &models.UnsupportedCellData{
				CellBase: models.CellBase{
					MsgID:     env.MsgID,
					Direction: info.Direction(),
					ReuseKey:  models.KindUnsupported,
				},
				Text: a.catalog.Get(i18n.KeyUnsupported),
			}
		}
		media := info.StreamMediaType()
		return true, &models.TextCellData{
			CellBase: models.CellBase{
				MsgID:     env.MsgID,
				Direction: info.Direction(),
				ReuseKey:  models.KindText,
			},
			Text:              content,
			IsAudioCall:       media == MediaVoice,
			IsVideoCall:       media == MediaVideo,
			IsCaller:          info.ParticipantRole() == RoleCaller,
			ShowUnreadPoint:   info.ShowUnreadPoint(),
			UseReceiverAvatar: info.IsUseReceiverAvatar(),
		}
	case ParticipantGroup:
		return true, &models.SystemCellData{
			CellBase: models.CellBase{
				MsgID:     env.MsgID,
				Direction: info.Direction(),
				ReuseKey:  models.KindSystem,
			},
			Content:            info.Content(),
			ReplacedUserIDList: info.ParticipantIDList(),
		}
	default:
		return true, nil
	}
}

// TryDisplayString claims an envelope when it is a calling event and
// returns its preview text. ok is false when the message is excluded from
// previews.
func (a *Adapter) TryDisplayString(ctx context.Context, env *models.MessageEnvelope) (claimed bool, preview string, ok bool) {
	info, found := a.provider.InfoFor(ctx, env)
	if !found {
		return false, "", false
	}

	if info.ExcludeFromHistory() {
		return true, "", false
	}

	if info.ParticipantType() == ParticipantUnknown {
		return true, "", false
	}

	content := info.Content()
	if content == "" {
		return true, "", false
	}
	return true, content, true
}
