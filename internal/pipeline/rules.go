package pipeline

import (
	"context"
	"strings"

	"chatpipe/internal/business"
	"chatpipe/internal/calling"
	"chatpipe/internal/constants"
	"chatpipe/internal/i18n"
	"chatpipe/internal/logger"
	"chatpipe/internal/names"
	"chatpipe/internal/registry"
	"chatpipe/internal/revoke"
	"chatpipe/pkg/models"
)

// riskRule masks previews of messages flagged by content moderation. It
// never builds a cell: risk masking is a preview concern only, and a
// revoked risky message still previews as revoked.
type riskRule struct {
	catalog *i18n.Catalog
}

func (r *riskRule) Name() string { return "risk" }

func (r *riskRule) CellData(_ context.Context, _ *models.MessageEnvelope) (models.CellData, bool) {
	return nil, false
}

func (r *riskRule) DisplayString(_ context.Context, env *models.MessageEnvelope) (string, bool, bool) {
	if !env.HasRiskContent || env.Status == models.StatusLocalRevoked {
		return "", false, false
	}
	return r.catalog.Get(i18n.KeyRiskContent), true, true
}

// revokeRule dominates every later rule on both surfaces: a locally
// revoked message renders as a recall tip regardless of its element type
// or custom flags.
type revokeRule struct {
	handler *revoke.Handler
}

func (r *revokeRule) Name() string { return "revoke" }

func (r *revokeRule) CellData(_ context.Context, env *models.MessageEnvelope) (models.CellData, bool) {
	if env.Status != models.StatusLocalRevoked {
		return nil, false
	}
	return r.handler.Handle(env), true
}

func (r *revokeRule) DisplayString(_ context.Context, env *models.MessageEnvelope) (string, bool, bool) {
	if env.Status != models.StatusLocalRevoked {
		return "", false, false
	}
	return r.handler.DisplayString(env), true, true
}

// cloudCustomRule routes reply and reference messages to the builders the
// host registered for them. With no builder registered the rule declines
// and the message falls through to plain element dispatch. Previews are
// untouched: a reply still previews as its underlying element.
type cloudCustomRule struct {
	registry *registry.Registry
}

func (r *cloudCustomRule) Name() string { return "cloud_custom" }

func (r *cloudCustomRule) CellData(_ context.Context, env *models.MessageEnvelope) (models.CellData, bool) {
	if env.HasCloudCustomFlag(models.FlagReply) {
		if builder, ok := r.registry.ReplyBuilder(); ok {
			return r.build(builder, env)
		}
	}
	if env.HasCloudCustomFlag(models.FlagReference) {
		if builder, ok := r.registry.ReferenceBuilder(); ok {
			return r.build(builder, env)
		}
	}
	return nil, false
}

func (r *cloudCustomRule) build(builder registry.Builder, env *models.MessageEnvelope) (models.CellData, bool) {
	cell := builder.Build(env)
	if cell == nil || builder.ShouldHide(cell) {
		return nil, true
	}
	return cell, true
}

func (r *cloudCustomRule) DisplayString(_ context.Context, _ *models.MessageEnvelope) (string, bool, bool) {
	return "", false, false
}

// elementRule is the terminal rule: plain element dispatch, group-tip
// sub-dispatch and custom-business dispatch. It always handles.
type elementRule struct {
	catalog  *i18n.Catalog
	registry *registry.Registry
	calling  *calling.Adapter
	business *business.Resolver
	names    *names.Resolver
	logger   logger.Logger
}

func (r *elementRule) Name() string { return "element" }

func (r *elementRule) CellData(ctx context.Context, env *models.MessageEnvelope) (models.CellData, bool) {
	switch env.ElemType {
	case models.ElemText:
		cell := &models.TextCellData{CellBase: baseFor(env, models.KindText)}
		if env.Text != nil {
			cell.Text = env.Text.Text
		}
		return cell, true

	case models.ElemImage:
		cell := &models.ImageCellData{CellBase: baseFor(env, models.KindImage)}
		if env.Image != nil {
			cell.Path = env.Image.Path
			cell.Width = env.Image.Width
			cell.Height = env.Image.Height
		}
		return cell, true

	case models.ElemSound:
		cell := &models.VoiceCellData{CellBase: baseFor(env, models.KindVoice)}
		if env.Sound != nil {
			cell.Path = env.Sound.Path
			cell.Duration = env.Sound.Duration
		}
		return cell, true

	case models.ElemVideo:
		cell := &models.VideoCellData{CellBase: baseFor(env, models.KindVideo)}
		if env.Video != nil {
			cell.VideoPath = env.Video.VideoPath
			cell.SnapshotPath = env.Video.SnapshotPath
			cell.Duration = env.Video.Duration
		}
		return cell, true

	case models.ElemFile:
		cell := &models.FileCellData{CellBase: baseFor(env, models.KindFile)}
		if env.File != nil {
			cell.Path = env.File.Path
			cell.FileName = env.File.FileName
			cell.FileSize = env.File.FileSize
		}
		return cell, true

	case models.ElemFace:
		cell := &models.FaceCellData{CellBase: baseFor(env, models.KindFace)}
		if env.Face != nil {
			cell.Index = env.Face.Index
			cell.Data = env.Face.Data
		}
		return cell, true

	case models.ElemGroupTips:
		return r.groupTipCell(ctx, env), true

	case models.ElemMerger:
		cell := &models.MergerCellData{CellBase: baseFor(env, models.KindMerger)}
		if env.Merger != nil {
			cell.Title = env.Merger.Title
			cell.AbstractList = env.Merger.AbstractList
		}
		return cell, true

	case models.ElemCustom:
		return r.customCell(ctx, env), true

	default:
		return r.unsupported(env), true
	}
}

func (r *elementRule) DisplayString(ctx context.Context, env *models.MessageEnvelope) (string, bool, bool) {
	switch env.ElemType {
	case models.ElemText:
		// An empty body is still a previewable message.
		if env.Text != nil {
			return env.Text.Text, true, true
		}
		return "", true, true
	case models.ElemImage:
		return r.catalog.Get(i18n.KeyPreviewImage), true, true
	case models.ElemSound:
		return r.catalog.Get(i18n.KeyPreviewVoice), true, true
	case models.ElemVideo:
		return r.catalog.Get(i18n.KeyPreviewVideo), true, true
	case models.ElemFile:
		return r.catalog.Get(i18n.KeyPreviewFile), true, true
	case models.ElemFace:
		return r.catalog.Get(i18n.KeyPreviewFace), true, true
	case models.ElemGroupTips:
		text := r.renderTipText(ctx, env)
		return text, text != "", true
	case models.ElemMerger:
		if env.Merger != nil && env.Merger.Title != "" {
			return env.Merger.Title, true, true
		}
		return r.catalog.Get(i18n.KeyPreviewMerger), true, true
	case models.ElemCustom:
		text := r.customDisplayString(ctx, env)
		return text, text != "", true
	default:
		return r.catalog.Get(i18n.KeyUnsupported), true, true
	}
}

// Group-tip sub-types rendered as attributed membership tips. Everything
// else renders its pre-formatted text or is dropped when that text is
// empty.
var joinGroupTipTypes = map[models.GroupTipsType]struct{}{
	models.GroupTipJoin:             {},
	models.GroupTipInvite:           {},
	models.GroupTipKicked:           {},
	models.GroupTipGroupInfoChanged: {},
	models.GroupTipQuit:             {},
	models.GroupTipPinnedAdded:      {},
	models.GroupTipPinnedRemoved:    {},
}

func (r *elementRule) groupTipCell(ctx context.Context, env *models.MessageEnvelope) models.CellData {
	tips := env.GroupTips
	if tips == nil {
		return nil
	}

	if _, ok := joinGroupTipTypes[tips.Type]; ok {
		opName, memberIDs, memberNames := r.tipParticipants(ctx, tips)
		content := r.membershipTipText(tips.Type, opName, memberNames)
		cell := &models.JoinGroupCellData{
			SystemCellData: models.SystemCellData{
				CellBase: baseFor(env, models.KindJoinGroup),
				Content:  content,
			},
			OpUserID:     tips.OpMember.UserID,
			OpUserName:   opName,
			UserIDList:   memberIDs,
			UserNameList: memberNames,
		}
		return cell
	}

	text := r.renderTipText(ctx, env)
	if text == "" {
		return nil
	}
	return &models.SystemCellData{
		CellBase: baseFor(env, models.KindSystem),
		Content:  text,
	}
}

// tipParticipants resolves presentation names for the operator and the
// affected members. Names carried on the envelope win; ids the envelope
// could not name go through the directory, and a directory miss falls
// back to the raw id.
func (r *elementRule) tipParticipants(ctx context.Context, tips *models.GroupTipsElem) (string, []string, []string) {
	var unnamed []string
	if tips.OpMember.DisplayName() == tips.OpMember.UserID && tips.OpMember.UserID != "" {
		unnamed = append(unnamed, tips.OpMember.UserID)
	}
	for _, m := range tips.MemberList {
		if m.DisplayName() == m.UserID && m.UserID != "" {
			unnamed = append(unnamed, m.UserID)
		}
	}

	var resolved map[string]string
	if len(unnamed) > 0 && r.names != nil {
		resolved = r.names.Lookup(ctx, unnamed)
	}

	nameOf := func(m models.MemberInfo) string {
		if name := m.DisplayName(); name != m.UserID {
			return name
		}
		if name, ok := resolved[m.UserID]; ok {
			return name
		}
		return m.UserID
	}

	opName := nameOf(tips.OpMember)
	memberIDs := make([]string, 0, len(tips.MemberList))
	memberNames := make([]string, 0, len(tips.MemberList))
	for _, m := range tips.MemberList {
		memberIDs = append(memberIDs, m.UserID)
		memberNames = append(memberNames, nameOf(m))
	}
	return opName, memberIDs, memberNames
}

func (r *elementRule) membershipTipText(tipType models.GroupTipsType, opName string, memberNames []string) string {
	members := strings.Join(memberNames, ", ")
	switch tipType {
	case models.GroupTipJoin:
		return r.catalog.Format(i18n.KeyGroupTipJoinFormat, members)
	case models.GroupTipInvite:
		return r.catalog.Format(i18n.KeyGroupTipInviteFormat, opName, members)
	case models.GroupTipQuit:
		return r.catalog.Format(i18n.KeyGroupTipQuitFormat, opName)
	case models.GroupTipKicked:
		return r.catalog.Format(i18n.KeyGroupTipKickedFormat, opName, members)
	case models.GroupTipGroupInfoChanged:
		return r.catalog.Format(i18n.KeyGroupTipInfoChangedFormat, opName)
	case models.GroupTipPinnedAdded:
		return r.catalog.Format(i18n.KeyGroupTipPinnedAddedFormat, opName)
	case models.GroupTipPinnedRemoved:
		return r.catalog.Format(i18n.KeyGroupTipPinnedRemovedFormat, opName)
	default:
		return ""
	}
}

// renderTipText produces the preview and system-tip body for any group
// tip. Empty output means the tip does not appear anywhere.
func (r *elementRule) renderTipText(ctx context.Context, env *models.MessageEnvelope) string {
	tips := env.GroupTips
	if tips == nil {
		return ""
	}
	if _, ok := joinGroupTipTypes[tips.Type]; ok {
		opName, _, memberNames := r.tipParticipants(ctx, tips)
		return r.membershipTipText(tips.Type, opName, memberNames)
	}
	if tips.Text != "" {
		return tips.Text
	}
	_, _, memberNames := r.tipParticipants(ctx, tips)
	members := strings.Join(memberNames, ", ")
	switch tips.Type {
	case models.GroupTipSetAdmin:
		return r.catalog.Format(i18n.KeyGroupTipSetAdminFormat, members)
	case models.GroupTipCancelAdmin:
		return r.catalog.Format(i18n.KeyGroupTipCancelAdminFormat, members)
	default:
		return ""
	}
}

func (r *elementRule) customCell(ctx context.Context, env *models.MessageEnvelope) models.CellData {
	if r.calling != nil {
		if claimed, cell := r.calling.TryAdapt(ctx, env); claimed {
			return cell
		}
	}

	route := r.business.Resolve(ctx, env)
	if route.ExcludeFromHistory {
		return nil
	}

	if route.BusinessID == "" {
		return r.unsupported(env)
	}

	if builder, ok := r.registry.Lookup(route.BusinessID); ok {
		cell := builder.Build(env)
		if cell == nil || builder.ShouldHide(cell) {
			return nil
		}
		cell.Base().ReuseKey = route.BusinessID
		return cell
	}

	if isSilentBusinessID(route.BusinessID) {
		return nil
	}
	return r.unsupported(env)
}

func (r *elementRule) customDisplayString(ctx context.Context, env *models.MessageEnvelope) string {
	if r.calling != nil {
		if claimed, preview, ok := r.calling.TryDisplayString(ctx, env); claimed {
			if !ok {
				return ""
			}
			return preview
		}
	}

	route := r.business.Resolve(ctx, env)
	if route.ExcludeFromHistory {
		return ""
	}

	if route.BusinessID != "" {
		if builder, ok := r.registry.Lookup(route.BusinessID); ok {
			cell := builder.Build(env)
			if cell == nil || builder.ShouldHide(cell) {
				return ""
			}
			if stringer, ok := builder.(registry.DisplayStringer); ok {
				return stringer.DisplayString(env)
			}
			return r.catalog.Get(i18n.KeyUnsupported)
		}
		if isSilentBusinessID(route.BusinessID) {
			return ""
		}
	}
	return r.catalog.Get(i18n.KeyUnsupported)
}

// Unregistered customer-service and ignore-marked messages disappear
// silently instead of rendering an unsupported placeholder.
func isSilentBusinessID(businessID string) bool {
	return strings.Contains(businessID, constants.BusinessIDCustomerService) ||
		strings.Contains(businessID, constants.BusinessIDIgnore)
}

func (r *elementRule) unsupported(env *models.MessageEnvelope) *models.UnsupportedCellData {
	return &models.UnsupportedCellData{
		CellBase: baseFor(env, models.KindUnsupported),
		Text:     r.catalog.Get(i18n.KeyUnsupported),
	}
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
