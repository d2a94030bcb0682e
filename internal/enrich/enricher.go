package enrich

import (
	"context"
	"encoding/json"

	"chatpipe/internal/logger"
	"chatpipe/internal/progress"
	"chatpipe/pkg/models"
)

// Enricher applies post-construction state to a freshly classified cell:
// sender-name visibility, presentation status, transfer progress and
// reply-thread annotations. It mutates and returns the same instance.
type Enricher struct {
	progress progress.Registry
	logger   logger.Logger
}

func NewEnricher(reg progress.Registry, log logger.Logger) *Enricher {
	return &Enricher{progress: reg, logger: log}
}

func (e *Enricher) Enrich(ctx context.Context, cell models.CellData, env *models.MessageEnvelope) models.CellData {
	if cell == nil {
		return nil
	}

	base := cell.Base()
	base.MsgID = env.MsgID
	if env.IsSelf {
		base.Direction = models.DirectionOutgoing
	} else {
		base.Direction = models.DirectionIncoming
	}

	if e.shouldShowName(cell, env) {
		base.ShowName = true
		base.Name = env.ShowName()
	}

	base.Status = mapStatus(env.Status)

	e.injectProgress(ctx, cell, env)
	e.annotateReplies(ctx, cell, env)

	return cell
}

func (e *Enricher) shouldShowName(cell models.CellData, env *models.MessageEnvelope) bool {
	if env.GroupID == "" || env.IsSelf {
		return false
	}
	switch cell.Kind() {
	case models.KindSystem, models.KindJoinGroup:
		return false
	}
	return true
}

func mapStatus(status models.MessageStatus) models.PresentationStatus {
	switch status {
	case models.StatusSendSuccess:
		return models.PresentationSuccess
	case models.StatusSendFail:
		return models.PresentationFail
	case models.StatusSending:
		return models.PresentationSending
	default:
		return models.PresentationNone
	}
}

func (e *Enricher) injectProgress(ctx context.Context, cell models.CellData, env *models.MessageEnvelope) {
	if e.progress == nil {
		return
	}

	uploader, canUpload := cell.(models.UploadProgressCarrier)
	downloader, canDownload := cell.(models.DownloadProgressCarrier)
	if !canUpload && !canDownload {
		return
	}

	snap := e.progress.Snapshot(ctx, env.MsgID)
	if canUpload {
		uploader.SetUploadProgress(snap.Upload)
	}
	if canDownload {
		downloader.SetDownloadProgress(snap.Download)
	}
}

func (e *Enricher) annotateReplies(ctx context.Context, cell models.CellData, env *models.MessageEnvelope) {
	if !env.HasCloudCustomFlag(models.FlagRepliesCount) {
		return
	}
	switch cell.Kind() {
	case models.KindSystem, models.KindJoinGroup:
		return
	}

	base := cell.Base()
	base.ShowMessageModifyReplies = true

	if len(env.CloudCustomData) == 0 {
		return
	}
	var root models.RepliesRoot
	if err := json.Unmarshal(env.CloudCustomData, &root); err != nil {
		e.logger.DebugwCtx(ctx, "Malformed reply thread data",
			"error", err,
		)
		return
	}
	base.MessageModifyReplies = root.MessageReplies.Replies
}
