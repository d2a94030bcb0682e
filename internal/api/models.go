package api

import (
	"time"

	"chatpipe/pkg/models"
)

type SuppressionRule struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Expression string    `json:"expression" db:"expression"`
	Priority   int       `json:"priority" db:"priority"`
	Enabled    bool      `json:"enabled" db:"enabled"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type CreateSuppressionRuleRequest struct {
	Name       string `json:"name" binding:"required"`
	Expression string `json:"expression" binding:"required"`
	Priority   int    `json:"priority"`
	Enabled    *bool  `json:"enabled"`
}

type UpdateSuppressionRuleRequest struct {
	Name       *string `json:"name"`
	Expression *string `json:"expression"`
	Priority   *int    `json:"priority"`
	Enabled    *bool   `json:"enabled"`
}

// ClassifyResponse carries the cell surface of one derivation. A
// suppressed message has a nil cell.
type ClassifyResponse struct {
	MsgID      string          `json:"msg_id"`
	Kind       string          `json:"kind,omitempty"`
	Cell       models.CellData `json:"cell,omitempty"`
	Suppressed bool            `json:"suppressed"`
}

// PreviewResponse carries the display surface of one derivation.
type PreviewResponse struct {
	MsgID      string `json:"msg_id"`
	Preview    string `json:"preview,omitempty"`
	HasPreview bool   `json:"has_preview"`
}

type BatchNamesRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

type BatchNamesResponse struct {
	Names map[string]string `json:"names"`
}
