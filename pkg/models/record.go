package models

import "time"

// DerivedRecord is the classify-service output: one envelope's cell data
// and preview, or a suppression marker.
type DerivedRecord struct {
	MsgID          string    `json:"msg_id"`
	ConversationID string    `json:"conversation_id"`
	Kind           string    `json:"kind,omitempty"`
	Cell           CellData  `json:"cell,omitempty"`
	Preview        string    `json:"preview,omitempty"`
	HasPreview     bool      `json:"has_preview"`
	Suppressed     bool      `json:"suppressed,omitempty"`
	DerivedAt      time.Time `json:"derived_at"`
	TraceID        string    `json:"trace_id,omitempty"`
}

// PreviewRecord is the preview-service output for conversation-list
// fan-out.
type PreviewRecord struct {
	MsgID          string    `json:"msg_id"`
	ConversationID string    `json:"conversation_id"`
	Preview        string    `json:"preview"`
	DerivedAt      time.Time `json:"derived_at"`
	TraceID        string    `json:"trace_id,omitempty"`
}
