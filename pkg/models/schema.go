package models

import "fmt"

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateMessageEnvelope(msg *MessageEnvelope) error {
	if msg == nil {
		return &ValidationError{
			Field:   "envelope",
			Message: "message envelope cannot be nil",
		}
	}

	if msg.MsgID == "" {
		return &ValidationError{
			Field:   "msg_id",
			Message: "message ID is required",
		}
	}

	if msg.Sender == "" {
		return &ValidationError{
			Field:   "sender",
			Message: "message sender is required",
		}
	}

	if msg.ElemType == "" {
		return &ValidationError{
			Field:   "elem_type",
			Message: "element type is required",
		}
	}

	if msg.Timestamp.IsZero() {
		return &ValidationError{
			Field:   "timestamp",
			Message: "message timestamp is required",
		}
	}

	return nil
}
