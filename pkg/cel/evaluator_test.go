package cel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatpipe/pkg/models"
)

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	assert.NotNil(t, eval)
}

func TestValidateExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "valid simple expression",
			expr:      `elem_type == "text"`,
			wantError: false,
		},
		{
			name:      "valid flag membership",
			expr:      `"reply" in cloud_custom_flags`,
			wantError: false,
		},
		{
			name:      "invalid expression",
			expr:      `invalid syntax here!!!`,
			wantError: true,
		},
		{
			name:      "undefined variable",
			expr:      `undefinedVar == "test"`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSuppressionExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "valid bool expression",
			expr:      `has_risk_content`,
			wantError: false,
		},
		{
			name:      "non-bool expression",
			expr:      `sender`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateSuppressionExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluateSuppression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	env := models.MessageEnvelope{
		MsgID:            "m-1",
		Sender:           "u-spam",
		UserID:           "u-peer",
		GroupID:          "g-1",
		ElemType:         models.ElemCustom,
		Status:           models.StatusSendSuccess,
		IsSelf:           false,
		HasRiskContent:   false,
		Timestamp:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		CloudCustomFlags: []string{"reply"},
	}

	tests := []struct {
		name      string
		expr      string
		want      bool
		wantError bool
	}{
		{
			name: "matches sender",
			expr: `sender == "u-spam"`,
			want: true,
		},
		{
			name: "non-matching elem type",
			expr: `elem_type == "image"`,
			want: false,
		},
		{
			name: "flag membership",
			expr: `"reply" in cloud_custom_flags`,
			want: true,
		},
		{
			name: "compound expression",
			expr: `group_id == "g-1" && !is_self && status == "send_succeeded"`,
			want: true,
		},
		{
			name:      "compile error",
			expr:      `sender ==`,
			wantError: true,
		},
		{
			name:      "non-bool result",
			expr:      `msg_id`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateSuppression(context.Background(), tt.expr, env)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateCompiled(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	program, err := eval.CompileExpression(`has_risk_content || elem_type == "unknown"`)
	require.NoError(t, err)

	risky := models.MessageEnvelope{MsgID: "m-1", Sender: "u1", ElemType: models.ElemText, HasRiskContent: true, Timestamp: time.Now()}
	clean := models.MessageEnvelope{MsgID: "m-2", Sender: "u1", ElemType: models.ElemText, Timestamp: time.Now()}

	got, err := eval.EvaluateCompiled(context.Background(), program, risky)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = eval.EvaluateCompiled(context.Background(), program, clean)
	require.NoError(t, err)
	assert.False(t, got)
}
