package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"chatpipe/pkg/models"
)

type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("msg_id", cel.StringType),
		cel.Variable("sender", cel.StringType),
		cel.Variable("user_id", cel.StringType),
		cel.Variable("group_id", cel.StringType),
		cel.Variable("elem_type", cel.StringType),
		cel.Variable("status", cel.StringType),
		cel.Variable("is_self", cel.BoolType),
		cel.Variable("has_risk_content", cel.BoolType),
		cel.Variable("timestamp", cel.TimestampType),
		cel.Variable("cloud_custom_flags", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateExpression(expression string) error {
	_, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}
	return nil
}

func (e *Evaluator) ValidateSuppressionExpression(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return fmt.Errorf("suppression expression must return bool, got %v", ast.OutputType())
	}

	return nil
}

// EvaluateSuppression evaluates a boolean rule over the envelope. A true
// result means the envelope is dropped before derivation.
func (e *Evaluator) EvaluateSuppression(ctx context.Context, expression string, msg models.MessageEnvelope) (bool, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return false, fmt.Errorf("suppression expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("failed to create CEL program: %w", err)
	}

	result, _, err := program.ContextEval(ctx, e.envelopeVars(msg))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}

func (e *Evaluator) CompileExpression(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return program, nil
}

// EvaluateCompiled runs a precompiled suppression program against one
// envelope.
func (e *Evaluator) EvaluateCompiled(ctx context.Context, program cel.Program, msg models.MessageEnvelope) (bool, error) {
	result, _, err := program.ContextEval(ctx, e.envelopeVars(msg))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}

func (e *Evaluator) envelopeVars(msg models.MessageEnvelope) map[string]interface{} {
	flags := msg.CloudCustomFlags
	if flags == nil {
		flags = []string{}
	}
	return map[string]interface{}{
		"msg_id":             msg.MsgID,
		"sender":             msg.Sender,
		"user_id":            msg.UserID,
		"group_id":           msg.GroupID,
		"elem_type":          string(msg.ElemType),
		"status":             string(msg.Status),
		"is_self":            msg.IsSelf,
		"has_risk_content":   msg.HasRiskContent,
		"timestamp":          msg.Timestamp,
		"cloud_custom_flags": flags,
	}
}
