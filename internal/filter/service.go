package filter

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	celgo "github.com/google/cel-go/cel"

	"chatpipe/internal/config"
	"chatpipe/internal/constants"
	"chatpipe/internal/logger"
	"chatpipe/pkg/cel"
	"chatpipe/pkg/metrics"
	"chatpipe/pkg/models"
	"chatpipe/pkg/tracing"
)

type errorHandlingStatus int

const (
	errorHandlingSuppress errorHandlingStatus = iota
	errorHandlingSkip
)

type compiledRule struct {
	Rule
	program celgo.Program
}

// Service evaluates host-operated suppression rules over inbound
// envelopes. Rules are compiled at reload time and a match drops the
// message before classification.
type Service struct {
	repo              Repository
	rules             []compiledRule
	rulesMu           sync.RWMutex
	suppressionConfig config.SuppressionConfig
	evaluator         *cel.Evaluator
	logger            logger.Logger
}

func NewService(repo Repository, cfg config.SuppressionConfig, log logger.Logger) (*Service, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
	}

	return &Service{
		repo:              repo,
		suppressionConfig: cfg,
		rules:             make([]compiledRule, 0),
		evaluator:         evaluator,
		logger:            log,
	}, nil
}

// ShouldSuppress reports whether any active rule matches the envelope.
// The second result lists the rules that evaluated cleanly on the way to
// the decision.
func (s *Service) ShouldSuppress(ctx context.Context, msg models.MessageEnvelope) (bool, []string, error) {
	ctx, span := tracing.GetTracer("suppression-service").Start(ctx, "suppression.evaluate")
	defer span.End()

	rules := s.getActiveRules()
	evaluated := make([]string, 0, len(rules))

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return false, nil, err
		}

		matched, err := s.evaluator.EvaluateCompiled(ctx, rule.program, msg)
		if err != nil {
			metrics.IncSuppressionRuleEvaluation(rule.ID, rule.Name, "error")
			if s.handleEvaluationError(ctx, rule.Rule, err) == errorHandlingSuppress {
				return true, evaluated, nil
			}
			continue
		}

		if matched {
			metrics.IncSuppressionRuleEvaluation(rule.ID, rule.Name, "suppressed")
			s.logger.DebugwCtx(ctx, "Rule suppressed message",
				"rule_id", rule.ID,
				"rule_name", rule.Name,
			)
			return true, evaluated, nil
		}

		metrics.IncSuppressionRuleEvaluation(rule.ID, rule.Name, "passed")
		evaluated = append(evaluated, rule.ID)
	}

	return false, evaluated, nil
}

func (s *Service) getActiveRules() []compiledRule {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()

	rules := make([]compiledRule, len(s.rules))
	copy(rules, s.rules)
	return rules
}

func (s *Service) handleEvaluationError(ctx context.Context, rule Rule, err error) errorHandlingStatus {
	s.logger.ErrorwCtx(ctx, "Rule evaluation error",
		"rule_id", rule.ID,
		"rule_name", rule.Name,
		"error", err,
	)

	switch s.suppressionConfig.Fallback.OnError {
	case constants.FallbackDeny:
		metrics.FallbackUsageTotal.WithLabelValues("suppression", "deny_on_error", "evaluation_error").Inc()
		s.logger.WarnwCtx(ctx, "Evaluation error, suppressing message (fallback: deny)",
			"rule_id", rule.ID,
			"rule_name", rule.Name,
			"error", err,
		)
		return errorHandlingSuppress
	case constants.FallbackAllow:
		metrics.FallbackUsageTotal.WithLabelValues("suppression", "allow_on_error", "evaluation_error").Inc()
		s.logger.WarnwCtx(ctx, "Evaluation error, keeping message (fallback: allow)",
			"rule_id", rule.ID,
			"rule_name", rule.Name,
			"error", err,
		)
		return errorHandlingSkip
	default:
		return errorHandlingSkip
	}
}

func (s *Service) ReloadRules(ctx context.Context, skipJitter ...bool) error {
	shouldSkipJitter := len(skipJitter) > 0 && skipJitter[0]

	if err := s.applyJitter(ctx, shouldSkipJitter); err != nil {
		return err
	}

	rules, err := s.loadRules(ctx)
	if err != nil {
		return err
	}

	s.updateRules(ctx, rules)
	return nil
}

func (s *Service) applyJitter(ctx context.Context, skipJitter bool) error {
	if skipJitter || s.suppressionConfig.Reload.JitterMaxMilliseconds == 0 {
		return nil
	}

	jitter := time.Duration(rand.Intn(s.suppressionConfig.Reload.JitterMaxMilliseconds)) * time.Millisecond
	s.logger.DebugwCtx(ctx, "Reload scheduled with jitter",
		"jitter_ms", jitter.Milliseconds(),
	)

	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loadRules fetches the active rules and compiles their expressions.
// A rule that fails to compile is skipped, not fatal: the remaining
// rules still apply.
func (s *Service) loadRules(ctx context.Context) ([]compiledRule, error) {
	s.logger.DebugwCtx(ctx, "Loading rules from database")
	rules, err := s.repo.GetActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		program, err := s.evaluator.CompileExpression(rule.Expression)
		if err != nil {
			s.logger.ErrorwCtx(ctx, "Skipping rule with invalid expression",
				"rule_id", rule.ID,
				"rule_name", rule.Name,
				"error", err,
			)
			continue
		}
		compiled = append(compiled, compiledRule{Rule: rule, program: program})
	}
	return compiled, nil
}

func (s *Service) updateRules(ctx context.Context, rules []compiledRule) {
	s.rulesMu.Lock()
	s.rules = rules
	s.rulesMu.Unlock()

	metrics.SetSuppressionActiveRules(len(rules))
	s.logger.InfowCtx(ctx, "Successfully reloaded rules",
		"rules_count", len(rules),
	)
}

func (s *Service) StartReloader(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(s.suppressionConfig.Reload.IntervalSeconds) * time.Second)
	defer ticker.Stop()

	if err := s.ReloadRules(ctx); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to reload rules",
			"error", err,
		)
	}

	for {
		select {
		case <-ticker.C:
			if err := s.ReloadRules(ctx); err != nil {
				s.logger.ErrorwCtx(ctx, "Failed to reload rules",
					"error", err,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
