package api

import (
	"context"
	"strings"

	"chatpipe/internal/names"
	"chatpipe/internal/pipeline"
	pkgerrors "chatpipe/pkg/errors"
	"chatpipe/pkg/models"
)

type Service interface {
	CreateSuppressionRule(ctx context.Context, req CreateSuppressionRuleRequest) (*SuppressionRule, error)
	ListSuppressionRules(ctx context.Context) ([]SuppressionRule, error)
	GetSuppressionRule(ctx context.Context, id string) (*SuppressionRule, error)
	UpdateSuppressionRule(ctx context.Context, id string, req UpdateSuppressionRuleRequest) (*SuppressionRule, error)
	DeleteSuppressionRule(ctx context.Context, id string) error

	Derive(ctx context.Context, env *models.MessageEnvelope) (*models.DerivedRecord, error)
	Classify(ctx context.Context, env *models.MessageEnvelope) (*ClassifyResponse, error)
	Preview(ctx context.Context, env *models.MessageEnvelope) (*PreviewResponse, error)
	BatchNames(ctx context.Context, userIDs []string) (map[string]string, error)
}

type service struct {
	repo    Repository
	deriver *pipeline.Deriver
	names   *names.Resolver
}

func NewService(repo Repository, deriver *pipeline.Deriver, nameResolver *names.Resolver) Service {
	return &service{
		repo:    repo,
		deriver: deriver,
		names:   nameResolver,
	}
}

func (s *service) CreateSuppressionRule(ctx context.Context, req CreateSuppressionRuleRequest) (*SuppressionRule, error) {
	if err := s.requireRuleStore(); err != nil {
		return nil, err
	}
	if err := ValidateSuppressionRule(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	rule := &SuppressionRule{
		Name:       req.Name,
		Expression: req.Expression,
		Priority:   req.Priority,
		Enabled:    getEnabledValue(req.Enabled),
	}

	if err := s.repo.CreateSuppressionRule(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	return s.copyRule(rule), nil
}

func (s *service) ListSuppressionRules(ctx context.Context) ([]SuppressionRule, error) {
	if err := s.requireRuleStore(); err != nil {
		return nil, err
	}
	rules, err := s.repo.ListSuppressionRules(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return rules, nil
}

func (s *service) GetSuppressionRule(ctx context.Context, id string) (*SuppressionRule, error) {
	if err := s.requireRuleStore(); err != nil {
		return nil, err
	}
	rule, err := s.repo.GetSuppressionRule(ctx, id)
	if err != nil {
		return nil, s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return s.copyRule(rule), nil
}

func (s *service) UpdateSuppressionRule(ctx context.Context, id string, req UpdateSuppressionRuleRequest) (*SuppressionRule, error) {
	if err := s.requireRuleStore(); err != nil {
		return nil, err
	}
	if err := ValidateUpdateSuppressionRule(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	rule, err := s.repo.GetSuppressionRule(ctx, id)
	if err != nil {
		return nil, s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	s.applyRuleUpdate(rule, req)

	if err := s.repo.UpdateSuppressionRule(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	return s.copyRule(rule), nil
}

func (s *service) DeleteSuppressionRule(ctx context.Context, id string) error {
	if err := s.requireRuleStore(); err != nil {
		return err
	}
	rule, err := s.repo.GetSuppressionRule(ctx, id)
	if err != nil {
		return s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	if err := s.repo.DeleteSuppressionRule(ctx, id); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	return nil
}

func (s *service) Derive(ctx context.Context, env *models.MessageEnvelope) (*models.DerivedRecord, error) {
	if err := models.ValidateMessageEnvelope(env); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}
	return s.deriver.Derive(ctx, env), nil
}

func (s *service) Classify(ctx context.Context, env *models.MessageEnvelope) (*ClassifyResponse, error) {
	if err := models.ValidateMessageEnvelope(env); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	cell := s.deriver.Classify(ctx, env)
	resp := &ClassifyResponse{MsgID: env.MsgID}
	if cell != nil {
		resp.Kind = cell.Kind()
		resp.Cell = cell
	} else {
		resp.Suppressed = true
	}
	return resp, nil
}

func (s *service) Preview(ctx context.Context, env *models.MessageEnvelope) (*PreviewResponse, error) {
	if err := models.ValidateMessageEnvelope(env); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	preview, ok := s.deriver.ResolveDisplayString(ctx, env)
	return &PreviewResponse{
		MsgID:      env.MsgID,
		Preview:    preview,
		HasPreview: ok,
	}, nil
}

func (s *service) BatchNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	if len(userIDs) == 0 {
		return nil, pkgerrors.ErrValidation.WithDetail("message", "user_ids must not be empty")
	}
	if s.names == nil {
		return nil, pkgerrors.ErrServiceUnavailable.WithDetail("message", "name resolution not configured")
	}
	return s.names.Lookup(ctx, userIDs), nil
}

func (s *service) requireRuleStore() error {
	if s.repo == nil {
		return pkgerrors.ErrServiceUnavailable.WithDetail("message", "rule store not configured")
	}
	return nil
}

func (s *service) handleNotFoundError(err error, id string) error {
	if err != nil && (strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "no rows")) {
		return pkgerrors.ErrNotFound.WithCause(err).WithDetail("id", id)
	}
	return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
}

func (s *service) copyRule(rule *SuppressionRule) *SuppressionRule {
	copied := *rule
	return &copied
}

func (s *service) applyRuleUpdate(rule *SuppressionRule, req UpdateSuppressionRuleRequest) {
	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Expression != nil {
		rule.Expression = *req.Expression
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
}

func getEnabledValue(enabled *bool) bool {
	if enabled == nil {
		return true
	}
	return *enabled
}
