package api

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatpipe/internal/pipeline"
	pkgerrors "chatpipe/pkg/errors"
	"chatpipe/pkg/models"
)

type fakeRepo struct {
	rules  map[string]*SuppressionRule
	nextID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rules: make(map[string]*SuppressionRule)}
}

func (f *fakeRepo) CreateSuppressionRule(ctx context.Context, rule *SuppressionRule) error {
	f.nextID++
	rule.ID = fmt.Sprintf("r%d", f.nextID)
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt
	stored := *rule
	f.rules[rule.ID] = &stored
	return nil
}

func (f *fakeRepo) ListSuppressionRules(ctx context.Context) ([]SuppressionRule, error) {
	out := make([]SuppressionRule, 0, len(f.rules))
	for _, r := range f.rules {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) GetSuppressionRule(ctx context.Context, id string) (*SuppressionRule, error) {
	r, ok := f.rules[id]
	if !ok {
		return nil, fmt.Errorf("rule not found: %s", id)
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRepo) UpdateSuppressionRule(ctx context.Context, rule *SuppressionRule) error {
	if _, ok := f.rules[rule.ID]; !ok {
		return fmt.Errorf("rule not found: %s", rule.ID)
	}
	rule.UpdatedAt = time.Now()
	stored := *rule
	f.rules[rule.ID] = &stored
	return nil
}

func (f *fakeRepo) DeleteSuppressionRule(ctx context.Context, id string) error {
	if _, ok := f.rules[id]; !ok {
		return fmt.Errorf("rule not found: %s", id)
	}
	delete(f.rules, id)
	return nil
}

func newTestService(repo Repository) Service {
	return NewService(repo, pipeline.NewDeriver(pipeline.Config{}), nil)
}

func TestCreateSuppressionRule(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	rule, err := svc.CreateSuppressionRule(ctx, CreateSuppressionRuleRequest{
		Name:       "block spammer",
		Expression: `sender == "spammer"`,
		Priority:   10,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.True(t, rule.Enabled)

	t.Run("invalid expression rejected", func(t *testing.T) {
		_, err := svc.CreateSuppressionRule(ctx, CreateSuppressionRuleRequest{
			Name:       "broken",
			Expression: `sender ==`,
		})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("non-bool expression rejected", func(t *testing.T) {
		_, err := svc.CreateSuppressionRule(ctx, CreateSuppressionRuleRequest{
			Name:       "not a predicate",
			Expression: `sender`,
		})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("explicit disabled respected", func(t *testing.T) {
		disabled := false
		rule, err := svc.CreateSuppressionRule(ctx, CreateSuppressionRuleRequest{
			Name:       "dormant",
			Expression: `is_self`,
			Enabled:    &disabled,
		})
		require.NoError(t, err)
		assert.False(t, rule.Enabled)
	})
}

func TestSuppressionRuleLifecycle(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	created, err := svc.CreateSuppressionRule(ctx, CreateSuppressionRuleRequest{
		Name:       "block spammer",
		Expression: `sender == "spammer"`,
	})
	require.NoError(t, err)

	got, err := svc.GetSuppressionRule(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)

	newName := "block spammers"
	updated, err := svc.UpdateSuppressionRule(ctx, created.ID, UpdateSuppressionRuleRequest{
		Name: &newName,
	})
	require.NoError(t, err)
	assert.Equal(t, "block spammers", updated.Name)
	assert.Equal(t, created.Expression, updated.Expression)

	rules, err := svc.ListSuppressionRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	require.NoError(t, svc.DeleteSuppressionRule(ctx, created.ID))

	_, err = svc.GetSuppressionRule(ctx, created.ID)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSuppressionRule_NotFound(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.GetSuppressionRule(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))

	name := "x"
	_, err = svc.UpdateSuppressionRule(ctx, "missing", UpdateSuppressionRuleRequest{Name: &name})
	assert.True(t, pkgerrors.IsNotFound(err))

	err = svc.DeleteSuppressionRule(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSuppressionRule_NoStoreConfigured(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	_, err := svc.ListSuppressionRules(ctx)
	require.Error(t, err)
	assert.Equal(t, 503, pkgerrors.ToHTTPStatus(err))
}

func TestClassifyEndpointSemantics(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	env := &models.MessageEnvelope{
		MsgID:     "m1",
		Sender:    "u1",
		UserID:    "u2",
		Timestamp: time.Now(),
		ElemType:  models.ElemText,
		Status:    models.StatusSendSuccess,
		Text:      &models.TextElem{Text: "hi"},
	}

	resp, err := svc.Classify(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, models.KindText, resp.Kind)
	assert.False(t, resp.Suppressed)
	require.NotNil(t, resp.Cell)

	preview, err := svc.Preview(ctx, env)
	require.NoError(t, err)
	assert.True(t, preview.HasPreview)
	assert.Equal(t, "hi", preview.Preview)

	record, err := svc.Derive(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, models.KindText, record.Kind)

	t.Run("invalid envelope rejected", func(t *testing.T) {
		_, err := svc.Classify(ctx, &models.MessageEnvelope{})
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestBatchNames(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	_, err := svc.BatchNames(ctx, nil)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = svc.BatchNames(ctx, []string{"u1"})
	assert.Equal(t, 503, pkgerrors.ToHTTPStatus(err))
}
