package filter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatpipe/internal/config"
	"chatpipe/internal/constants"
	"chatpipe/internal/logger"
	"chatpipe/pkg/models"
)

type fakeRepository struct {
	rules []Rule
	err   error
}

func (f *fakeRepository) GetActiveRules(ctx context.Context) ([]Rule, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rules, nil
}

func newTestService(t *testing.T, repo Repository, fallback string) *Service {
	t.Helper()
	cfg := config.SuppressionConfig{}
	cfg.Fallback.OnError = fallback
	svc, err := NewService(repo, cfg, logger.NopLogger())
	require.NoError(t, err)
	return svc
}

func envelope(sender string) models.MessageEnvelope {
	return models.MessageEnvelope{
		MsgID:     "m1",
		Sender:    sender,
		UserID:    "u2",
		Timestamp: time.Now(),
		ElemType:  models.ElemText,
		Status:    models.StatusSendSuccess,
	}
}

func TestShouldSuppress_MatchDropsMessage(t *testing.T) {
	repo := &fakeRepository{rules: []Rule{
		{ID: "r1", Name: "block spammer", Expression: `sender == "spammer"`, Enabled: true},
	}}
	svc := newTestService(t, repo, constants.FallbackAllow)
	require.NoError(t, svc.ReloadRules(context.Background(), true))

	suppressed, _, err := svc.ShouldSuppress(context.Background(), envelope("spammer"))
	require.NoError(t, err)
	assert.True(t, suppressed)

	suppressed, evaluated, err := svc.ShouldSuppress(context.Background(), envelope("u1"))
	require.NoError(t, err)
	assert.False(t, suppressed)
	assert.Equal(t, []string{"r1"}, evaluated)
}

func TestShouldSuppress_NoRulesPassesEverything(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, constants.FallbackAllow)

	suppressed, evaluated, err := svc.ShouldSuppress(context.Background(), envelope("u1"))
	require.NoError(t, err)
	assert.False(t, suppressed)
	assert.Empty(t, evaluated)
}

func TestReloadRules_SkipsInvalidExpressions(t *testing.T) {
	repo := &fakeRepository{rules: []Rule{
		{ID: "r1", Name: "broken", Expression: `sender ==`, Enabled: true},
		{ID: "r2", Name: "risk", Expression: `has_risk_content`, Enabled: true},
	}}
	svc := newTestService(t, repo, constants.FallbackAllow)
	require.NoError(t, svc.ReloadRules(context.Background(), true))

	env := envelope("u1")
	env.HasRiskContent = true

	suppressed, _, err := svc.ShouldSuppress(context.Background(), env)
	require.NoError(t, err)
	assert.True(t, suppressed)

	env.HasRiskContent = false
	suppressed, evaluated, err := svc.ShouldSuppress(context.Background(), env)
	require.NoError(t, err)
	assert.False(t, suppressed)
	assert.Equal(t, []string{"r2"}, evaluated)
}

func TestReloadRules_RepositoryError(t *testing.T) {
	repo := &fakeRepository{err: errors.New("db down")}
	svc := newTestService(t, repo, constants.FallbackAllow)

	err := svc.ReloadRules(context.Background(), true)
	assert.Error(t, err)
}

func TestReloadRules_ReplacesRuleSet(t *testing.T) {
	repo := &fakeRepository{rules: []Rule{
		{ID: "r1", Name: "block spammer", Expression: `sender == "spammer"`, Enabled: true},
	}}
	svc := newTestService(t, repo, constants.FallbackAllow)
	require.NoError(t, svc.ReloadRules(context.Background(), true))

	suppressed, _, err := svc.ShouldSuppress(context.Background(), envelope("spammer"))
	require.NoError(t, err)
	assert.True(t, suppressed)

	repo.rules = nil
	require.NoError(t, svc.ReloadRules(context.Background(), true))

	suppressed, _, err = svc.ShouldSuppress(context.Background(), envelope("spammer"))
	require.NoError(t, err)
	assert.False(t, suppressed)
}

func TestShouldSuppress_EvaluationErrorFallback(t *testing.T) {
	// Compiles fine, divides by zero at evaluation time.
	repo := &fakeRepository{rules: []Rule{
		{ID: "r1", Name: "faulty", Expression: `1 / (size(sender) - size(sender)) == 1`, Enabled: true},
	}}

	t.Run("deny on error suppresses", func(t *testing.T) {
		svc := newTestService(t, repo, constants.FallbackDeny)
		require.NoError(t, svc.ReloadRules(context.Background(), true))

		suppressed, _, err := svc.ShouldSuppress(context.Background(), envelope("u1"))
		require.NoError(t, err)
		assert.True(t, suppressed)
	})

	t.Run("allow on error passes", func(t *testing.T) {
		svc := newTestService(t, repo, constants.FallbackAllow)
		require.NoError(t, svc.ReloadRules(context.Background(), true))

		suppressed, _, err := svc.ShouldSuppress(context.Background(), envelope("u1"))
		require.NoError(t, err)
		assert.False(t, suppressed)
	})
}

func TestShouldSuppress_ContextCanceled(t *testing.T) {
	repo := &fakeRepository{rules: []Rule{
		{ID: "r1", Name: "risk", Expression: `has_risk_content`, Enabled: true},
	}}
	svc := newTestService(t, repo, constants.FallbackAllow)
	require.NoError(t, svc.ReloadRules(context.Background(), true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := svc.ShouldSuppress(ctx, envelope("u1"))
	assert.ErrorIs(t, err, context.Canceled)
}
