package names

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatpipe/internal/logger"
	"chatpipe/pkg/models"
)

type fakeDirectory struct {
	mu     sync.Mutex
	infos  map[string]models.MemberInfo
	err    error
	calls  int
	gotIDs []string
}

func (f *fakeDirectory) FetchNames(ctx context.Context, ids []string) (map[string]models.MemberInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotIDs = append([]string(nil), ids...)
	if f.err != nil {
		return nil, f.err
	}
	return f.infos, nil
}

func (f *fakeDirectory) Name() string { return "fake" }

func TestLookup_ResolvesKnownIDs(t *testing.T) {
	dir := &fakeDirectory{infos: map[string]models.MemberInfo{
		"u1": {UserID: "u1", NickName: "Ann"},
		"u2": {UserID: "u2", FriendRemark: "Bob from work"},
	}}
	r := NewResolver(dir, time.Second, logger.NopLogger())

	names := r.Lookup(context.Background(), []string{"u1", "u2", "u3"})
	assert.Equal(t, map[string]string{
		"u1": "Ann",
		"u2": "Bob from work",
		"u3": "u3",
	}, names)
	assert.Equal(t, []string{"u1", "u2", "u3"}, dir.gotIDs)
}

func TestLookup_DirectoryErrorFallsBackToRawIDs(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("directory down")}
	r := NewResolver(dir, time.Second, logger.NopLogger())

	names := r.Lookup(context.Background(), []string{"u1", "u2"})
	assert.Equal(t, map[string]string{"u1": "u1", "u2": "u2"}, names)
}

func TestLookup_EmptyAndNilDirectory(t *testing.T) {
	r := NewResolver(nil, time.Second, logger.NopLogger())
	assert.Empty(t, r.Lookup(context.Background(), nil))
	assert.Equal(t, map[string]string{"u1": "u1"},
		r.Lookup(context.Background(), []string{"u1"}))
}

func TestLookupAsync(t *testing.T) {
	dir := &fakeDirectory{infos: map[string]models.MemberInfo{
		"u1": {UserID: "u1", NickName: "Ann"},
	}}
	r := NewResolver(dir, time.Second, logger.NopLogger())

	done := make(chan map[string]string, 1)
	r.LookupAsync(context.Background(), []string{"u1"}, func(names map[string]string) {
		done <- names
	})

	select {
	case names := <-done:
		assert.Equal(t, "Ann", names["u1"])
	case <-time.After(2 * time.Second):
		t.Fatal("callback never delivered")
	}
}

func TestSubstitute(t *testing.T) {
	dir := &fakeDirectory{infos: map[string]models.MemberInfo{
		"u1": {UserID: "u1", NickName: "Ann"},
		"u2": {UserID: "u2", NickName: "Bob"},
	}}
	r := NewResolver(dir, time.Second, logger.NopLogger())
	ctx := context.Background()

	t.Run("placeholders replaced", func(t *testing.T) {
		out := r.Substitute(ctx, "{u1} invited {u2}", []string{"u1", "u2"})
		assert.Equal(t, "Ann invited Bob", out)
	})

	t.Run("unknown id keeps raw id", func(t *testing.T) {
		out := r.Substitute(ctx, "{u9} joined", []string{"u9"})
		assert.Equal(t, "u9 joined", out)
	})

	t.Run("no placeholders skips lookup", func(t *testing.T) {
		before := dir.calls
		out := r.Substitute(ctx, "plain text", []string{"u1"})
		assert.Equal(t, "plain text", out)
		assert.Equal(t, before, dir.calls)
	})
}

func TestSubstituteCell(t *testing.T) {
	dir := &fakeDirectory{infos: map[string]models.MemberInfo{
		"u1": {UserID: "u1", NickName: "Ann"},
	}}
	r := NewResolver(dir, time.Second, logger.NopLogger())

	cell := &models.SystemCellData{
		Content:            "{u1} started a group call",
		ReplacedUserIDList: []string{"u1"},
	}
	r.SubstituteCell(context.Background(), cell)
	assert.Equal(t, "Ann started a group call", cell.Content)

	require.NotPanics(t, func() {
		r.SubstituteCell(context.Background(), nil)
	})
}
