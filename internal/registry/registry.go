package registry

import (
	"sync"

	"chatpipe/pkg/models"
)

// Builder constructs a cell for one business ID. ShouldHide lets the
// builder suppress its own output after construction.
type Builder interface {
	Build(env *models.MessageEnvelope) models.CellData
	ShouldHide(cell models.CellData) bool
}

// DisplayStringer is an optional capability on a Builder supplying the
// conversation-list preview for its business ID.
type DisplayStringer interface {
	DisplayString(env *models.MessageEnvelope) string
}

// BuilderFunc adapts a pair of closures into a Builder.
type BuilderFunc struct {
	BuildFn      func(env *models.MessageEnvelope) models.CellData
	ShouldHideFn func(cell models.CellData) bool
}

func (f BuilderFunc) Build(env *models.MessageEnvelope) models.CellData {
	return f.BuildFn(env)
}

func (f BuilderFunc) ShouldHide(cell models.CellData) bool {
	if f.ShouldHideFn == nil {
		return false
	}
	return f.ShouldHideFn(cell)
}

// Registry is the typed builder lookup populated by host code at startup.
// It also carries the reply and reference builders consulted by the
// cloud-custom-flag rule; when the host registers none, that rule declines
// and dispatch falls through to element type.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder

	replyBuilder     Builder
	referenceBuilder Builder
}

func New() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// Register binds a builder to a business ID, replacing any previous one.
func (r *Registry) Register(businessID string, builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[businessID] = builder
}

// Lookup returns the builder for a business ID.
func (r *Registry) Lookup(businessID string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[businessID]
	return b, ok
}

// RegisterReplyBuilder installs the builder used when an envelope carries
// the reply cloud-custom flag.
func (r *Registry) RegisterReplyBuilder(builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replyBuilder = builder
}

// RegisterReferenceBuilder installs the builder used when an envelope
// carries the reference cloud-custom flag.
func (r *Registry) RegisterReferenceBuilder(builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.referenceBuilder = builder
}

func (r *Registry) ReplyBuilder() (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.replyBuilder, r.replyBuilder != nil
}

func (r *Registry) ReferenceBuilder() (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.referenceBuilder, r.referenceBuilder != nil
}

// Size reports the number of registered business builders.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.builders)
}
