package pipeline

import (
	"context"

	"chatpipe/pkg/models"
)

// Rule is one step of the shared precedence chain. Both dispatch surfaces
// walk the same rule list so their suppression decisions cannot drift
// apart.
//
// Each hook returns handled=false to decline and let the chain continue.
// A handled result with a nil cell means the message is deliberately
// suppressed from the timeline; a handled result with ok=false means it
// is suppressed from previews. ok=true with empty text is a legitimate
// empty preview, not suppression.
type Rule interface {
	Name() string
	CellData(ctx context.Context, env *models.MessageEnvelope) (models.CellData, bool)
	DisplayString(ctx context.Context, env *models.MessageEnvelope) (text string, ok bool, handled bool)
}
