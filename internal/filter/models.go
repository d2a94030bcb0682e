package filter

import "time"

// Rule is one host-operated suppression rule. A message matching the
// expression is dropped before classification.
type Rule struct {
	ID         string
	Name       string
	Expression string // CEL expression that must evaluate to bool
	Priority   int
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
