// Package notify delivers allocation results to the out-of-band
// notification sink. Delivery is strictly post-commit and best-effort: a
// slow or failing sink never blocks or rolls back an allocation.
package notify

import (
	"context"

	"github.com/lex-codes11/skipbot/internal/domain"
)

// Routing keys on the topic exchange.
const (
	KeyConfirmed = "allocation.confirmed"
	KeyRemoved   = "allocation.removed"
	KeyMoved     = "allocation.moved"
)

// NoOp is the sink used when no broker is configured.
type NoOp struct{}

func (NoOp) AllocationConfirmed(context.Context, domain.Allocation) {}
func (NoOp) AllocationRemoved(context.Context, domain.Allocation)   {}
func (NoOp) AllocationMoved(context.Context, domain.Allocation)     {}
