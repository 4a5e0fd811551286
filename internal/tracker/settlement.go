package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/gracebooks/gracebooks/internal/model"
)

const (
	EventSettle = "settle"
	EventReopen = "reopen"
)

var ErrInvalidTransition = errors.New("invalid settlement transition")

// Settlement drives the unsettled/settled lifecycle of a prepayment or
// received payment. It writes the new state back through status.
type Settlement struct {
	status *model.SettlementStatus
	fsm    *fsm.FSM
}

// NewSettlement wraps status. An empty status counts as unsettled.
func NewSettlement(status *model.SettlementStatus) *Settlement {
	if *status == "" {
		*status = model.StatusUnsettled
	}
	return &Settlement{
		status: status,
		fsm: fsm.NewFSM(
			string(*status),
			fsm.Events{
				{Name: EventSettle, Src: []string{string(model.StatusUnsettled)}, Dst: string(model.StatusSettled)},
				{Name: EventReopen, Src: []string{string(model.StatusSettled)}, Dst: string(model.StatusUnsettled)},
			},
			fsm.Callbacks{},
		),
	}
}

// Fire applies event ("settle" or "reopen").
func (s *Settlement) Fire(ctx context.Context, event string) error {
	if !s.fsm.Can(event) {
		return fmt.Errorf("%w: cannot %s a %s item", ErrInvalidTransition, event, s.fsm.Current())
	}
	if err := s.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	*s.status = model.SettlementStatus(s.fsm.Current())
	return nil
}

// Settle marks the item settled.
func (s *Settlement) Settle(ctx context.Context) error { return s.Fire(ctx, EventSettle) }

// Reopen marks a settled item unsettled again.
func (s *Settlement) Reopen(ctx context.Context) error { return s.Fire(ctx, EventReopen) }

// Current returns the current status.
func (s *Settlement) Current() model.SettlementStatus {
	return model.SettlementStatus(s.fsm.Current())
}

// Can reports whether event is allowed from the current status.
func (s *Settlement) Can(event string) bool { return s.fsm.Can(event) }
