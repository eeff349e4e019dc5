package booking

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Action is a request to move a booking to another status.
type Action string

const (
	ActionConfirm      Action = "confirm"
	ActionCancel       Action = "cancel"
	ActionComplete     Action = "complete"
	ActionAutoCancel   Action = "auto_cancel"
	ActionAutoComplete Action = "auto_complete"
)

// AllActions lists every action.
var AllActions = []Action{ActionConfirm, ActionCancel, ActionComplete, ActionAutoCancel, ActionAutoComplete}

// ActorType identifies who drives a transition.
type ActorType string

const (
	ActorAdmin  ActorType = "admin"
	ActorGuest  ActorType = "guest"
	ActorSystem ActorType = "system"
)

// Actor is the caller of a transition. UserID is uuid.Nil for the system.
type Actor struct {
	Type   ActorType
	UserID uuid.UUID
}

// SystemActor is the actor used by the sweeper.
var SystemActor = Actor{Type: ActorSystem}

// SystemCancellationReason is recorded on bookings auto-cancelled past checkout.
const SystemCancellationReason = "unconfirmed before checkout"

// DefaultAdminReasonMinLength is the minimum length of an admin cancellation reason.
const DefaultAdminReasonMinLength = 10

// MaxReasonLength is the longest cancellation reason accepted, in characters.
const MaxReasonLength = 500

type rule struct {
	to     BookingStatus
	actors []ActorType
}

// rules is the legal transition table. Any (status, action) pair missing here is illegal.
var rules = map[BookingStatus]map[Action]rule{
	StatusPending: {
		ActionConfirm:    {to: StatusConfirmed, actors: []ActorType{ActorAdmin}},
		ActionCancel:     {to: StatusCancelled, actors: []ActorType{ActorAdmin, ActorGuest}},
		ActionAutoCancel: {to: StatusCancelled, actors: []ActorType{ActorSystem}},
	},
	StatusConfirmed: {
		ActionCancel:       {to: StatusCancelled, actors: []ActorType{ActorAdmin, ActorGuest}},
		ActionComplete:     {to: StatusCompleted, actors: []ActorType{ActorAdmin}},
		ActionAutoComplete: {to: StatusCompleted, actors: []ActorType{ActorSystem}},
	},
}

// TransitionRequest describes one requested transition.
type TransitionRequest struct {
	Action Action
	Actor  Actor
	Reason string
}

// TransitionResult describes an applied transition.
type TransitionResult struct {
	BookingID     uuid.UUID
	From          BookingStatus
	To            BookingStatus
	Action        Action
	Actor         Actor
	Reason        string
	EarlyCheckout bool
	OccurredAt    time.Time
}

// Lifecycle is the only component allowed to change a booking's status.
type Lifecycle struct {
	policy               CheckoutPolicy
	adminReasonMinLength int
}

// NewLifecycle creates a Lifecycle. A non-positive adminReasonMinLength uses the default.
func NewLifecycle(policy CheckoutPolicy, adminReasonMinLength int) *Lifecycle {
	if adminReasonMinLength <= 0 {
		adminReasonMinLength = DefaultAdminReasonMinLength
	}
	return &Lifecycle{policy: policy, adminReasonMinLength: adminReasonMinLength}
}

// Policy returns the checkout policy the lifecycle evaluates guards with.
func (l *Lifecycle) Policy() CheckoutPolicy { return l.policy }

// Transition checks every guard and, if all pass, applies the action to b.
// Guards are evaluated in order: legality, actor, ownership, timing, reason.
// On error b is left unchanged.
func (l *Lifecycle) Transition(b *Booking, req TransitionRequest, now time.Time) (*TransitionResult, error) {
	from := b.Status()
	r, ok := rules[from][req.Action]
	if !ok {
		return nil, ErrIllegalTransition.WithMessage(
			fmt.Sprintf("cannot %s a %s booking", req.Action, from))
	}

	if !actorAllowed(r.actors, req.Actor.Type) {
		return nil, ErrActorNotAllowed.WithMessage(
			fmt.Sprintf("%s may not %s a booking", req.Actor.Type, req.Action))
	}

	if req.Actor.Type == ActorGuest && b.UserID() != req.Actor.UserID {
		return nil, ErrNotOwner
	}

	today := l.policy.Today(now)
	switch req.Action {
	case ActionCancel:
		if !cancellationWindowOpen(from, today, b.CheckIn()) {
			return nil, ErrCancellationWindowClosed.WithMessage(
				fmt.Sprintf("a %s booking can no longer be cancelled on %s", from, today.Format(DateLayout)))
		}
	case ActionAutoCancel, ActionAutoComplete:
		if !l.policy.IsAfterCheckout(b.CheckOut(), now) {
			return nil, ErrTransitionNotDue
		}
	}

	reason := strings.TrimSpace(req.Reason)
	if req.Action == ActionCancel {
		if err := l.checkReason(req.Actor.Type, reason); err != nil {
			return nil, err
		}
	}

	at := now.UTC()
	result := &TransitionResult{
		BookingID:  b.ID(),
		From:       from,
		To:         r.to,
		Action:     req.Action,
		Actor:      req.Actor,
		OccurredAt: at,
	}

	switch req.Action {
	case ActionConfirm:
		b.confirm(at)
	case ActionCancel:
		b.cancel(cancellationTypeFor(req.Actor.Type), reason, at)
		result.Reason = reason
	case ActionAutoCancel:
		b.cancel(CancelledBySystem, SystemCancellationReason, at)
		result.Reason = SystemCancellationReason
	case ActionComplete:
		result.EarlyCheckout = !l.policy.IsAfterCheckout(b.CheckOut(), now)
		b.complete(at)
	case ActionAutoComplete:
		b.complete(at)
	}

	return result, nil
}

// DueAction returns the system action that is due for b at now, if any.
func (l *Lifecycle) DueAction(b *Booking, now time.Time) (Action, bool) {
	if !l.policy.IsAfterCheckout(b.CheckOut(), now) {
		return "", false
	}
	switch b.Status() {
	case StatusPending:
		return ActionAutoCancel, true
	case StatusConfirmed:
		return ActionAutoComplete, true
	}
	return "", false
}

// cancellationWindowOpen: pending bookings may be cancelled through the check-in day,
// confirmed bookings only before it.
func cancellationWindowOpen(from BookingStatus, today, checkIn time.Time) bool {
	if from == StatusPending {
		return !today.After(checkIn)
	}
	return today.Before(checkIn)
}

func (l *Lifecycle) checkReason(actor ActorType, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return ErrReasonRequired.WithMessage(
			fmt.Sprintf("cancellation reason must be at most %d characters", MaxReasonLength))
	}
	if actor == ActorAdmin && utf8.RuneCountInString(reason) < l.adminReasonMinLength {
		return ErrReasonRequired.WithMessage(
			fmt.Sprintf("cancellation reason must be at least %d characters", l.adminReasonMinLength))
	}
	return nil
}

func actorAllowed(allowed []ActorType, actor ActorType) bool {
	for _, a := range allowed {
		if a == actor {
			return true
		}
	}
	return false
}

func cancellationTypeFor(actor ActorType) CancellationType {
	switch actor {
	case ActorAdmin:
		return CancelledByAdmin
	case ActorSystem:
		return CancelledBySystem
	default:
		return CancelledByUser
	}
}
