package booking

import (
	"net/http"

	"github.com/hotelhub/service-booking/pkg/domain"
)

// Booking error codes.
const (
	CodeInvalidRange             = "INVALID_RANGE"
	CodePastDate                 = "PAST_DATE"
	CodeRoomUnavailable          = "ROOM_UNAVAILABLE"
	CodeIllegalTransition        = "ILLEGAL_TRANSITION"
	CodeCancellationWindowClosed = "CANCELLATION_WINDOW_CLOSED"
	CodeNotOwner                 = "NOT_OWNER"
	CodeReasonRequired           = "REASON_REQUIRED"
	CodeActorNotAllowed          = "ACTOR_NOT_ALLOWED"
	CodeTransitionNotDue         = "TRANSITION_NOT_DUE"
	CodeAlreadyPaid              = "ALREADY_PAID"
)

// Sentinel errors. Match them with errors.Is; messages may be specialised with WithMessage.
var (
	ErrInvalidRange             = domain.New(http.StatusBadRequest, CodeInvalidRange, "check-out must be after check-in")
	ErrPastDate                 = domain.New(http.StatusBadRequest, CodePastDate, "check-in cannot be in the past")
	ErrRoomUnavailable          = domain.New(http.StatusConflict, CodeRoomUnavailable, "room is not available for the requested dates")
	ErrIllegalTransition        = domain.New(http.StatusConflict, CodeIllegalTransition, "transition not allowed from current status")
	ErrCancellationWindowClosed = domain.New(http.StatusConflict, CodeCancellationWindowClosed, "booking can no longer be cancelled")
	ErrNotOwner                 = domain.New(http.StatusForbidden, CodeNotOwner, "booking does not belong to this user")
	ErrReasonRequired           = domain.New(http.StatusBadRequest, CodeReasonRequired, "cancellation reason is required")
	ErrActorNotAllowed          = domain.New(http.StatusForbidden, CodeActorNotAllowed, "actor may not perform this action")
	ErrTransitionNotDue         = domain.New(http.StatusConflict, CodeTransitionNotDue, "booking is not past checkout")
	ErrAlreadyPaid              = domain.New(http.StatusConflict, CodeAlreadyPaid, "booking is already paid")
)
