package admission

import (
	"errors"
	"fmt"
)

// Every admission outcome that is not a committed reservation carries exactly
// one of these sentinels, so callers can branch on the reason and on
// retryability instead of parsing messages.
var (
	// ErrMalformedInterval marks a request whose stay interval cannot be
	// priced (non-positive duration or unparsable instants). Fatal, not
	// retryable.
	ErrMalformedInterval = errors.New("admission: malformed stay interval")

	// ErrSelfBooking marks a guest attempting to book their own listing.
	ErrSelfBooking = errors.New("admission: host cannot book own listing")

	// ErrUnaffordable marks a balance that cannot cover the computed price.
	ErrUnaffordable = errors.New("admission: balance cannot cover total price")

	// ErrDateConflict marks a stay overlapping a committed reservation.
	ErrDateConflict = errors.New("admission: stay overlaps an existing reservation")

	// ErrContention marks a transient failure to acquire or commit the
	// transaction scope. The whole admission attempt is safe to retry.
	ErrContention = errors.New("admission: concurrent commit contention")

	// ErrPersistenceFailure marks a commit that failed after validation
	// passed. All effects are rolled back; this is an infrastructure fault,
	// not an invalid request.
	ErrPersistenceFailure = errors.New("admission: commit failed after validation")
)

// Reason is the machine-readable rejection code surfaced to callers.
type Reason string

const (
	ReasonMalformedInterval  Reason = "MALFORMED_INTERVAL"
	ReasonSelfBooking        Reason = "SELF_BOOKING"
	ReasonUnaffordable       Reason = "UNAFFORDABLE"
	ReasonDateConflict       Reason = "DATE_CONFLICT"
	ReasonContention         Reason = "CONTENTION"
	ReasonPersistenceFailure Reason = "PERSISTENCE_FAILURE"
)

var reasonSentinels = map[Reason]error{
	ReasonMalformedInterval:  ErrMalformedInterval,
	ReasonSelfBooking:        ErrSelfBooking,
	ReasonUnaffordable:       ErrUnaffordable,
	ReasonDateConflict:       ErrDateConflict,
	ReasonContention:         ErrContention,
	ReasonPersistenceFailure: ErrPersistenceFailure,
}

// ReasonOf maps an error to its rejection reason.
func ReasonOf(err error) (Reason, bool) {
	for reason, sentinel := range reasonSentinels {
		if errors.Is(err, sentinel) {
			return reason, true
		}
	}
	return "", false
}

// FromReason reconstructs a tagged error from a stored reason code. Used when
// replaying idempotent rejections.
func FromReason(reason Reason, detail string) error {
	sentinel, ok := reasonSentinels[reason]
	if !ok {
		return errors.New(detail)
	}
	if detail == "" || detail == sentinel.Error() {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, detail)
}

// Retryable reports whether the whole admission attempt may be retried
// unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrContention)
}
