package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainaccount "staybook/internal/domain/account"
	"staybook/internal/domain/admission"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	CommandID       string
	AccountID       string
	ListingID       string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

func (c RequestBookingCommand) TxScope() uow.TxOptions {
	return uow.TxOptions{
		ListingID: domainlisting.ListingID(c.ListingID),
		AccountID: domainaccount.AccountID(c.AccountID),
	}
}

type RequestBookingResult struct {
	ReservationID    string `json:"reservation_id"`
	TotalPrice       string `json:"total_price"`
	RemainingBalance string `json:"remaining_balance"`
}

// RequestBookingHandler is the admission coordinator. A request moves through
// checking into either a committed reservation or a tagged rejection; the
// eligibility read-set and the commit write-set (reservation insert + balance
// debit) share one unit of work, so nothing partial ever becomes visible.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	stay, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", admission.ErrMalformedInterval, err)
	}
	if cmd.Guests <= 0 {
		return nil, domainreservation.ErrInvalidGuests
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		unit, err = h.UoWFactory.Begin(ctx, cmd.TxScope())
		if err != nil {
			return nil, commitError(err)
		}
		if injector, ok := unit.(interface {
			InjectContext(context.Context) context.Context
		}); ok {
			ctx = injector.InjectContext(ctx)
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	acct, err := unit.Accounts().ByID(ctx, domainaccount.AccountID(cmd.AccountID))
	if err != nil {
		return nil, err
	}
	lst, err := unit.Listings().ByID(ctx, domainlisting.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	existing, err := unit.Reservations().ListByListing(ctx, lst.ID)
	if err != nil {
		return nil, err
	}

	quote, err := admission.Evaluate(acct, lst, existing, admission.Request{
		AccountID: acct.ID,
		ListingID: lst.ID,
		Stay:      stay,
		Guests:    cmd.Guests,
	})
	if err != nil {
		return nil, err
	}

	now := h.now()
	res, err := domainreservation.New(domainreservation.CreateParams{
		ID:         domainreservation.ReservationID(h.reservationID(cmd)),
		AccountID:  acct.ID,
		ListingID:  lst.ID,
		Stay:       stay,
		Guests:     cmd.Guests,
		TotalPrice: quote.Total,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Reservations().Insert(ctx, res); err != nil {
		return nil, commitError(err)
	}
	if err := unit.Accounts().Debit(ctx, acct.ID, quote.Total); err != nil {
		if errors.Is(err, domainaccount.ErrInsufficientFunds) {
			return nil, fmt.Errorf("%w: %v", admission.ErrUnaffordable, err)
		}
		return nil, commitError(err)
	}

	event := domainreservation.ReservationCommitted{
		ReservationID:    res.ID,
		AccountID:        res.AccountID,
		ListingID:        res.ListingID,
		Stay:             res.Stay,
		Guests:           res.Guests,
		TotalPrice:       res.TotalPrice,
		RemainingBalance: quote.RemainingBalance,
		At:               now,
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{event}); err != nil {
		return nil, commitError(err)
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, commitError(err)
		}
		committed = true
	}

	return &RequestBookingResult{
		ReservationID:    string(res.ID),
		TotalPrice:       quote.Total.String(),
		RemainingBalance: quote.RemainingBalance.String(),
	}, nil
}

// commitError tags infrastructure failures so callers can tell a retryable
// conflict from a broken store.
func commitError(err error) error {
	if errors.Is(err, uow.ErrConflict) {
		return fmt.Errorf("%w: %v", admission.ErrContention, err)
	}
	return fmt.Errorf("%w: %v", admission.ErrPersistenceFailure, err)
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *RequestBookingHandler) reservationID(cmd RequestBookingCommand) string {
	if cmd.CommandID != "" {
		return cmd.CommandID
	}
	return uuid.NewString()
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
var _ middleware.ScopedCommand = (*RequestBookingCommand)(nil)
