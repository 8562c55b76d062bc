package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/app/uow"
	domainaccount "staybook/internal/domain/account"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// Per-listing and per-account serialization comes from document-level write
// conflicts: every admission writes the listing's calendar document and the
// account's balance document inside the transaction.
type Factory struct {
	DB *mongo.Database

	AccountRepo     domainaccount.Repository
	ListingRepo     domainlisting.Repository
	ReservationRepo domainreservation.Repository
}

func NewFactory(db *mongo.Database) *Factory {
	return &Factory{
		DB:              db,
		AccountRepo:     NewAccountRepository(db),
		ListingRepo:     NewListingRepository(db),
		ReservationRepo: NewReservationRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:      session,
		accounts:     f.AccountRepo,
		listings:     f.ListingRepo,
		reservations: f.ReservationRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	accounts     domainaccount.Repository
	listings     domainlisting.Repository
	reservations domainreservation.Repository
}

func (u *Unit) Accounts() domainaccount.Repository {
	return u.accounts
}

func (u *Unit) Listings() domainlisting.Repository {
	return u.listings
}

func (u *Unit) Reservations() domainreservation.Repository {
	return u.reservations
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isTransient(err) {
			return fmt.Errorf("%w: %v", uow.ErrConflict, err)
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the Mongo session available to downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = (*Factory)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
