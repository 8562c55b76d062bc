package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/app/uow"
	domainaccount "staybook/internal/domain/account"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
	domainrange "staybook/internal/domain/shared/daterange"
)

type ReservationRepository struct {
	col      *mongo.Collection
	calendar *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{
		col:      db.Collection("agg_reservation"),
		calendar: db.Collection("agg_listing_calendar"),
	}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreservation.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *ReservationRepository) ListByListing(ctx context.Context, id domainlisting.ListingID) ([]*domainreservation.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "stay.check_in", Value: 1}})
	return r.list(ctx, bson.M{"listing_id": string(id)}, opts)
}

func (r *ReservationRepository) ListByGuest(ctx context.Context, id domainaccount.AccountID) ([]*domainreservation.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.list(ctx, bson.M{"account_id": string(id)}, opts)
}

func (r *ReservationRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainreservation.Reservation, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	reservations := make([]*domainreservation.Reservation, 0)
	for cursor.Next(ctx) {
		var doc reservationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		res, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, cursor.Err()
}

// Insert writes the reservation and bumps the listing's calendar version in
// the same transaction. Two admissions over the same listing then collide on
// the calendar document and one of them aborts with a transient conflict,
// which keeps the read set (the overlap scan) serializable.
func (r *ReservationRepository) Insert(ctx context.Context, res *domainreservation.Reservation) error {
	if err := r.bumpCalendar(ctx, res.ListingID); err != nil {
		return err
	}
	doc, err := newReservationDocument(res)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainreservation.ErrDuplicateID
		}
		if isTransient(err) {
			return fmt.Errorf("%w: %v", uow.ErrConflict, err)
		}
		return err
	}
	return nil
}

func (r *ReservationRepository) bumpCalendar(ctx context.Context, id domainlisting.ListingID) error {
	update := bson.M{"$inc": bson.M{"version": int64(1)}}
	_, err := r.calendar.UpdateByID(ctx, string(id), update, options.Update().SetUpsert(true))
	if err != nil {
		if isTransient(err) {
			return fmt.Errorf("%w: %v", uow.ErrConflict, err)
		}
		return err
	}
	return nil
}

type reservationDocument struct {
	ID         string               `bson:"_id"`
	AccountID  string               `bson:"account_id"`
	ListingID  string               `bson:"listing_id"`
	Stay       rangeDocument        `bson:"stay"`
	Guests     int                  `bson:"guests"`
	TotalPrice primitive.Decimal128 `bson:"total_price"`
	CreatedAt  int64                `bson:"created_at"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func newReservationDocument(res *domainreservation.Reservation) (reservationDocument, error) {
	price, err := toDecimal128(res.TotalPrice)
	if err != nil {
		return reservationDocument{}, err
	}
	return reservationDocument{
		ID:         string(res.ID),
		AccountID:  string(res.AccountID),
		ListingID:  string(res.ListingID),
		Stay:       rangeDocument{CheckIn: res.Stay.CheckIn.UnixMilli(), CheckOut: res.Stay.CheckOut.UnixMilli()},
		Guests:     res.Guests,
		TotalPrice: price,
		CreatedAt:  res.CreatedAt.UnixMilli(),
	}, nil
}

func (d reservationDocument) toAggregate() (*domainreservation.Reservation, error) {
	price, err := fromDecimal128(d.TotalPrice)
	if err != nil {
		return nil, err
	}
	return &domainreservation.Reservation{
		ID:        domainreservation.ReservationID(d.ID),
		AccountID: domainaccount.AccountID(d.AccountID),
		ListingID: domainlisting.ListingID(d.ListingID),
		Stay: domainrange.DateRange{
			CheckIn:  timestampToTime(d.Stay.CheckIn),
			CheckOut: timestampToTime(d.Stay.CheckOut),
		},
		Guests:     d.Guests,
		TotalPrice: price,
		CreatedAt:  timestampToTime(d.CreatedAt),
	}, nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
