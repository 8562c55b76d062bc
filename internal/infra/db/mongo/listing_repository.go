package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlisting "staybook/internal/domain/listing"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("cat_listing")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlisting.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *ListingRepository) Save(ctx context.Context, lst *domainlisting.Listing) error {
	doc, err := newListingDocument(lst)
	if err != nil {
		return err
	}
	_, err = r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type listingDocument struct {
	ID          string               `bson:"_id"`
	Host        string               `bson:"host"`
	Title       string               `bson:"title"`
	NightlyRate primitive.Decimal128 `bson:"nightly_rate"`
	CreatedAt   int64                `bson:"created_at"`
}

func newListingDocument(lst *domainlisting.Listing) (listingDocument, error) {
	rate, err := toDecimal128(lst.NightlyRate)
	if err != nil {
		return listingDocument{}, err
	}
	return listingDocument{
		ID:          string(lst.ID),
		Host:        string(lst.Host),
		Title:       lst.Title,
		NightlyRate: rate,
		CreatedAt:   lst.CreatedAt.UnixMilli(),
	}, nil
}

func (d listingDocument) toAggregate() (*domainlisting.Listing, error) {
	rate, err := fromDecimal128(d.NightlyRate)
	if err != nil {
		return nil, err
	}
	return &domainlisting.Listing{
		ID:          domainlisting.ListingID(d.ID),
		Host:        domainlisting.HostID(d.Host),
		Title:       d.Title,
		NightlyRate: rate,
		CreatedAt:   timestampToTime(d.CreatedAt),
	}, nil
}
