package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/app/uow"
	domainaccount "staybook/internal/domain/account"
)

type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection("agg_account")}
}

func (r *AccountRepository) ByID(ctx context.Context, id domainaccount.AccountID) (*domainaccount.Account, error) {
	var doc accountDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainaccount.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *AccountRepository) Save(ctx context.Context, acct *domainaccount.Account) error {
	doc, err := newAccountDocument(acct)
	if err != nil {
		return err
	}
	_, err = r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil && isTransient(err) {
		return fmt.Errorf("%w: %v", uow.ErrConflict, err)
	}
	return err
}

// Debit decrements the balance with a guarded update, so the non-negative
// invariant holds even outside a session transaction.
func (r *AccountRepository) Debit(ctx context.Context, id domainaccount.AccountID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domainaccount.ErrInvalidDebit
	}
	dec, err := toDecimal128(amount)
	if err != nil {
		return err
	}
	neg, err := toDecimal128(amount.Neg())
	if err != nil {
		return err
	}
	filter := bson.M{"_id": string(id), "balance": bson.M{"$gte": dec}}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"balance": neg}})
	if err != nil {
		if isTransient(err) {
			return fmt.Errorf("%w: %v", uow.ErrConflict, err)
		}
		return err
	}
	if res.MatchedCount == 0 {
		count, countErr := r.col.CountDocuments(ctx, bson.M{"_id": string(id)})
		if countErr != nil {
			return countErr
		}
		if count == 0 {
			return domainaccount.ErrNotFound
		}
		return domainaccount.ErrInsufficientFunds
	}
	return nil
}

type accountDocument struct {
	ID      string               `bson:"_id"`
	Balance primitive.Decimal128 `bson:"balance"`
}

func newAccountDocument(acct *domainaccount.Account) (accountDocument, error) {
	balance, err := toDecimal128(acct.Balance)
	if err != nil {
		return accountDocument{}, err
	}
	return accountDocument{ID: string(acct.ID), Balance: balance}, nil
}

func (d accountDocument) toAggregate() (*domainaccount.Account, error) {
	balance, err := fromDecimal128(d.Balance)
	if err != nil {
		return nil, err
	}
	return &domainaccount.Account{ID: domainaccount.AccountID(d.ID), Balance: balance}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}
