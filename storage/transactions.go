package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/errs"
	"backend/models"
)

type Transactions struct {
	col *mongo.Collection
}

func NewTransactions(col *mongo.Collection) *Transactions {
	return &Transactions{col: col}
}

func (s *Transactions) Insert(ctx context.Context, tx *models.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	res, err := s.col.InsertOne(ctx, tx)
	if err != nil {
		return errs.Storage(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		tx.ID = id
	}
	return nil
}

func (s *Transactions) ByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&tx)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFoundf("transaction %s", id.Hex())
	}
	if err != nil {
		return nil, errs.Storage(err)
	}
	return &tx, nil
}

// SalesByProduct returns every non-reversed sale referencing the product.
func (s *Transactions) SalesByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Transaction, error) {
	filter := bson.M{
		"productsSold.product": productID,
		"type":                 models.TransactionSale,
		"reversed":             bson.M{"$ne": true},
	}
	return s.find(ctx, filter, nil)
}

// SalesByStore returns the store's non-reversed sales, optionally bounded
// by [from, to] on createdAt.
func (s *Transactions) SalesByStore(ctx context.Context, store string, from, to time.Time) ([]models.Transaction, error) {
	filter := bson.M{
		"store":    store,
		"type":     models.TransactionSale,
		"reversed": bson.M{"$ne": true},
	}
	if created := dateRange(from, to); len(created) > 0 {
		filter["createdAt"] = created
	}
	return s.find(ctx, filter, nil)
}

// Page returns one page of a store's transactions, newest first, all types
// and reversal states included: the record of a reversed transaction stays
// visible, only its effects are excluded from aggregation.
func (s *Transactions) Page(ctx context.Context, store string, page, limit int) ([]models.Transaction, int64, error) {
	filter := bson.M{"store": store}
	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errs.Storage(err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	transactions, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// ByDateRange returns a store's transactions of every type within [from, to].
func (s *Transactions) ByDateRange(ctx context.Context, store string, from, to time.Time) ([]models.Transaction, error) {
	filter := bson.M{"store": store}
	if created := dateRange(from, to); len(created) > 0 {
		filter["createdAt"] = created
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// ByProduct returns every transaction of a store referencing the product,
// any type, newest first.
func (s *Transactions) ByProduct(ctx context.Context, productID primitive.ObjectID, store string) ([]models.Transaction, error) {
	filter := bson.M{
		"productsSold.product": productID,
		"store":                store,
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// MarkReversed flags the transaction reversed if and only if it is not
// already. The conditional filter is the double-reversal guard.
func (s *Transactions) MarkReversed(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id, "reversed": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"reversed": true, "reversedAt": at}},
	)
	if err != nil {
		return errs.Storage(err)
	}
	if res.MatchedCount == 0 {
		count, countErr := s.col.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return errs.Storage(countErr)
		}
		if count == 0 {
			return errs.NotFoundf("transaction %s", id.Hex())
		}
		return errs.ErrAlreadyReversed
	}
	return nil
}

// UnmarkReversed releases a reversal claim whose stock deltas failed.
func (s *Transactions) UnmarkReversed(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"reversed": false}, "$unset": bson.M{"reversedAt": ""}},
	)
	return errs.Storage(err)
}

func (s *Transactions) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Transaction, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = s.col.Find(ctx, filter, opts)
	} else {
		cursor, err = s.col.Find(ctx, filter)
	}
	if err != nil {
		return nil, errs.Storage(err)
	}
	defer cursor.Close(ctx)

	var transactions []models.Transaction
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, errs.Storage(err)
	}
	return transactions, nil
}

func dateRange(from, to time.Time) bson.M {
	created := bson.M{}
	if !from.IsZero() {
		created["$gte"] = from
	}
	if !to.IsZero() {
		created["$lte"] = to
	}
	return created
}
