// Package storage is the only package that talks to MongoDB. It implements
// the source/store interfaces of the inventory and ledger packages, with
// conditional updates for every stock-affecting write.
package storage

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/errs"
	"backend/models"
)

// lowStockPageLimit is the widened page size used when listing low-stock
// products, so the full set shows without pagination.
const lowStockPageLimit = 100

type Products struct {
	col *mongo.Collection
}

func NewProducts(col *mongo.Collection) *Products {
	return &Products{col: col}
}

func (s *Products) Insert(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.RecomputeTotals()

	res, err := s.col.InsertOne(ctx, p)
	if err != nil {
		return errs.Storage(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = id
	}
	return nil
}

func (s *Products) ByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFoundf("product %s", id.Hex())
	}
	if err != nil {
		return nil, errs.Storage(err)
	}
	return &p, nil
}

func (s *Products) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	found := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	cursor, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errs.Storage(err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, errs.Storage(err)
		}
		found[p.ID] = p
	}
	if err := cursor.Err(); err != nil {
		return nil, errs.Storage(err)
	}
	return found, nil
}

func (s *Products) ByStore(ctx context.Context, store string) ([]models.Product, error) {
	return s.find(ctx, bson.M{"store": store}, nil)
}

// LowStock returns every product at or below the low-stock threshold,
// across all stores, ordered by store for the sweep report.
func (s *Products) LowStock(ctx context.Context) ([]models.Product, error) {
	filter := bson.M{"pieces": bson.M{"$lte": models.LowStockThreshold}}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "store", Value: 1}, {Key: "pieces", Value: 1}}))
}

// Page returns one page of a store's products plus the total match count.
// lowStock widens the page and drops the skip so all matches show.
func (s *Products) Page(ctx context.Context, q models.ListProductsQuery) ([]models.Product, int64, error) {
	filter := bson.M{"store": q.Store}
	if q.ItemName != "" {
		filter["item"] = bson.M{"$regex": regexp.QuoteMeta(q.ItemName), "$options": "i"}
	}
	if q.LowStock {
		filter["pieces"] = bson.M{"$lte": models.LowStockThreshold}
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errs.Storage(err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if q.LowStock {
		opts.SetLimit(lowStockPageLimit)
	} else {
		opts.SetSkip(int64((q.Page - 1) * q.Limit)).SetLimit(int64(q.Limit))
	}

	products, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Update applies an explicit field update and recomputes the derived totals
// in the same pipeline write, so the recomputation invariant holds for any
// combination of pieces/price changes.
func (s *Products) Update(ctx context.Context, id primitive.ObjectID, upd models.UpdateProduct) (*models.Product, error) {
	set := bson.M{"updated_at": time.Now()}
	if upd.Item != nil {
		set["item"] = *upd.Item
	}
	if upd.Pieces != nil {
		set["pieces"] = *upd.Pieces
	}
	if upd.PriceLRD != nil {
		set["priceLRD"] = *upd.PriceLRD
	}
	if upd.PriceUSD != nil {
		set["priceUSD"] = *upd.PriceUSD
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: set}},
		bson.D{{Key: "$set", Value: derivedTotals()}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Product
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFoundf("product %s", id.Hex())
	}
	if err != nil {
		return nil, errs.Storage(err)
	}
	return &p, nil
}

// ApplyStockDelta moves pieces by delta in a single conditional update. A
// negative delta only matches when enough stock is present, so concurrent
// sales cannot overdraw, and the derived totals move in the same write.
func (s *Products) ApplyStockDelta(ctx context.Context, id primitive.ObjectID, delta int64) (*models.Product, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["pieces"] = bson.M{"$gte": -delta}
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"pieces":     bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$pieces", 0}}, delta}},
			"updated_at": time.Now(),
		}}},
		bson.D{{Key: "$set", Value: derivedTotals()}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Product
	err := s.col.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Disambiguate: the filter misses both for an unknown product
		// and for insufficient stock.
		count, countErr := s.col.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return nil, errs.Storage(countErr)
		}
		if count == 0 {
			return nil, errs.NotFoundf("product %s", id.Hex())
		}
		return nil, errs.ErrInsufficientStock
	}
	if err != nil {
		return nil, errs.Storage(err)
	}
	return &p, nil
}

func (s *Products) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errs.Storage(err)
	}
	if res.DeletedCount == 0 {
		return errs.NotFoundf("product %s", id.Hex())
	}
	return nil
}

func (s *Products) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
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

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, errs.Storage(err)
	}
	return products, nil
}

// derivedTotals is the pipeline stage recomputing totalLRD/totalUSD from the
// document's own pieces/price fields.
func derivedTotals() bson.M {
	return bson.M{
		"totalLRD": bson.M{"$multiply": bson.A{
			bson.M{"$ifNull": bson.A{"$pieces", 0}},
			bson.M{"$ifNull": bson.A{"$priceLRD", 0}},
		}},
		"totalUSD": bson.M{"$multiply": bson.A{
			bson.M{"$ifNull": bson.A{"$pieces", 0}},
			bson.M{"$ifNull": bson.A{"$priceUSD", 0}},
		}},
	}
}
