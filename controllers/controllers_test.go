package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/errs"
	"backend/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProductStorage struct {
	products map[primitive.ObjectID]models.Product
}

func (f *fakeProductStorage) Insert(_ context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.RecomputeTotals()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductStorage) ByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, errs.NotFoundf("product %s", id.Hex())
	}
	return &p, nil
}

func (f *fakeProductStorage) Page(_ context.Context, q models.ListProductsQuery) ([]models.Product, int64, error) {
	var out []models.Product
	for _, p := range f.products {
		if p.Store != q.Store {
			continue
		}
		if q.LowStock && p.Pieces > models.LowStockThreshold {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductStorage) Update(_ context.Context, id primitive.ObjectID, upd models.UpdateProduct) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, errs.NotFoundf("product %s", id.Hex())
	}
	if upd.Item != nil {
		p.Item = *upd.Item
	}
	if upd.Pieces != nil {
		p.Pieces = *upd.Pieces
	}
	if upd.PriceLRD != nil {
		p.PriceLRD = *upd.PriceLRD
	}
	if upd.PriceUSD != nil {
		p.PriceUSD = *upd.PriceUSD
	}
	if upd.Image != nil {
		p.Image = *upd.Image
	}
	p.RecomputeTotals()
	f.products[id] = p
	return &p, nil
}

func (f *fakeProductStorage) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.products[id]; !ok {
		return errs.NotFoundf("product %s", id.Hex())
	}
	delete(f.products, id)
	return nil
}

type fakeAggregator struct {
	summary models.InventorySummary
	totals  models.ProductSales
}

func (f *fakeAggregator) ProductSalesTotals(context.Context, primitive.ObjectID) (models.ProductSales, error) {
	return f.totals, nil
}

func (f *fakeAggregator) StoreInventorySummary(_ context.Context, store string) (models.InventorySummary, error) {
	if store == "" {
		return models.InventorySummary{}, errs.Validationf("store parameter is required")
	}
	return f.summary, nil
}

type fakeLifecycle struct {
	createErr  error
	reverseErr error
	created    *models.Transaction
}

func (f *fakeLifecycle) Create(_ context.Context, req models.CreateTransaction) (*models.Transaction, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &models.Transaction{
		ID:       primitive.NewObjectID(),
		Store:    req.Store,
		Type:     req.Type,
		Currency: req.Currency,
	}
	return f.created, nil
}

func (f *fakeLifecycle) Reverse(_ context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	if f.reverseErr != nil {
		return nil, f.reverseErr
	}
	return &models.Transaction{ID: id, Reversed: true}, nil
}

type fakeTransactionStorage struct{}

func (fakeTransactionStorage) ByID(_ context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	return nil, errs.NotFoundf("transaction %s", id.Hex())
}
func (fakeTransactionStorage) Page(context.Context, string, int, int) ([]models.Transaction, int64, error) {
	return nil, 0, nil
}
func (fakeTransactionStorage) ByDateRange(context.Context, string, time.Time, time.Time) ([]models.Transaction, error) {
	return nil, nil
}
func (fakeTransactionStorage) ByProduct(context.Context, primitive.ObjectID, string) ([]models.Transaction, error) {
	return nil, nil
}

type fakeReporter struct{}

func (fakeReporter) TopProducts(context.Context, string, int, time.Time, time.Time) ([]models.TopProduct, error) {
	return nil, nil
}
func (fakeReporter) SalesReport(_ context.Context, store, granularity string, _, _ time.Time) ([]models.ReportBucket, error) {
	if store == "" {
		return nil, errs.Validationf("store parameter is required")
	}
	return []models.ReportBucket{}, nil
}

func newProductRouter(storage *fakeProductStorage, agg *fakeAggregator) *gin.Engine {
	pc := NewProductController(storage, agg, nil)
	r := gin.New()
	r.GET("/api/products/summary", pc.GetInventorySummary)
	r.GET("/api/products", pc.GetProducts)
	r.GET("/api/products/:id", pc.GetProductByID)
	r.PUT("/api/products/:id", pc.UpdateProduct)
	r.DELETE("/api/products/:id", pc.DeleteProduct)
	return r
}

func newTransactionRouter(lc *fakeLifecycle) *gin.Engine {
	tc := NewTransactionController(lc, fakeTransactionStorage{}, fakeReporter{}, time.UTC)
	r := gin.New()
	r.POST("/api/transactions", tc.CreateTransaction)
	r.GET("/api/transactions/report", tc.GetSalesReport)
	r.PUT("/api/transactions/:id/reverse", tc.ReverseTransaction)
	r.GET("/api/transactions/:id", tc.GetTransactionByID)
	return r
}

func TestGetProductsRequiresStore(t *testing.T) {
	r := newProductRouter(&fakeProductStorage{products: map[primitive.ObjectID]models.Product{}}, &fakeAggregator{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProductsReturnsRowsWithSales(t *testing.T) {
	id := primitive.NewObjectID()
	storage := &fakeProductStorage{products: map[primitive.ObjectID]models.Product{
		id: {ID: id, Store: "monrovia", Item: "rice", Pieces: 7, PriceLRD: 100, TotalLRD: 700},
	}}
	agg := &fakeAggregator{totals: models.ProductSales{TotalSalesLRD: 360, TotalQuantitySold: 3}}
	r := newProductRouter(storage, agg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products?store=monrovia", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Products   []models.ProductWithSales `json:"products"`
		Pagination models.Pagination         `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Products, 1)
	assert.Equal(t, 360.0, body.Products[0].TotalSalesLRD)
	assert.Equal(t, int64(1), body.Pagination.TotalItems)
}

func TestGetProductByIDStatusMapping(t *testing.T) {
	r := newProductRouter(&fakeProductStorage{products: map[primitive.ObjectID]models.Product{}}, &fakeAggregator{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/not-a-hex", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProductRecomputesTotals(t *testing.T) {
	id := primitive.NewObjectID()
	storage := &fakeProductStorage{products: map[primitive.ObjectID]models.Product{
		id: {ID: id, Store: "monrovia", Item: "rice", Pieces: 10, PriceLRD: 100, TotalLRD: 1000},
	}}
	r := newProductRouter(storage, &fakeAggregator{})

	payload, _ := json.Marshal(gin.H{"pieces": 4})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/products/"+id.Hex(), bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, int64(4), updated.Pieces)
	assert.Equal(t, 400.0, updated.TotalLRD)
}

func TestUpdateProductRejectsEmptyBody(t *testing.T) {
	id := primitive.NewObjectID()
	storage := &fakeProductStorage{products: map[primitive.ObjectID]models.Product{id: {ID: id}}}
	r := newProductRouter(storage, &fakeAggregator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/products/"+id.Hex(), bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetInventorySummary(t *testing.T) {
	agg := &fakeAggregator{summary: models.InventorySummary{TotalInventoryLRD: 1000, TotalItems: 2}}
	r := newProductRouter(&fakeProductStorage{products: map[primitive.ObjectID]models.Product{}}, agg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/summary", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/summary?store=monrovia", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var summary models.InventorySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1000.0, summary.TotalInventoryLRD)
}

func TestCreateTransactionStatusMapping(t *testing.T) {
	payload, _ := json.Marshal(models.CreateTransaction{
		Store: "monrovia", Type: "sale", Currency: "LRD",
		Products: []models.SaleLine{{Product: primitive.NewObjectID().Hex(), Quantity: 1}},
	})

	r := newTransactionRouter(&fakeLifecycle{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	r = newTransactionRouter(&fakeLifecycle{createErr: errs.ErrInsufficientStock})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReverseTransactionStatusMapping(t *testing.T) {
	id := primitive.NewObjectID().Hex()

	r := newTransactionRouter(&fakeLifecycle{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/transactions/"+id+"/reverse", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	r = newTransactionRouter(&fakeLifecycle{reverseErr: errs.ErrAlreadyReversed})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/transactions/"+id+"/reverse", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	r = newTransactionRouter(&fakeLifecycle{reverseErr: errs.NotFoundf("transaction %s", id)})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/transactions/"+id+"/reverse", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSalesReportRequiresStore(t *testing.T) {
	r := newTransactionRouter(&fakeLifecycle{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/transactions/report?startDate=2025-03-01&endDate=2025-03-07", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
