package controllers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/models"
)

// Lifecycle is the write side of the transaction ledger.
type Lifecycle interface {
	Create(ctx context.Context, req models.CreateTransaction) (*models.Transaction, error)
	Reverse(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
}

// TransactionStorage is the read access the transaction handlers need.
type TransactionStorage interface {
	ByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
	Page(ctx context.Context, store string, page, limit int) ([]models.Transaction, int64, error)
	ByDateRange(ctx context.Context, store string, from, to time.Time) ([]models.Transaction, error)
	ByProduct(ctx context.Context, productID primitive.ObjectID, store string) ([]models.Transaction, error)
}

// Reporter is the reporting side of the inventory engine.
type Reporter interface {
	TopProducts(ctx context.Context, store string, limit int, from, to time.Time) ([]models.TopProduct, error)
	SalesReport(ctx context.Context, store, granularity string, from, to time.Time) ([]models.ReportBucket, error)
}

type TransactionController struct {
	lifecycle Lifecycle
	storage   TransactionStorage
	engine    Reporter
	location  *time.Location
}

func NewTransactionController(lifecycle Lifecycle, storage TransactionStorage, engine Reporter, location *time.Location) *TransactionController {
	if location == nil {
		location = time.UTC
	}
	return &TransactionController{lifecycle: lifecycle, storage: storage, engine: engine, location: location}
}

func (tc *TransactionController) CreateTransaction(c *gin.Context) {
	var req models.CreateTransaction
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := tc.lifecycle.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (tc *TransactionController) GetTransactions(c *gin.Context) {
	store := c.Query("store")
	if store == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Store parameter is required"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 {
		limit = 20
	}

	transactions, total, err := tc.storage.Page(c.Request.Context(), store, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"pagination": models.Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			HasNextPage: page < totalPages,
			HasPrevPage: page > 1,
			TotalItems:  total,
		},
	})
}

// GetTransactionsByDateRange lists a store's transactions between start and
// end dates (inclusive, whole days).
func (tc *TransactionController) GetTransactionsByDateRange(c *gin.Context) {
	store := c.Query("store")
	if store == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Store parameter is required"})
		return
	}
	from, to, err := tc.parseRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transactions, err := tc.storage.ByDateRange(c.Request.Context(), store, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// GetSalesReport emits the bucketed sales series for the requested period
// granularity and date range.
func (tc *TransactionController) GetSalesReport(c *gin.Context) {
	from, to, err := tc.parseRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buckets, err := tc.engine.SalesReport(c.Request.Context(), c.Query("store"), c.DefaultQuery("period", "daily"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": buckets})
}

func (tc *TransactionController) GetTopProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	var from, to time.Time
	if c.Query("startDate") != "" || c.Query("endDate") != "" {
		var err error
		from, to, err = tc.parseRange(c.Query("startDate"), c.Query("endDate"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	ranking, err := tc.engine.TopProducts(c.Request.Context(), c.Query("store"), limit, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topProducts": ranking})
}

func (tc *TransactionController) GetTransactionsByProduct(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}
	store := c.Param("store")
	if store == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Store parameter is required"})
		return
	}

	transactions, err := tc.storage.ByProduct(c.Request.Context(), productID, store)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// GetTransactionsByDate lists one day's transactions for a store.
func (tc *TransactionController) GetTransactionsByDate(c *gin.Context) {
	store := c.Query("store")
	if store == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Store parameter is required"})
		return
	}
	day, err := time.ParseInLocation("2006-01-02", c.Param("date"), tc.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	transactions, err := tc.storage.ByDateRange(c.Request.Context(), store, day, day.AddDate(0, 0, 1).Add(-time.Nanosecond))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (tc *TransactionController) ReverseTransaction(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction id"})
		return
	}

	tx, err := tc.lifecycle.Reverse(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (tc *TransactionController) GetTransactionByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction id"})
		return
	}

	tx, err := tc.storage.ByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// parseRange turns startDate/endDate (YYYY-MM-DD) into an inclusive range:
// the end bound is pushed to the last instant of its day.
func (tc *TransactionController) parseRange(start, end string) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation("2006-01-02", start, tc.location)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidDate("startDate")
	}
	to, err := time.ParseInLocation("2006-01-02", end, tc.location)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidDate("endDate")
	}
	return from, to.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

type errInvalidDate string

func (e errInvalidDate) Error() string {
	return "Invalid or missing " + string(e) + ", expected YYYY-MM-DD"
}
