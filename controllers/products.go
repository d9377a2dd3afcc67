package controllers

import (
	"context"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/models"
)

// ProductStorage is the product persistence the handlers need.
type ProductStorage interface {
	Insert(ctx context.Context, p *models.Product) error
	ByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Page(ctx context.Context, q models.ListProductsQuery) ([]models.Product, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, upd models.UpdateProduct) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Aggregator is the read side computed by the inventory engine.
type Aggregator interface {
	ProductSalesTotals(ctx context.Context, productID primitive.ObjectID) (models.ProductSales, error)
	StoreInventorySummary(ctx context.Context, store string) (models.InventorySummary, error)
}

// PhotoSaver stores an uploaded product image and returns its path.
type PhotoSaver interface {
	SaveProductPhoto(ctx context.Context, file *multipart.FileHeader, productID string) (string, error)
}

type ProductController struct {
	storage ProductStorage
	engine  Aggregator
	photos  PhotoSaver
}

func NewProductController(storage ProductStorage, engine Aggregator, photos PhotoSaver) *ProductController {
	return &ProductController{storage: storage, engine: engine, photos: photos}
}

// CreateProduct accepts JSON or multipart form data; a multipart "image"
// field is stored and its path saved on the product.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var input struct {
		Store    string  `form:"store" json:"store" binding:"required"`
		Item     string  `form:"item" json:"item" binding:"required"`
		Pieces   int64   `form:"pieces" json:"pieces"`
		PriceLRD float64 `form:"priceLRD" json:"priceLRD"`
		PriceUSD float64 `form:"priceUSD" json:"priceUSD"`
	}
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := models.Product{
		ID:       primitive.NewObjectID(),
		Store:    input.Store,
		Item:     input.Item,
		Pieces:   input.Pieces,
		PriceLRD: input.PriceLRD,
		PriceUSD: input.PriceUSD,
	}

	if file, err := c.FormFile("image"); err == nil && file != nil {
		path, err := pc.photos.SaveProductPhoto(c.Request.Context(), file, product.ID.Hex())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		product.Image = path
	}

	if err := pc.storage.Insert(c.Request.Context(), &product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts lists a store's products with pagination, a case-insensitive
// item filter and the lowStock switch, each row carrying its sales totals.
func (pc *ProductController) GetProducts(c *gin.Context) {
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

	query := models.ListProductsQuery{
		Store:    store,
		Page:     page,
		Limit:    limit,
		LowStock: c.Query("lowStock") == "true",
		ItemName: c.Query("itemName"),
	}

	products, total, err := pc.storage.Page(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	rows := make([]models.ProductWithSales, 0, len(products))
	for _, p := range products {
		totals, err := pc.engine.ProductSalesTotals(c.Request.Context(), p.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		rows = append(rows, models.ProductWithSales{Product: p, ProductSales: totals})
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	c.JSON(http.StatusOK, gin.H{
		"products": rows,
		"pagination": models.Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			HasNextPage: page < totalPages,
			HasPrevPage: page > 1,
			TotalItems:  total,
		},
	})
}

func (pc *ProductController) GetProductByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	product, err := pc.storage.ByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	totals, err := pc.engine.ProductSalesTotals(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductWithSales{Product: *product, ProductSales: totals})
}

// UpdateProduct applies an explicit field update; derived totals are
// recomputed by the storage layer in the same write.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var upd models.UpdateProduct
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if upd.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
		return
	}

	product, err := pc.storage.Update(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProductInventory is the multipart variant of UpdateProduct: form
// fields plus an optional replacement image.
func (pc *ProductController) UpdateProductInventory(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var upd models.UpdateProduct
	if v, ok := c.GetPostForm("item"); ok {
		upd.Item = &v
	}
	if v, ok := c.GetPostForm("pieces"); ok {
		pieces, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pieces value"})
			return
		}
		upd.Pieces = &pieces
	}
	if v, ok := c.GetPostForm("priceLRD"); ok {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priceLRD value"})
			return
		}
		upd.PriceLRD = &price
	}
	if v, ok := c.GetPostForm("priceUSD"); ok {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priceUSD value"})
			return
		}
		upd.PriceUSD = &price
	}

	if file, err := c.FormFile("image"); err == nil && file != nil {
		path, err := pc.photos.SaveProductPhoto(c.Request.Context(), file, id.Hex())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		upd.Image = &path
	}

	if upd.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
		return
	}

	product, err := pc.storage.Update(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	if err := pc.storage.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// GetInventorySummary rolls up a store: inventory valuation, sales
// valuation and distinct product count.
func (pc *ProductController) GetInventorySummary(c *gin.Context) {
	summary, err := pc.engine.StoreInventorySummary(c.Request.Context(), c.Query("store"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
