package routes

import (
	"github.com/gin-gonic/gin"

	"backend/controllers"
	"backend/middleware"
)

// InitializeRoutes mounts the API. Everything under /api except /api/users
// requires a Bearer token.
func InitializeRoutes(router *gin.Engine, jwtSecret []byte,
	products *controllers.ProductController,
	transactions *controllers.TransactionController,
	users *controllers.UserController) {

	router.Static("/uploads", "./uploads")

	api := router.Group("/api")

	userRoutes := api.Group("/users")
	{
		userRoutes.POST("/register", users.Register)
		userRoutes.POST("/login", users.Login)
	}

	productRoutes := api.Group("/products")
	productRoutes.Use(middleware.RequireAuth(jwtSecret))
	{
		productRoutes.GET("/summary", products.GetInventorySummary)
		productRoutes.GET("", products.GetProducts)
		productRoutes.GET("/:id", products.GetProductByID)
		productRoutes.POST("", products.CreateProduct)
		productRoutes.PUT("/:id", products.UpdateProduct)
		productRoutes.PUT("/:id/inventory", products.UpdateProductInventory)
		productRoutes.DELETE("/:id", products.DeleteProduct)
	}

	transactionRoutes := api.Group("/transactions")
	transactionRoutes.Use(middleware.RequireAuth(jwtSecret))
	{
		transactionRoutes.POST("", transactions.CreateTransaction)
		transactionRoutes.GET("", transactions.GetTransactions)
		transactionRoutes.GET("/range", transactions.GetTransactionsByDateRange)
		transactionRoutes.GET("/report", transactions.GetSalesReport)
		transactionRoutes.GET("/top-products", transactions.GetTopProducts)
		transactionRoutes.GET("/product/:productId/:store", transactions.GetTransactionsByProduct)
		transactionRoutes.GET("/date/:date", transactions.GetTransactionsByDate)
		transactionRoutes.PUT("/:id/reverse", transactions.ReverseTransaction)
		transactionRoutes.GET("/:id", transactions.GetTransactionByID)
	}
}
