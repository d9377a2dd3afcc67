package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"backend/config"
	"backend/controllers"
	"backend/inventory"
	"backend/ledger"
	"backend/middleware"
	"backend/routes"
	"backend/storage"
	"backend/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	log.Printf("Running in %s mode", gin.Mode())

	r := gin.Default()

	middleware.InitMetrics()
	r.Use(middleware.PrometheusMiddleware())

	r.GET("/metrics", func(c *gin.Context) {
		promhttp.Handler().ServeHTTP(c.Writer, c.Request)
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			log.Printf("Failed to close MongoDB connection: %v", err)
		}
	}()

	productStore := storage.NewProducts(db.Products)
	transactionStore := storage.NewTransactions(db.Transactions)
	userStore := storage.NewUsers(db.Users)

	engine := inventory.NewEngine(productStore, transactionStore, cfg.ReportLocation)
	lifecycle := ledger.NewManager(productStore, transactionStore)

	photos, err := controllers.NewPhotoStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize photo storage: %v", err)
	}

	productController := controllers.NewProductController(productStore, engine, photos)
	transactionController := controllers.NewTransactionController(lifecycle, transactionStore, engine, cfg.ReportLocation)
	userController := controllers.NewUserController(userStore, []byte(cfg.JWTSecret))

	// Daily low-stock sweep.
	s := gocron.NewScheduler(cfg.ReportLocation)
	s.Every(1).Day().At("01:01").Do(func() {
		utils.CheckLowStock(cfg, productStore)
	})
	s.StartAsync()

	routes.InitializeRoutes(r, []byte(cfg.JWTSecret), productController, transactionController, userController)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
