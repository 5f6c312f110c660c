package main

import (
	"context"
	"log"
	"os"

	"vatify/internal/database"
	"vatify/internal/handler"
	"vatify/internal/repository"
	"vatify/internal/service"
	"vatify/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           VATify API
// @version         1.0
// @description     VAT calculation and VIES validation API for EU member states.
// @host            localhost:8080
// @BasePath        /
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Load the trusted rate dataset and build the immutable in-memory table.
	datasetPath := os.Getenv("VAT_RATES_PATH")
	if datasetPath == "" {
		datasetPath = "data/vat_rates.json"
	}
	dataset, err := service.LoadRateDataset(datasetPath)
	if err != nil {
		log.Fatalf("Rate dataset load failed: %v", err)
	}
	rateTable, err := service.BuildRateTable(dataset)
	if err != nil {
		log.Fatalf("Rate table build failed: %v", err)
	}
	log.Printf("Rate table loaded (version %s)", rateTable.Version())

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	rateRepo := repository.NewRateEntryRepository(db)
	checkRepo := repository.NewVatCheckRepository(db)
	txManager := repository.NewTransactionManager(db)

	// Mirror the dataset into Postgres in one transaction so a partial sync
	// never leaves a half-published version behind.
	syncErr := txManager.RunInTx(context.Background(), func(txCtx context.Context) error {
		return service.SyncRateDataset(txCtx, rateRepo, rateTable)
	})
	if syncErr != nil {
		log.Printf("WARNING: Rate dataset sync failed: %v", syncErr)
	} else {
		wsHub.BroadcastEvent("rates_loaded", map[string]string{"version": rateTable.Version()})
	}

	validator := service.NewViesClient(os.Getenv("VIES_ENDPOINT"))
	resolver := service.NewReverseChargeResolver(validator)
	calcService := service.NewCalcService(rateTable, resolver, wsHub)

	// Initialize Handlers
	calcHandler := handler.NewCalcHandler(calcService)
	ratesHandler := handler.NewRatesHandler(rateTable, rateRepo)
	validateHandler := handler.NewValidateHandler(validator, checkRepo)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	// Register API Routes
	calcHandler.RegisterRoutes(router.Group(""))
	ratesHandler.RegisterRoutes(router.Group(""))
	validateHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
