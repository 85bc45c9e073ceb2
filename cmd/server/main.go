package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ignatius/config"
	"ignatius/controllers"
	"ignatius/db"
	"ignatius/middlewares"
	"ignatius/routes"
	"ignatius/services"
)

func main() {
	// Secrets come from the environment; a local .env is optional
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	promptBuilder, err := services.LoadPromptBuilder(cfg.Prompts.Path)
	if err != nil {
		log.Fatalf("Failed to load prompt catalog: %v", err)
	}

	database, err := db.ConnectMongoDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB")

	store := db.NewConversationStore(database)
	completer := services.NewGeminiCompleter(cfg.Gemini.ApiKey)
	generator := services.NewResponseGenerator(promptBuilder, completer, services.GenerationParams{
		Model:       cfg.Gemini.Model,
		Temperature: cfg.Gemini.Temperature,
		MaxTokens:   cfg.Gemini.MaxTokens,
	})
	service := services.NewConversationService(store, generator,
		time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second)

	router := setupRouter(cfg, service, store)
	port := strconv.Itoa(cfg.Server.Port)
	log.Printf("Server starting on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(cfg *config.Config, service *services.ConversationService, store *db.ConversationStore) *gin.Engine {
	router := gin.New()
	router.Use(middlewares.RequestLogger(), gin.Recovery())
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Cors.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	ctrl := controllers.NewConversationController(service)
	api := router.Group("/api/v1")
	routes.SetupConversationRoutes(api, ctrl)

	router.GET("/healthz", controllers.Healthz(store))

	return router
}
