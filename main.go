package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"chatnet/cache"
	"chatnet/config"
	"chatnet/db"
	"chatnet/handlers"
	"chatnet/llm"
	"chatnet/middleware"
	"chatnet/npc"
	"chatnet/ratelimit"
	"chatnet/responder"
)

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// NPC catalog is static configuration: refuse to start without it.
	catalog, err := npc.LoadCatalog(config.GetNPCCatalogPath())
	if err != nil {
		log.Fatal("Failed to load NPC catalog: ", err)
	}

	// Initialize MongoDB connection
	err = db.InitMongoDB()
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer db.Close()
	db.CreateIndexes()

	accounts := db.NewAccountRepository()
	posts := db.NewPostRepository()
	messages := db.NewMessageRepository()
	ledger := db.NewRelationshipRepository(messages, posts)
	windows := db.NewRateLimitRepository()

	if err := db.SeedCatalog(context.Background(), accounts, posts, catalog); err != nil {
		log.Fatal("Failed to seed NPC catalog: ", err)
	}

	gemini, err := llm.NewGeminiClient(context.Background(), config.GetGeminiAPIKey(), config.GetGeminiModel())
	if err != nil {
		log.Fatal("Failed to create Gemini client: ", err)
	}

	pageCache := cache.New(config.GetCacheTTL(), config.GetCacheFreshness())
	limiter := ratelimit.New(windows, config.GetRateLimitMax(), config.GetRateLimitWindow())

	sender := responder.New(limiter, ledger, gemini, catalog, pageCache, responder.Config{
		MaxTurns:    config.GetHistoryMaxTurns(),
		MaxBytes:    config.GetHistoryMaxBytes(),
		MaxAttempts: config.GetModelMaxAttempts(),
		RetryDelay:  config.GetModelRetryDelay(),
	})

	h := &handlers.Handler{
		Cache:    pageCache,
		Sender:   sender,
		Posts:    posts,
		Messages: messages,
		Accounts: accounts,
		Ledger:   ledger,
		Catalog:  catalog,
		PageSize: config.GetPageSize(),
	}

	route := func(fn http.HandlerFunc) http.HandlerFunc {
		return middleware.EnableCORS(middleware.RequireUser(fn))
	}

	http.HandleFunc("/timeline", route(h.TimelineHandler))
	http.HandleFunc("/post", route(h.CreatePostHandler))
	http.HandleFunc("/contacts", route(h.ContactsHandler))
	http.HandleFunc("/dm", route(h.DMHandler))
	http.HandleFunc("/dm/send", route(h.SendMessageHandler))
	http.HandleFunc("/reset", route(h.ResetHandler))
	http.HandleFunc("/profile", route(h.ProfileHandler))

	addr := ":" + config.GetPort()
	fmt.Println("Server running on http://localhost" + addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
