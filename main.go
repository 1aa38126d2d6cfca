package main

import (
	"fmt"
	"net/http"

	"github.com/rs/cors"

	"github.com/paisatrack/paisatrack/api"
	"github.com/paisatrack/paisatrack/internal/auth"
	"github.com/paisatrack/paisatrack/internal/budget"
	"github.com/paisatrack/paisatrack/internal/config"
	"github.com/paisatrack/paisatrack/internal/storage"
	"github.com/paisatrack/paisatrack/logging"
)

var bt budget.BudgetTracker // Global

var corsConf = cors.New(cors.Options{
	AllowedOrigins:   []string{"*"},
	AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	AllowedHeaders:   []string{"Authorization", "Content-Type", api.TokenHeader},
	AllowCredentials: true,
})

func main() {
	cfg := config.Load()

	if err := logging.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		return
	}

	logging.Logger.Info("application starting...")

	if err := cfg.Validate(); err != nil {
		logging.Logger.Fatalf("invalid configuration: %v", err)
	}

	db, err := storage.Init(cfg)
	if err != nil {
		logging.Logger.Fatalf("failed to initialize database: %v", err)
	}

	storageInstance := storage.NewMySQLStorage(db)
	tokenIssuer := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)

	bt = budget.NewBudgetTracker(storageInstance, tokenIssuer)

	server := api.NewRouter(api.NewApi(&bt))

	fmt.Println("Starting server on port: ", cfg.AppPort)
	handlerWithCors := corsConf.Handler(server)
	err = http.ListenAndServe(":"+cfg.AppPort, handlerWithCors) // Start the server
	if err != nil {
		logging.Logger.Errorf("failed to start server: %v", err)
		return
	}
}
