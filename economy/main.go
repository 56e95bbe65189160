// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	economyapi "github.com/Ftotnem/ECONOMY-SERVICES/economy/api"
	"github.com/Ftotnem/ECONOMY-SERVICES/economy/archiver"
	"github.com/Ftotnem/ECONOMY-SERVICES/economy/service"
	"github.com/Ftotnem/ECONOMY-SERVICES/economy/store"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/api"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/config"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/kv"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
	mongodbu "github.com/Ftotnem/ECONOMY-SERVICES/shared/mongodb"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/registry"
	sharedservice "github.com/Ftotnem/ECONOMY-SERVICES/shared/service"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadEconomyServiceConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- 2. Connect to Redis (authoritative ledger state) ---
	redisClient, err := kv.NewRedisClient(cfg.RedisAddrs, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
		log.Println("Redis client closed.")
	}()

	// --- 3. Connect to MongoDB (long-term transaction archive) ---
	// The archive is an optional tier: when MongoDB is unreachable the
	// service still runs on the hot ledger, with archive reads answering
	// 501 and the archiver skipping its copy pass.
	mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase)
	if err != nil {
		log.Printf("WARN: MongoDB unavailable, running without the transaction archive: %v", err)
		mongoClient = nil
	} else {
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Printf("Failed to disconnect from MongoDB: %v", err)
			}
			log.Println("Disconnected from MongoDB.")
		}()
	}

	// --- 4. Initialize Data Stores ---
	kvStore := kv.NewRedisStore(redisClient)
	coordinator := kv.NewCoordinator(cfg.TxMaxAttempts)

	accountStore := store.NewAccountStore(kvStore, coordinator)
	teamStore := store.NewTeamStore(kvStore, coordinator, store.TeamConfig{
		CreationFee: models.Coins(cfg.TeamCreationFee),
		MaxMembers:  cfg.TeamMaxMembers,
		InviteTTL:   cfg.InviteTTL,
	})
	marketStore := store.NewMarketStore(kvStore, coordinator)
	var archiveStore *store.ArchiveStore
	if mongoClient != nil {
		archiveStore = store.NewArchiveStore(mongoClient.Collection(cfg.MongoDBArchiveCollection))
	}

	// --- 5. Initialize External Service Clients ---
	gameClient := sharedservice.NewGameClient(cfg.GameServiceURL)

	// --- 6. Initialize Business Logic Services ---
	accountService := service.NewAccountService(accountStore, archiveStore, cfg.TransferFeeRate)
	teamService := service.NewTeamService(teamStore, gameClient)
	marketService := service.NewMarketService(marketStore)

	// --- 7. Initialize API Handlers ---
	economyAPIHandlers := economyapi.NewEconomyAPIHandlers(accountService, teamService, marketService)

	// --- 8. Initialize and Start Service Registrar ---
	registrar := registry.NewServiceRegistrar(redisClient, "economy-service", &cfg.CommonConfig)
	go registrar.Start()
	defer registrar.Stop()

	// --- 9. Start the Ledger Archiver ---
	registryClient := registry.NewRegistryClient(redisClient, cfg.HeartbeatTTL)
	ledgerArchiver := archiver.NewLedgerArchiver(cfg, kvStore, archiveStore, gameClient, registryClient, registrar)
	go ledgerArchiver.Start()
	defer ledgerArchiver.Stop()

	// --- 10. Setup HTTP Server and Register Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	economyAPIHandlers.RegisterRoutes(baseServer.Router)

	// --- 11. Start HTTP Server ---
	go func() {
		log.Printf("HTTP server starting on %s...", cfg.ListenAddr)
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// --- 12. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("Server gracefully stopped.")
}
