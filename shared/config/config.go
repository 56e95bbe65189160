// shared/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// CommonConfig holds configuration fields that are shared across multiple services.
type CommonConfig struct {
	RedisAddrs              []string      // Redis server addresses (e.g., "redis:6379")
	RedisPassword           string        // Redis password for authentication
	HeartbeatInterval       time.Duration // How often to send a heartbeat to the registry (e.g., 5s)
	HeartbeatTTL            time.Duration // How long an instance is considered alive without a heartbeat (e.g., 15s)
	RegistryCleanupInterval time.Duration // How often the registry actively cleans stale entries (e.g., 30s)
	ServiceIP               string        // The IP address this service advertises for registration (Kubernetes Pod IP)
	ServicePort             int           // The port this service listens on, used for registration
}

// EconomyServiceConfig holds configuration specific to the economy-service.
type EconomyServiceConfig struct {
	CommonConfig                           // Embed CommonConfig
	ListenAddr               string        // Address for the HTTP server (e.g., ":8083")
	MongoDBConnStr           string        // MongoDB connection string (ledger archive)
	MongoDBDatabase          string        // MongoDB database name
	MongoDBArchiveCollection string        // MongoDB collection for archived transactions
	GameServiceURL           string        // URL of the game-service (team scoreboard registration)
	TransferFeeRate          float64       // Fee rate applied to player-to-player transfers (e.g., 0.05)
	TeamCreationFee          uint64        // Coins debited from the leader when a team is created
	TeamMaxMembers           int           // Default member cap for new teams
	InviteTTL                time.Duration // How long a team invite stays valid (e.g., 30m)
	TxMaxAttempts            int           // Retry budget for optimistic commits (suggested 3-5)
	ArchiveInterval          time.Duration // How often the ledger archiver runs (e.g., 5m)
	ArchiveTimeout           time.Duration // Timeout for one full archive pass (e.g., 60s)
}

// LoadCommonConfig loads common configuration from environment variables.
func LoadCommonConfig() (CommonConfig, error) {
	cfg := CommonConfig{}
	var err error

	redisAddrsStr := os.Getenv("REDIS_ADDRS")
	if redisAddrsStr == "" {
		cfg.RedisAddrs = []string{"redis.minecraft-cluster.svc.cluster.local:6379"} // Default for K8s Service
	} else {
		for _, addr := range strings.Split(redisAddrsStr, ",") {
			cfg.RedisAddrs = append(cfg.RedisAddrs, strings.TrimSpace(addr))
		}
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.HeartbeatInterval, err = getDuration("SERVICE_HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.HeartbeatTTL, err = getDuration("SERVICE_HEARTBEAT_TTL", 15*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.RegistryCleanupInterval, err = getDuration("SERVICE_REGISTRY_CLEANUP_INTERVAL", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	// Service IP (for registration, from Kubernetes Pod IP)
	cfg.ServiceIP = os.Getenv("POD_IP") // Injected by Kubernetes
	if cfg.ServiceIP == "" {
		// Fallback for local development outside K8s or if not injected
		cfg.ServiceIP = "0.0.0.0"
		fmt.Printf("WARNING: POD_IP not set, defaulting ServiceIP to %s\n", cfg.ServiceIP)
	}

	return cfg, nil
}

// LoadEconomyServiceConfig loads configuration for the economy-service.
func LoadEconomyServiceConfig() (*EconomyServiceConfig, error) {
	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for economy-service: %w", err)
	}

	cfg := &EconomyServiceConfig{
		CommonConfig:             common,
		ListenAddr:               os.Getenv("ECONOMY_SERVICE_LISTEN_ADDR"),
		MongoDBConnStr:           os.Getenv("MONGODB_CONN_STR"),
		MongoDBDatabase:          os.Getenv("MONGODB_DATABASE"),
		MongoDBArchiveCollection: os.Getenv("MONGODB_ARCHIVE_COLLECTION"),
		GameServiceURL:           os.Getenv("GAME_SERVICE_URL"),
	}

	// Apply defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8083"
	}
	if cfg.MongoDBConnStr == "" {
		cfg.MongoDBConnStr = "mongodb://mongodb-service:27017" // Default for K8s internal DNS
	}
	if cfg.MongoDBDatabase == "" {
		cfg.MongoDBDatabase = "minestom"
	}
	if cfg.MongoDBArchiveCollection == "" {
		cfg.MongoDBArchiveCollection = "ledger_archive"
	}
	if cfg.GameServiceURL == "" {
		cfg.GameServiceURL = "http://game-service:8082"
	}

	cfg.TransferFeeRate, err = getFloat("ECONOMY_TRANSFER_FEE_RATE", 0.05)
	if err != nil {
		return nil, err
	}
	if cfg.TransferFeeRate < 0 || cfg.TransferFeeRate >= 1 {
		return nil, fmt.Errorf("ECONOMY_TRANSFER_FEE_RATE must be in [0,1) (got %f)", cfg.TransferFeeRate)
	}

	teamFee, err := getInt("ECONOMY_TEAM_CREATION_FEE", 500)
	if err != nil {
		return nil, err
	}
	if teamFee < 0 {
		return nil, fmt.Errorf("ECONOMY_TEAM_CREATION_FEE must be non-negative (got %d)", teamFee)
	}
	cfg.TeamCreationFee = uint64(teamFee)

	cfg.TeamMaxMembers, err = getInt("ECONOMY_TEAM_MAX_MEMBERS", 10)
	if err != nil {
		return nil, err
	}
	if cfg.TeamMaxMembers < 1 {
		return nil, fmt.Errorf("ECONOMY_TEAM_MAX_MEMBERS must be positive (got %d)", cfg.TeamMaxMembers)
	}

	cfg.InviteTTL, err = getDuration("ECONOMY_INVITE_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.TxMaxAttempts, err = getInt("ECONOMY_TX_MAX_ATTEMPTS", 4)
	if err != nil {
		return nil, err
	}
	cfg.ArchiveInterval, err = getDuration("ECONOMY_ARCHIVE_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.ArchiveTimeout, err = getDuration("ECONOMY_ARCHIVE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	// Extract ServicePort from ListenAddr
	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from ECONOMY_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}

	return cfg, nil
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// Helper function to parse int from environment variable
func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

// Helper function to parse float from environment variable
func getFloat(envKey string, defaultVal float64) (float64, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float format for %s: %w", envKey, err)
	}
	return f, nil
}

// extractPort extracts the numeric port from a listen address (e.g., ":8083" -> 8083, "0.0.0.0:8083" -> 8083)
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		// If SplitHostPort fails, check if ListenAddr is just a port (e.g., ":8083")
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid ListenAddr format for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}
