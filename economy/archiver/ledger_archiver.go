// economy/archiver/ledger_archiver.go
package archiver

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/Ftotnem/ECONOMY-SERVICES/economy/store"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/cluster"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/config"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/kv"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/registry"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/service"
)

// LedgerArchiver periodically copies the bounded on-ledger transaction
// histories into MongoDB for long-term storage, and re-registers known teams
// on the game scoreboard in case a creation-time notification was lost.
// It uses ServiceAssignmentManager so only one instance in the cluster
// performs these global tasks. Archiving never mutates the ledger; the
// ledger's own history window stays authoritative for recent activity.
type LedgerArchiver struct {
	config            *config.EconomyServiceConfig
	kvStore           kv.Store
	archiveStore      *store.ArchiveStore
	gameClient        *service.GameServiceClient
	assignmentManager *cluster.ServiceAssignmentManager
	ctx               context.Context
	cancel            context.CancelFunc
}

// NewLedgerArchiver creates a new LedgerArchiver instance.
// archiveStore may be nil when the service runs without MongoDB; the archive
// pass is then skipped but scoreboard reconciliation still runs. gameClient
// may be nil, in which case scoreboard reconciliation is skipped.
func NewLedgerArchiver(
	cfg *config.EconomyServiceConfig,
	kvStore kv.Store,
	archiveStore *store.ArchiveStore,
	gameClient *service.GameServiceClient,
	registryClient *registry.RegistryClient,
	serviceRegistrar *registry.ServiceRegistrar,
) *LedgerArchiver {
	log.Println("LedgerArchiver: Initializing.")
	ctx, cancel := context.WithCancel(context.Background())

	// The assignment manager elects a leader for the global archive task.
	assignmentManager := cluster.NewServiceAssignmentManager(
		registryClient,
		serviceRegistrar,
		cfg.HeartbeatInterval,
	)

	return &LedgerArchiver{
		config:            cfg,
		kvStore:           kvStore,
		archiveStore:      archiveStore,
		gameClient:        gameClient,
		assignmentManager: assignmentManager,
		ctx:               ctx,
		cancel:            cancel,
	}
}

// Start initiates the archive loop. This should be run in a goroutine.
func (la *LedgerArchiver) Start() {
	log.Printf("Ledger Archiver starting with interval: %v", la.config.ArchiveInterval)
	ticker := time.NewTicker(la.config.ArchiveInterval)
	defer ticker.Stop()

	go la.assignmentManager.Start()

	for {
		select {
		case <-la.ctx.Done():
			log.Println("Ledger Archiver shutting down.")
			la.assignmentManager.Stop()
			return
		case <-ticker.C:
			la.performGlobalArchive()
		}
	}
}

// Stop gracefully stops the archive loop.
func (la *LedgerArchiver) Stop() {
	la.cancel()
}

// performGlobalArchive copies every player's on-ledger history into MongoDB.
// Only the cluster leader (determined by assignmentManager for a fixed key)
// performs this. Archived record IDs are the transaction IDs, so re-archiving
// the same window is a no-op.
func (la *LedgerArchiver) performGlobalArchive() {
	const globalArchiveTaskKey = "global_ledger_archive_task"

	isLeader, err := la.assignmentManager.IsResponsible(globalArchiveTaskKey)
	if err != nil {
		log.Printf("ERROR: LedgerArchiver: Failed to check leadership for task '%s': %v", globalArchiveTaskKey, err)
		return
	}
	if !isLeader {
		return
	}

	log.Printf("INFO: This instance is the leader for ledger archiving. Scanning ledgers.")

	archiveCtx, cancel := context.WithTimeout(la.ctx, la.config.ArchiveTimeout)
	defer cancel()

	la.archiveLedgers(archiveCtx)
	la.reconcileScoreboard(archiveCtx)
}

// archiveLedgers copies every player's history window into the Mongo
// archive. Skipped entirely when the service runs without MongoDB.
func (la *LedgerArchiver) archiveLedgers(archiveCtx context.Context) {
	if la.archiveStore == nil {
		return
	}

	var players, records int
	err := la.kvStore.Scan(archiveCtx, store.LedgerScanPrefix, func(key string, data []byte) error {
		playerUUID := store.ExtractKeyID(key)
		if playerUUID == "" {
			log.Printf("WARNING: LedgerArchiver: Skipping malformed ledger key %q", key)
			return nil
		}

		var history []models.Transaction
		if err := json.Unmarshal(data, &history); err != nil {
			log.Printf("WARNING: LedgerArchiver: Failed to decode ledger for player %s: %v", playerUUID, err)
			return nil
		}
		if len(history) == 0 {
			return nil
		}

		inserted, err := la.archiveStore.ArchiveTransactions(archiveCtx, playerUUID, history)
		if err != nil {
			log.Printf("ERROR: LedgerArchiver: Failed to archive transactions for player %s: %v", playerUUID, err)
			return nil // keep going, the next run retries this ledger
		}
		players++
		records += inserted
		return nil
	})
	if err != nil {
		log.Printf("ERROR: LedgerArchiver: Ledger scan aborted: %v", err)
	}
	log.Printf("INFO: LedgerArchiver: Archived %d new transactions across %d ledgers.", records, players)
}

// reconcileScoreboard re-registers every known team on the game scoreboard.
// Registration is idempotent on the game side, so this repairs teams whose
// creation-time notification was lost.
func (la *LedgerArchiver) reconcileScoreboard(ctx context.Context) {
	if la.gameClient == nil {
		return
	}

	var teams int
	err := la.kvStore.Scan(ctx, store.TeamScanPrefix, func(key string, data []byte) error {
		var team models.Team
		if err := json.Unmarshal(data, &team); err != nil {
			log.Printf("WARNING: LedgerArchiver: Failed to decode team record %q: %v", key, err)
			return nil
		}
		if err := la.gameClient.RegisterTeam(ctx, team.ID, team.Name); err != nil {
			log.Printf("WARN: LedgerArchiver: Failed to re-register team %s on scoreboard: %v", team.ID, err)
			return nil
		}
		teams++
		return nil
	})
	if err != nil {
		log.Printf("ERROR: LedgerArchiver: Team scan aborted: %v", err)
	}
	if teams > 0 {
		log.Printf("INFO: LedgerArchiver: Reconciled %d teams with the game scoreboard.", teams)
	}
}
