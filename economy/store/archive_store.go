// economy/store/archive_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ArchivedTransaction is the MongoDB document for one ledger entry. Redis
// keeps only the hot window of 50 records per account; the archive keeps
// everything for audits and support tickets. The transaction id is the _id,
// which makes re-archiving the same window idempotent.
type ArchivedTransaction struct {
	ID               string    `bson:"_id"`
	PlayerUUID       string    `bson:"player_uuid"`
	Timestamp        time.Time `bson:"timestamp"`
	Kind             string    `bson:"kind"`
	Amount           int64     `bson:"amount"`
	ResultingBalance string    `bson:"resulting_balance"` // decimal string, same encoding as the KV store
	Description      string    `bson:"description,omitempty"`
	ArchivedAt       time.Time `bson:"archived_at"`
}

// ArchiveStore represents the MongoDB data store for the long-term ledger
// archive.
type ArchiveStore struct {
	collection *mongo.Collection
}

// NewArchiveStore creates a new ArchiveStore instance.
func NewArchiveStore(collection *mongo.Collection) *ArchiveStore {
	return &ArchiveStore{
		collection: collection,
	}
}

// ArchiveTransactions copies a player's history window into the archive.
// Entries already archived are skipped via duplicate-key detection, so the
// caller may hand over the full window every time. Returns how many new
// documents were written.
func (as *ArchiveStore) ArchiveTransactions(ctx context.Context, playerUUID string, history []models.Transaction) (int, error) {
	inserted := 0
	now := time.Now()
	for _, record := range history {
		doc := ArchivedTransaction{
			ID:               record.ID,
			PlayerUUID:       playerUUID,
			Timestamp:        record.Timestamp,
			Kind:             string(record.Kind),
			Amount:           record.Amount,
			ResultingBalance: record.ResultingBalance.String(),
			Description:      record.Description,
			ArchivedAt:       now,
		}
		_, err := as.collection.InsertOne(ctx, doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue // already archived on a previous pass
			}
			return inserted, fmt.Errorf("failed to archive transaction %s for player %s: %w", record.ID, playerUUID, err)
		}
		inserted++
	}
	return inserted, nil
}

// PlayerTransactions returns a player's archived ledger entries, newest
// first, capped at limit.
func (as *ArchiveStore) PlayerTransactions(ctx context.Context, playerUUID string, limit int64) ([]ArchivedTransaction, error) {
	filter := bson.M{"player_uuid": playerUUID}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	cursor, err := as.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive for player %s: %w", playerUUID, err)
	}
	defer cursor.Close(ctx)

	var docs []ArchivedTransaction
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode archive for player %s: %w", playerUUID, err)
	}
	return docs, nil
}
