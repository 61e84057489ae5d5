// Package backup exports the full ledger to Google Cloud Storage on a fixed
// daily schedule. Backups run independently of request handling; a failed
// run is logged and never surfaced to a foreground caller.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

// Runner is anything the scheduler can fire.
type Runner interface {
	Run(ctx context.Context) error
}

// Exporter serializes the ledger and writes it to a GCS bucket.
type Exporter struct {
	store  domain.Store
	bucket string
	log    zerolog.Logger
}

// NewExporter creates an exporter targeting the given bucket.
func NewExporter(store domain.Store, bucket string, log zerolog.Logger) *Exporter {
	return &Exporter{store: store, bucket: bucket, log: log}
}

type export struct {
	RunID      string                    `json:"run_id"`
	ExportedAt time.Time                 `json:"exported_at"`
	Accounts   []*domain.Account         `json:"accounts"`
	Txns       []*domain.Transaction     `json:"transactions"`
	Snapshots  []*domain.BalanceSnapshot `json:"balance_snapshots"`
}

// Run writes one timestamped backup object. It assumes Application Default
// Credentials are configured.
func (e *Exporter) Run(ctx context.Context) error {
	runID := uuid.NewString()

	accounts, err := e.store.Accounts().List(ctx)
	if err != nil {
		return fmt.Errorf("backup.Run: listing accounts: %w", err)
	}
	txns, err := e.store.Transactions().ListAll(ctx)
	if err != nil {
		return fmt.Errorf("backup.Run: listing transactions: %w", err)
	}
	snapshots := make([]*domain.BalanceSnapshot, 0)
	for _, a := range accounts {
		snaps, err := e.store.Balances().ListByAccount(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("backup.Run: listing snapshots for account %d: %w", a.ID, err)
		}
		snapshots = append(snapshots, snaps...)
	}

	payload, err := json.Marshal(export{
		RunID:      runID,
		ExportedAt: time.Now().UTC(),
		Accounts:   accounts,
		Txns:       txns,
		Snapshots:  snapshots,
	})
	if err != nil {
		return fmt.Errorf("backup.Run: marshal export: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("backup.Run: create storage client: %w", err)
	}
	defer client.Close()

	objectName := fmt.Sprintf("backups/bankbuddy_backup_%s.json", time.Now().UTC().Format("20060102_150405"))

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(e.bucket).Object(objectName).NewWriter(ctx)
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return fmt.Errorf("backup.Run: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("backup.Run: finalize upload: %w", err)
	}

	e.log.Info().
		Str("run_id", runID).
		Str("object", objectName).
		Int("accounts", len(accounts)).
		Int("transactions", len(txns)).
		Msg("Backup created")
	return nil
}
