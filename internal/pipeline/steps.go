package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/bankbuddy/internal/domain"
	"github.com/dvloznov/bankbuddy/internal/extract"
	"github.com/dvloznov/bankbuddy/internal/ledger"
	"github.com/dvloznov/bankbuddy/internal/redact"
)

// IngestStep is a single step in the statement ingestion pipeline.
type IngestStep interface {
	Execute(ctx context.Context, state *IngestState) error
}

// IngestState holds the shared state across all pipeline steps.
type IngestState struct {
	AccountID    int64
	RawText      string
	RedactedText string
	Draft        *extract.Draft
	Records      []*domain.Transaction
	NewIDs       []int64
	Skipped      int
}

// Step 1: RedactStep masks sensitive substrings before the text leaves the
// process. It cannot fail.
type RedactStep struct{}

func (s *RedactStep) Execute(ctx context.Context, state *IngestState) error {
	state.RedactedText = redact.Mask(state.RawText)
	return nil
}

// Step 2: ExtractStep calls the external model with the redacted text. Both
// failure modes (call failure, malformed payload) abort ingestion before any
// write happens.
type ExtractStep struct {
	Extractor extract.StatementExtractor
}

func (s *ExtractStep) Execute(ctx context.Context, state *IngestState) error {
	draft, err := s.Extractor.Extract(ctx, state.RedactedText)
	if err != nil {
		return err
	}
	state.Draft = draft
	return nil
}

// Step 3: NormalizeStep converts draft transactions into canonical records.
// A single invalid draft is skipped and logged; the rest of the batch
// continues. This is the one place partial success is allowed.
type NormalizeStep struct {
	Log zerolog.Logger
}

func (s *NormalizeStep) Execute(ctx context.Context, state *IngestState) error {
	now := time.Now().UTC()
	records := make([]*domain.Transaction, 0, len(state.Draft.Transactions))
	for i, raw := range state.Draft.Transactions {
		rec, err := ledger.NormalizeDraft(raw, state.AccountID, now)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidDraft) {
				s.Log.Warn().Err(err).Int("index", i).Msg("Skipping invalid transaction draft")
				state.Skipped++
				continue
			}
			return err
		}
		records = append(records, rec)
	}
	state.Records = records
	return nil
}

// Step 4: PersistStep merges the records and records the closing-balance
// snapshot inside one store transaction: either everything lands or the
// ledger is untouched.
type PersistStep struct {
	Store domain.Store
	Log   zerolog.Logger
}

func (s *PersistStep) Execute(ctx context.Context, state *IngestState) error {
	return s.Store.WithinTx(ctx, func(tx domain.Store) error {
		merger := ledger.NewMerger(tx, s.Log)
		ids, err := merger.MergeAll(ctx, state.Records)
		if err != nil {
			return err
		}
		state.NewIDs = ids

		if state.Draft.StatementDate == nil {
			return nil
		}
		tracker := ledger.NewBalanceTracker(tx)
		if _, err := tracker.RecordSnapshotFromString(ctx, state.AccountID, state.Draft.AccountBalance, *state.Draft.StatementDate); err != nil {
			return fmt.Errorf("recording balance snapshot: %w", err)
		}
		return nil
	})
}
