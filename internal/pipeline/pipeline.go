// Package pipeline orchestrates statement ingestion: redaction, extraction,
// normalization and the transactional merge, in that order. Redaction and
// extraction run strictly before any write, so an extraction failure leaves
// the ledger untouched.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/bankbuddy/internal/domain"
	"github.com/dvloznov/bankbuddy/internal/extract"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []IngestStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...IngestStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *IngestState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Ingestor is the statement ingestion entry point.
type Ingestor struct {
	store     domain.Store
	extractor extract.StatementExtractor
	log       zerolog.Logger
}

// NewIngestor wires an ingestor over the given store and extractor.
func NewIngestor(store domain.Store, extractor extract.StatementExtractor, log zerolog.Logger) *Ingestor {
	return &Ingestor{store: store, extractor: extractor, log: log}
}

// Ingest processes one statement's raw text for an account and returns the
// count of newly created transactions. Duplicates are skipped silently, so
// ingesting the same statement twice creates nothing the second time.
func (ing *Ingestor) Ingest(ctx context.Context, accountID int64, rawText string) (int, error) {
	if _, err := ing.store.Accounts().GetByID(ctx, accountID); err != nil {
		return 0, fmt.Errorf("Ingest: %w", err)
	}

	state := &IngestState{AccountID: accountID, RawText: rawText}
	p := NewPipeline(
		&RedactStep{},
		&ExtractStep{Extractor: ing.extractor},
		&NormalizeStep{Log: ing.log},
		&PersistStep{Store: ing.store, Log: ing.log},
	)
	if err := p.Execute(ctx, state); err != nil {
		return 0, err
	}

	ing.log.Info().
		Int64("account_id", accountID).
		Int("created", len(state.NewIDs)).
		Int("skipped_drafts", state.Skipped).
		Msg("Statement ingested")

	return len(state.NewIDs), nil
}
