package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ticketwise-io/ticketwise/internal/similarity"
)

// EmbeddingRepository stores ticket vectors for similarity search.
type EmbeddingRepository struct {
	db *sqlx.DB
}

func NewEmbeddingRepository(db *sqlx.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// Save upserts the embedding for a ticket.
func (r *EmbeddingRepository) Save(ctx context.Context, ticketID string, vec []float32) error {
	if len(vec) != similarity.EmbeddingDimensions {
		return fmt.Errorf("embedding for %s has %d dimensions, want %d",
			ticketID, len(vec), similarity.EmbeddingDimensions)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO embeddings (ticket_id, embedding)
		VALUES ($1, $2::vector)
		ON CONFLICT (ticket_id) DO UPDATE SET embedding = EXCLUDED.embedding`,
		ticketID, similarity.VectorLiteral(vec))
	if err != nil {
		return fmt.Errorf("failed to save embedding for %s: %w", ticketID, err)
	}
	return nil
}
