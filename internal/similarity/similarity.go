// Package similarity finds historically resolved tickets that look like
// a new one, via pgvector cosine search over stored embeddings.
package similarity

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

// Provider returns the similar-ticket set the engine scores against.
type Provider interface {
	FindSimilar(ctx context.Context, ticket models.Ticket) ([]models.SimilarTicket, error)
}

// Embedder turns ticket text into a vector. Implemented by the Gemini
// embedder; tests stub it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PGVectorProvider searches historical tickets by cosine similarity.
type PGVectorProvider struct {
	db       *sqlx.DB
	embedder Embedder
	topK     int
	floor    float64
	logger   *log.Logger
}

func NewPGVectorProvider(db *sqlx.DB, embedder Embedder, topK int, floor float64, logger *log.Logger) *PGVectorProvider {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PGVectorProvider{db: db, embedder: embedder, topK: topK, floor: floor, logger: logger}
}

type similarRow struct {
	Similarity    float64   `db:"similarity"`
	AssigneeEmail string    `db:"assignee_email"`
	Priority      string    `db:"priority"`
	ResolvedAt    time.Time `db:"resolved_at"`
}

// FindSimilar embeds the ticket text and returns the top-K historical
// tickets above the similarity floor, most similar first. The assignee
// email lives on the historical row itself, so matches survive team
// member deletion.
func (p *PGVectorProvider) FindSimilar(ctx context.Context, ticket models.Ticket) ([]models.SimilarTicket, error) {
	vec, err := p.embedder.Embed(ctx, ticket.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to embed ticket text: %w", err)
	}
	return p.FindSimilarByVector(ctx, vec)
}

// FindSimilarByVector searches with an already-computed embedding. The
// worker uses this to share one embedding between storage and search.
func (p *PGVectorProvider) FindSimilarByVector(ctx context.Context, vec []float32) ([]models.SimilarTicket, error) {
	var rows []similarRow
	err := p.db.SelectContext(ctx, &rows, `
		SELECT 1 - (e.embedding <=> $1::vector) AS similarity,
		       h.assignee_email,
		       h.priority,
		       h.resolved_at
		FROM embeddings e
		JOIN historical_tickets h ON h.snow_id = e.ticket_id
		WHERE 1 - (e.embedding <=> $1::vector) >= $2
		ORDER BY e.embedding <=> $1::vector
		LIMIT $3`,
		VectorLiteral(vec), p.floor, p.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar tickets: %w", err)
	}

	out := make([]models.SimilarTicket, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.SimilarTicket{
			SimilarityScore: r.Similarity,
			AssigneeEmail:   r.AssigneeEmail,
			Priority:        models.ParsePriority(r.Priority),
			ResolvedAt:      r.ResolvedAt,
		})
	}
	return out, nil
}

// VectorLiteral renders a float32 slice as the pgvector input format
// "[v1,v2,...]".
func VectorLiteral(vec []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
