package pipeline

import (
	"context"
	"strings"

	"github.com/kevinmichaelchen/repo-summary/internal/models"
	"github.com/rs/zerolog"
)

type SummaryStore interface {
	Record(ctx context.Context, report *models.Report, embedding []float32) error
}

type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// Archive records reports in a store, embedding the summary first when an
// Embedder is set. A failed embedding still stores the report.
type Archive struct {
	Store    SummaryStore
	Embedder Embedder
}

func (a *Archive) Record(ctx context.Context, report *models.Report) error {
	var vec []float32
	if a.Embedder != nil {
		v, err := a.Embedder.EmbedSingle(ctx, EmbeddingText(report))
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("embedding summary failed")
		} else {
			vec = v
		}
	}
	return a.Store.Record(ctx, report, vec)
}

// EmbeddingText is the text a stored summary is embedded from.
func EmbeddingText(report *models.Report) string {
	var b strings.Builder
	b.WriteString(report.FullName())
	b.WriteString(": ")
	b.WriteString(report.Summary.Summary)
	if len(report.Summary.Technologies) > 0 {
		b.WriteString("\nTechnologies: ")
		b.WriteString(strings.Join(report.Summary.Technologies, ", "))
	}
	return b.String()
}
