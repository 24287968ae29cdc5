package surrealdb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kevinmichaelchen/repo-summary/internal/config"
	"github.com/kevinmichaelchen/repo-summary/internal/models"
	sdk "github.com/surrealdb/surrealdb.go"
)

// Client is the summary archive.
type Client struct {
	db *sdk.DB
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	db, err := sdk.FromEndpointURLString(ctx, cfg.SurrealURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, sdk.Auth{
		Namespace: cfg.SurrealNS,
		Database:  cfg.SurrealDB,
		Username:  cfg.SurrealUser,
		Password:  cfg.SurrealPass,
	}); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("signing in: %w", err)
	}

	if err := db.Use(ctx, cfg.SurrealNS, cfg.SurrealDB); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("selecting ns/db: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close(ctx)
}

const schema = `
DEFINE TABLE IF NOT EXISTS summary SCHEMAFULL;

DEFINE FIELD IF NOT EXISTS owner         ON TABLE summary TYPE string;
DEFINE FIELD IF NOT EXISTS name          ON TABLE summary TYPE string;
DEFINE FIELD IF NOT EXISTS full_name     ON TABLE summary TYPE string;
DEFINE FIELD IF NOT EXISTS url           ON TABLE summary TYPE string;
DEFINE FIELD IF NOT EXISTS branch        ON TABLE summary TYPE string;
DEFINE FIELD IF NOT EXISTS summary       ON TABLE summary TYPE string;
DEFINE FIELD IF NOT EXISTS technologies  ON TABLE summary TYPE array<string>;
DEFINE FIELD IF NOT EXISTS structure     ON TABLE summary TYPE string;
DEFINE FIELD IF NOT EXISTS files         ON TABLE summary TYPE array<string>;
DEFINE FIELD IF NOT EXISTS context_chars ON TABLE summary TYPE int;
DEFINE FIELD IF NOT EXISTS embedding     ON TABLE summary TYPE option<array<float>>;
DEFINE FIELD IF NOT EXISTS summarized_at ON TABLE summary TYPE datetime;

DEFINE INDEX IF NOT EXISTS idx_full_name ON TABLE summary FIELDS full_name UNIQUE;
DEFINE INDEX IF NOT EXISTS idx_summarized_at ON TABLE summary FIELDS summarized_at;
`

func (c *Client) InitSchema(ctx context.Context) error {
	_, err := sdk.Query[any](ctx, c.db, schema, nil)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// RecordID is the archive key of a repository. GitHub names are
// case-insensitive, so the key is lower-cased.
func RecordID(owner, repo string) string {
	return strings.ToLower(owner + "__" + repo)
}

// Record replaces the stored summary of the report's repository. A nil
// embedding clears any previous one.
func (c *Client) Record(ctx context.Context, report *models.Report, embedding []float32) error {
	_, err := sdk.Query[any](ctx, c.db,
		`UPSERT type::thing("summary", $id) CONTENT $data`,
		map[string]any{
			"id":   RecordID(report.Owner, report.Repo),
			"data": recordData(report, embedding, time.Now().UTC()),
		})
	if err != nil {
		return fmt.Errorf("recording %s: %w", report.FullName(), err)
	}
	return nil
}

// recordData leaves out the embedding key entirely when there is none, since
// CBOR NULL is not NONE to SurrealDB.
func recordData(r *models.Report, embedding []float32, now time.Time) map[string]any {
	technologies := r.Summary.Technologies
	if technologies == nil {
		technologies = []string{}
	}
	files := r.Files
	if files == nil {
		files = []string{}
	}
	data := map[string]any{
		"owner":         r.Owner,
		"name":          r.Repo,
		"full_name":     r.FullName(),
		"url":           r.URL(),
		"branch":        r.Branch,
		"summary":       r.Summary.Summary,
		"technologies":  technologies,
		"structure":     r.Summary.Structure,
		"files":         files,
		"context_chars": r.ContextChars,
		"summarized_at": now,
	}
	if len(embedding) > 0 {
		data["embedding"] = embedding
	}
	return data
}

// Recent returns the most recently summarized repositories, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]models.ArchivedSummary, error) {
	query := fmt.Sprintf(`
		SELECT full_name, url, branch, summary, technologies, structure, files,
			context_chars, <string> summarized_at AS summarized_at
		FROM summary
		ORDER BY summarized_at DESC
		LIMIT %d
	`, limit)

	results, err := sdk.Query[[]models.ArchivedSummary](ctx, c.db, query, nil)
	if err != nil {
		return nil, fmt.Errorf("querying recent summaries: %w", err)
	}
	if len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

func (c *Client) VectorSearch(ctx context.Context, queryVec []float32, k int) ([]models.SearchResult, error) {
	// Brute-force cosine similarity. Embedding dimensions depend on the
	// configured model, so there is no fixed-dimension HNSW index.
	query := fmt.Sprintf(`
		SELECT full_name, url, summary, technologies,
			vector::similarity::cosine(embedding, $query_vec) AS score
		FROM summary
		WHERE embedding IS NOT NONE AND array::len(embedding) = $dim
		ORDER BY score DESC
		LIMIT %d
	`, k)

	results, err := sdk.Query[[]models.SearchResult](ctx, c.db, query,
		map[string]any{"query_vec": queryVec, "dim": len(queryVec)})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

type Stats struct {
	Total    int
	Embedded int
}

func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	results, err := sdk.Query[[]map[string]any](ctx, c.db,
		`SELECT
			count() AS total,
			math::sum(IF embedding IS NOT NONE THEN 1 ELSE 0 END) AS embedded
		FROM summary GROUP ALL`,
		nil)
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	if len(*results) == 0 || len((*results)[0].Result) == 0 {
		return &Stats{}, nil
	}
	row := (*results)[0].Result[0]
	return &Stats{
		Total:    toInt(row["total"]),
		Embedded: toInt(row["embedded"]),
	}, nil
}

type TechnologyCount struct {
	Technology string
	Count      int
}

// GetTechnologyBreakdown counts how many archived repositories use each
// technology, most common first.
func (c *Client) GetTechnologyBreakdown(ctx context.Context) ([]TechnologyCount, error) {
	results, err := sdk.Query[[]models.ArchivedSummary](ctx, c.db,
		`SELECT technologies FROM summary`, nil)
	if err != nil {
		return nil, fmt.Errorf("getting technologies: %w", err)
	}
	if len(*results) == 0 {
		return nil, nil
	}
	return countTechnologies((*results)[0].Result), nil
}

// countTechnologies merges names case-insensitively, keeping the first
// spelling seen. Ties sort by name.
func countTechnologies(rows []models.ArchivedSummary) []TechnologyCount {
	index := map[string]int{}
	var out []TechnologyCount
	for _, r := range rows {
		seen := map[string]bool{}
		for _, tech := range r.Technologies {
			tech = strings.TrimSpace(tech)
			key := strings.ToLower(tech)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			if i, ok := index[key]; ok {
				out[i].Count++
				continue
			}
			index[key] = len(out)
			out = append(out, TechnologyCount{Technology: tech, Count: 1})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Technology < out[j].Technology
	})
	return out
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	default:
		return 0
	}
}
