package pipeline

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/kevinmichaelchen/repo-summary/internal/config"
	"github.com/kevinmichaelchen/repo-summary/internal/github"
	"github.com/kevinmichaelchen/repo-summary/internal/llm"
	"github.com/kevinmichaelchen/repo-summary/internal/models"
	"github.com/kevinmichaelchen/repo-summary/internal/repoctx"
	"github.com/rs/zerolog"
)

// MaxContextFiles caps how many selected files are fetched and read.
const MaxContextFiles = 15

type Gateway interface {
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)
	Tree(ctx context.Context, owner, repo, branch string) ([]models.TreeEntry, error)
	FileContent(ctx context.Context, owner, repo, path string) (string, error)
	FetchFiles(ctx context.Context, owner, repo string, paths []string) map[string]string
}

type Selector interface {
	SelectFiles(ctx context.Context, dirTree, readme string, maxFiles int) ([]string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, repoContext string) (*models.SummaryResult, error)
}

// Model is a backend that can do both model calls.
type Model interface {
	Selector
	Summarizer
}

// Recorder receives every successful report. Its errors are logged only.
type Recorder interface {
	Record(ctx context.Context, report *models.Report) error
}

// Pipeline turns a repository URL into a summary report.
type Pipeline struct {
	GitHub     Gateway
	Selector   Selector
	Summarizer Summarizer
	Recorder   Recorder

	Rules   repoctx.Rules
	Budgets config.Context
}

// New wires a pipeline from config. rec may be nil.
func New(cfg *config.Config, gh Gateway, model Model, rec Recorder) *Pipeline {
	return &Pipeline{
		GitHub:     gh,
		Selector:   model,
		Summarizer: model,
		Recorder:   rec,
		Rules:      repoctx.NewRules(cfg.Filter.SkipDirs, cfg.Filter.SkipExtensions, cfg.Filter.SkipFilenames),
		Budgets:    cfg.Context,
	}
}

// Run summarizes the repository at githubURL. URL validation happens before
// any network call.
func (p *Pipeline) Run(ctx context.Context, githubURL string) (*models.Report, error) {
	owner, repo, err := github.ParseURL(githubURL)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("repo", owner+"/"+repo).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Msg("summarizing repository")

	branch, err := p.GitHub.DefaultBranch(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	tree, err := p.GitHub.Tree(ctx, owner, repo, branch)
	if err != nil {
		return nil, err
	}
	if len(tree) == 0 {
		return nil, github.NewError(http.StatusBadRequest, "Repository is empty")
	}

	filtered := repoctx.FilterTree(tree, p.Rules)
	logger.Info().Int("entries", len(tree)).Int("filtered", len(filtered)).Msg("fetched tree")

	readmePath, hasReadme := repoctx.FindReadme(filtered)
	var readme string
	if hasReadme {
		readme, err = p.GitHub.FileContent(ctx, owner, repo, readmePath)
		if err != nil {
			return nil, err
		}
	}

	paths, err := p.selectFiles(ctx, filtered, readme)
	if err != nil {
		return nil, err
	}

	toFetch := make([]string, 0, len(paths))
	for _, path := range paths {
		if !hasReadme || path != readmePath {
			toFetch = append(toFetch, path)
		}
	}
	contents := p.GitHub.FetchFiles(ctx, owner, repo, toFetch)

	// Fetched files keep selection order; a selected README goes last.
	files := make([]repoctx.File, 0, len(paths))
	for _, path := range toFetch {
		if content, ok := contents[path]; ok {
			files = append(files, repoctx.File{Path: path, Content: content})
		}
	}
	if hasReadme && len(toFetch) < len(paths) {
		files = append(files, repoctx.File{Path: readmePath, Content: readme})
	}

	built, included := repoctx.AssembleContext(files, p.Budgets.Budget, p.Budgets.MaxFileSize)
	contextChars := utf8.RuneCountInString(built)
	logger.Info().Int("fetched", len(files)).Int("included", len(included)).Int("chars", contextChars).Msg("built context")

	start := time.Now()
	summary, err := p.Summarizer.Summarize(ctx, built)
	if err != nil {
		return nil, err
	}
	logger.Info().Dur("elapsed", time.Since(start)).Msg("summary generated")

	report := &models.Report{
		Owner:        owner,
		Repo:         repo,
		Branch:       branch,
		Files:        included,
		ContextChars: contextChars,
		Summary:      *summary,
	}

	if p.Recorder != nil {
		if err := p.Recorder.Record(ctx, report); err != nil {
			logger.Warn().Err(err).Msg("recording summary failed")
		}
	}
	return report, nil
}

// selectFiles asks the selector for paths and keeps, in order, the first
// MaxContextFiles that exist in the filtered tree.
func (p *Pipeline) selectFiles(ctx context.Context, filtered []models.TreeEntry, readme string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	dirTree := repoctx.FormatDirectoryTree(filtered, repoctx.DefaultTreeSize)
	excerpt := repoctx.TruncateWithMarker(readme, p.Budgets.MaxReadmeForSelection)
	logger.Info().
		Int("tree_chars", utf8.RuneCountInString(dirTree)).
		Int("readme_chars", utf8.RuneCountInString(excerpt)).
		Msg("selecting files")

	start := time.Now()
	selected, err := p.Selector.SelectFiles(ctx, dirTree, excerpt, llm.DefaultMaxFiles)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(filtered))
	for _, e := range filtered {
		known[e.Path] = true
	}

	seen := make(map[string]bool, len(selected))
	var valid []string
	for _, path := range selected {
		if !known[path] {
			logger.Debug().Str("path", path).Msg("selector returned unknown path")
			continue
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		valid = append(valid, path)
	}
	total := len(valid)
	if len(valid) > MaxContextFiles {
		valid = valid[:MaxContextFiles]
	}

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("selected", len(selected)).
		Int("valid", total).
		Int("using", len(valid)).
		Msg("file selection completed")
	return valid, nil
}
