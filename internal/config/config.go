package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "repo-summary.yml"

type Config struct {
	Addr string `yaml:"addr"`

	SurrealURL  string `yaml:"-"`
	SurrealNS   string `yaml:"-"`
	SurrealDB   string `yaml:"-"`
	SurrealUser string `yaml:"-"`
	SurrealPass string `yaml:"-"`

	GitHubToken  string `yaml:"-"`
	GitHubAPIURL string `yaml:"github_api_url"`

	LLMBaseURL         string `yaml:"llm_base_url"`
	LLMAPIKey          string `yaml:"-"`
	LLMModel           string `yaml:"llm_model"`
	FileSelectionModel string `yaml:"file_selection_model"`

	EmbeddingBaseURL string `yaml:"embedding_base_url"`
	EmbeddingAPIKey  string `yaml:"-"`
	EmbeddingModel   string `yaml:"embedding_model"`

	Context Context `yaml:"context"`
	Filter  Filter  `yaml:"filter"`
	Logging Logging `yaml:"logging"`
}

// Context holds the character budgets used while assembling model input.
type Context struct {
	Budget                int `yaml:"budget"`
	MaxFileSize           int `yaml:"max_file_size"`
	MaxReadmeForSelection int `yaml:"max_readme_for_selection"`
}

// Filter lists extra tree exclusions merged into the built-in sets.
type Filter struct {
	SkipDirs       []string `yaml:"skip_dirs"`
	SkipExtensions []string `yaml:"skip_extensions"`
	SkipFilenames  []string `yaml:"skip_filenames"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds config from defaults, the optional YAML file, and the
// environment (including a .env file), in that order of precedence.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:               ":8000",
		GitHubAPIURL:       "https://api.github.com",
		LLMBaseURL:         "https://api.studio.nebius.com/v1",
		LLMModel:           "moonshotai/Kimi-K2.5",
		FileSelectionModel: "meta-llama/Llama-3.3-70B-Instruct-fast",
		Context: Context{
			Budget:                75_000,
			MaxFileSize:           15_000,
			MaxReadmeForSelection: 10_000,
		},
		Logging: Logging{Level: "info", Format: "console"},
	}

	path := os.Getenv("REPO_SUMMARY_CONFIG")
	if path == "" {
		path = defaultConfigFile
	}
	if b, err := os.ReadFile(path); err == nil {
		_ = yaml.Unmarshal(b, cfg)
	}

	setString(&cfg.Addr, "ADDR")

	cfg.SurrealURL = os.Getenv("SURREAL_URL")
	cfg.SurrealNS = os.Getenv("SURREAL_NS")
	cfg.SurrealDB = os.Getenv("SURREAL_DB")
	cfg.SurrealUser = os.Getenv("SURREAL_USER")
	cfg.SurrealPass = os.Getenv("SURREAL_PASS")

	cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	setString(&cfg.GitHubAPIURL, "GITHUB_API_URL")

	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("NEBIUS_API_KEY")
	}
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.FileSelectionModel, "FILE_SELECTION_MODEL")

	setString(&cfg.EmbeddingBaseURL, "EMBEDDING_BASE_URL")
	setString(&cfg.EmbeddingModel, "EMBEDDING_MODEL")
	cfg.EmbeddingAPIKey = os.Getenv("EMBEDDING_API_KEY")
	if cfg.EmbeddingBaseURL == "" {
		cfg.EmbeddingBaseURL = cfg.LLMBaseURL
	}
	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = cfg.LLMAPIKey
	}

	setInt(&cfg.Context.Budget, "CONTEXT_BUDGET")
	setInt(&cfg.Context.MaxFileSize, "MAX_FILE_SIZE")
	setInt(&cfg.Context.MaxReadmeForSelection, "MAX_README_FOR_SELECTION")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")

	// The SDK appends /rpc automatically
	cfg.SurrealURL = strings.TrimSuffix(cfg.SurrealURL, "/rpc")
	cfg.SurrealURL = strings.TrimSuffix(cfg.SurrealURL, "/")

	return cfg
}

// ArchiveEnabled reports whether summaries should be recorded in SurrealDB.
func (c *Config) ArchiveEnabled() bool {
	return c.SurrealURL != ""
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		*dst = n
	}
}
