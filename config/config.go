// Package config loads the YAML application configuration and converts it
// into the settings of each component.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/tmbridge/ai"
	"github.com/poiesic/tmbridge/bundle"
	"github.com/poiesic/tmbridge/search"
	"github.com/poiesic/tmbridge/websearch"
	"gopkg.in/yaml.v3"
)

// DatabaseConfig locates the catalog store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AIConfig configures embeddings and LLM candidate selection.
type AIConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Backend        string `yaml:"backend"`
	EmbeddingHost  string `yaml:"embedding_host"`
	EmbeddingModel string `yaml:"embedding_model"`
	SelectorHost   string `yaml:"selector_host"`
	SelectorModel  string `yaml:"selector_model"`
	APITokenEnv    string `yaml:"api_token_env"`
	MaxCandidates  int    `yaml:"max_candidates"`
}

// RetrievalConfig holds the cascade thresholds.
type RetrievalConfig struct {
	LexicalThreshold  float64 `yaml:"lexical_threshold"`
	SemanticThreshold float64 `yaml:"semantic_threshold"`
	MaxEdits          int     `yaml:"max_edits"`
	TopK              int     `yaml:"top_k"`
	SelectionBoost    bool    `yaml:"selection_boost"`
	DisableSemantic   bool    `yaml:"disable_semantic"`
	DisableFuzzy      bool    `yaml:"disable_fuzzy"`
}

// ExternalConfig configures the web search fallback. Credentials are read
// from the named environment variables.
type ExternalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	APIKeyEnv   string `yaml:"api_key_env"`
	EngineIDEnv string `yaml:"engine_id_env"`
	ResultCount int    `yaml:"result_count"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// BuildConfig configures bundle embedding.
type BuildConfig struct {
	BatchSize      int `yaml:"batch_size"`
	Workers        int `yaml:"workers"`
	MaxRetries     int `yaml:"max_retries"`
	RetryDelayMS   int `yaml:"retry_delay_ms"`
	ReportInterval int `yaml:"report_interval"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Database  DatabaseConfig  `yaml:"database"`
	AI        AIConfig        `yaml:"ai"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	External  ExternalConfig  `yaml:"external"`
	Build     BuildConfig     `yaml:"build"`
}

// Default returns the configuration used when no file exists.
func Default() *AppConfig {
	aiDefaults := ai.DefaultConfig()
	policy := search.DefaultPolicy()
	build := bundle.DefaultBuildConfig()

	return &AppConfig{
		Database: DatabaseConfig{Path: "tmbridge.db"},
		AI: AIConfig{
			Backend:        aiDefaults.Backend,
			EmbeddingHost:  aiDefaults.EmbeddingHost,
			EmbeddingModel: aiDefaults.EmbeddingModel,
			SelectorHost:   aiDefaults.SelectorHost,
			SelectorModel:  aiDefaults.SelectorModel,
			APITokenEnv:    "TMBRIDGE_API_TOKEN",
			MaxCandidates:  aiDefaults.MaxCandidates,
		},
		Retrieval: RetrievalConfig{
			LexicalThreshold:  policy.LexicalThreshold,
			SemanticThreshold: policy.SemanticThreshold,
			MaxEdits:          policy.MaxEdits,
			TopK:              policy.TopK,
		},
		External: ExternalConfig{
			Endpoint:    websearch.DefaultGoogleEndpoint,
			APIKeyEnv:   "GOOGLE_API_KEY",
			EngineIDEnv: "GOOGLE_SEARCH_ENGINE_ID",
			ResultCount: 5,
			TimeoutSecs: int(policy.ExternalTimeout / time.Second),
		},
		Build: BuildConfig{
			BatchSize:      build.BatchSize,
			Workers:        build.Workers,
			MaxRetries:     build.MaxRetries,
			RetryDelayMS:   int(build.RetryDelay / time.Millisecond),
			ReportInterval: build.ReportInterval,
		},
	}
}

// Load reads a config from path over the defaults. Keys missing from the
// file keep their default value. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks every section that is in use.
func (c *AppConfig) Validate() error {
	if c.Database.Path == "" {
		return errors.New("config: database.path is required")
	}
	if err := c.Policy().Validate(); err != nil {
		return err
	}
	if c.AI.Enabled {
		if err := c.AIConfig().Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AIConfig converts the ai section. The API token is read from the
// environment variable named by api_token_env.
func (c *AppConfig) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithBackend(c.AI.Backend),
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithSelectorHost(c.AI.SelectorHost),
		ai.WithSelectorModel(c.AI.SelectorModel),
		ai.WithMaxCandidates(c.AI.MaxCandidates),
	}
	if c.AI.APITokenEnv != "" {
		opts = append(opts, ai.WithAPIToken(os.Getenv(c.AI.APITokenEnv)))
	}
	return ai.NewConfig(opts...)
}

// Policy converts the retrieval section. The external tier is enabled only
// when the external section is.
func (c *AppConfig) Policy() search.Policy {
	p := search.DefaultPolicy()
	p.LexicalThreshold = c.Retrieval.LexicalThreshold
	p.SemanticThreshold = c.Retrieval.SemanticThreshold
	p.MaxEdits = c.Retrieval.MaxEdits
	p.TopK = c.Retrieval.TopK
	p.EnableSemantic = !c.Retrieval.DisableSemantic
	p.EnableFuzzy = !c.Retrieval.DisableFuzzy
	p.EnableExternal = c.External.Enabled
	if c.External.TimeoutSecs > 0 {
		p.ExternalTimeout = time.Duration(c.External.TimeoutSecs) * time.Second
	}
	return p
}

// BuildConfig converts the build section.
func (c *AppConfig) BuildConfig() *bundle.BuildConfig {
	return &bundle.BuildConfig{
		BatchSize:      c.Build.BatchSize,
		Workers:        c.Build.Workers,
		MaxRetries:     c.Build.MaxRetries,
		RetryDelay:     time.Duration(c.Build.RetryDelayMS) * time.Millisecond,
		ReportInterval: c.Build.ReportInterval,
	}
}

// ExternalSearcher builds the web search client, or returns nil when the
// external tier is disabled. Missing credentials give
// websearch.ErrCredentialsRequired.
func (c *AppConfig) ExternalSearcher() (websearch.Searcher, error) {
	if !c.External.Enabled {
		return nil, nil
	}

	opts := []websearch.GoogleOption{websearch.WithResultCount(c.External.ResultCount)}
	if c.External.Endpoint != "" {
		opts = append(opts, websearch.WithEndpoint(c.External.Endpoint))
	}

	g, err := websearch.NewGoogle(os.Getenv(c.External.APIKeyEnv), os.Getenv(c.External.EngineIDEnv), opts...)
	if err != nil {
		return nil, err
	}
	return g, nil
}
