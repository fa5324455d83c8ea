package model

import "time"

// Config is the full configuration surface consumed by the engine.
// Hierarchy (highest to lowest priority): CLI flags, ANAMNESIS_* environment
// variables, config file (~/.anamnesis/config.yaml), defaults.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Sections  SectionConfig   `yaml:"sections" mapstructure:"sections"`
	Verify    VerifyConfig    `yaml:"verify" mapstructure:"verify"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// StoreConfig locates the persistent evidence store.
type StoreConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"` // Badger database directory
}

// RetrievalConfig tunes the retrieval stages.
type RetrievalConfig struct {
	TopKGlobal      int     `yaml:"top_k_global" mapstructure:"top_k_global"`   // Per template query
	TopKLocal       int     `yaml:"top_k_local" mapstructure:"top_k_local"`     // Per derived sub-query
	Alpha           float64 `yaml:"alpha" mapstructure:"alpha"`                 // hybrid = alpha*lex + (1-alpha)*vec
	UseHybrid       bool    `yaml:"use_hybrid" mapstructure:"use_hybrid"`       // False = lexical-only degraded mode
	TemplateVersion string  `yaml:"template_version" mapstructure:"template_version"`
}

// SectionConfig holds the section-aware rerank policy. The exact magnitudes
// are tunable policy, not fixed law: they must stay monotonic and bounded.
type SectionConfig struct {
	PrefixBoost     float64 `yaml:"prefix_boost" mapstructure:"prefix_boost"`           // Multiplier for preferred id prefixes
	KeywordStep     float64 `yaml:"keyword_step" mapstructure:"keyword_step"`           // Per keyword hit, capped at KeywordCap hits
	KeywordCap      int     `yaml:"keyword_cap" mapstructure:"keyword_cap"`
	NumericBoost    float64 `yaml:"numeric_boost" mapstructure:"numeric_boost"`         // Objective section, >= 3 numbers in text
	ReferencePenalty float64 `yaml:"reference_penalty" mapstructure:"reference_penalty"` // Reference evidence under A, excluded from S/O entirely
}

// VerifyConfig tunes the verifier and the acceptance gate.
type VerifyConfig struct {
	AcceptThreshold float64 `yaml:"accept_threshold" mapstructure:"accept_threshold"` // Below this, discard generation output
	RepairEnabled   bool    `yaml:"repair_enabled" mapstructure:"repair_enabled"`     // One-shot citation-subset repair
}

// LLMConfig configures the external generation service.
type LLMConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" = disabled
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"-" mapstructure:"api_key"` // Never serialized
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	RateLimit float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second, 0 = unlimited
}

// EmbeddingConfig configures embedding computation for the vector index.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai or hash (offline deterministic)
	Model      string `yaml:"model" mapstructure:"model"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
	CacheDir   string `yaml:"cache_dir" mapstructure:"cache_dir"` // "" disables the disk layer
	Workers    int    `yaml:"workers" mapstructure:"workers"`     // Concurrent embedding batches
}

// OutputConfig controls CLI-facing output behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Dir: "data/evidence",
		},
		Retrieval: RetrievalConfig{
			TopKGlobal:      5,
			TopKLocal:       8,
			Alpha:           0.55, // Prefer lexical slightly: numbers and lab names match exactly
			UseHybrid:       true,
			TemplateVersion: "soap-v1",
		},
		Sections: SectionConfig{
			PrefixBoost:      1.3,
			KeywordStep:      0.05,
			KeywordCap:       5,
			NumericBoost:     1.2,
			ReferencePenalty: 0.5,
		},
		Verify: VerifyConfig{
			AcceptThreshold: 0.5,
			RepairEnabled:   true,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default: pipeline emits the deterministic fallback
			Timeout:   60 * time.Second,
			MaxTokens: 1024,
			RateLimit: 2,
		},
		Embedding: EmbeddingConfig{
			Provider:   "hash",
			Dimensions: 384,
			Workers:    4,
		},
	}
}
