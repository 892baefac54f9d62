// Package config loads runtime configuration from the environment, with an
// optional JSON config file providing defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ashishsumanth1/Resume-Council/internal/llm"
)

// CouncilModels are the default backends, in configuration order.
var CouncilModels = []string{
	"openai/gpt-5.1",
	"google/gemini-3-pro-preview",
	"anthropic/claude-sonnet-4.5",
	"x-ai/grok-4",
}

const (
	defaultJudgeModel  = "openai/gpt-5.1"
	defaultPolishModel = "google/gemini-3-pro-preview"

	defaultPolishThreshold = 0.72
	defaultMaxTokens       = 900
	defaultProfileMaxChars = 60000

	defaultDraftTimeout     = 90 * time.Second
	defaultRankingTimeout   = 90 * time.Second
	defaultSynthesisTimeout = 90 * time.Second

	defaultRetries        = 2
	defaultRetryBaseDelay = 500 * time.Millisecond

	defaultAddr = ":8000"
)

// Config is the full runtime configuration.
type Config struct {
	DraftModels   []string `json:"draft_models,omitempty" validate:"min=1,dive,required"`
	RankingModels []string `json:"ranking_models,omitempty" validate:"dive,required"`
	JudgeModel    string   `json:"judge_model,omitempty" validate:"required"`
	PolishModel   string   `json:"polish_model,omitempty" validate:"required"`

	UsePeerRanking   bool `json:"use_peer_ranking"`
	ExcludeSelfVotes bool `json:"exclude_self_votes"`

	PolishThreshold float64 `json:"polish_threshold,omitempty" validate:"gte=0,lte=1"`

	DraftMaxTokens   int `json:"draft_max_tokens,omitempty" validate:"gt=0"`
	RankingMaxTokens int `json:"ranking_max_tokens,omitempty" validate:"gt=0"`
	JudgeMaxTokens   int `json:"judge_max_tokens,omitempty" validate:"gt=0"`
	PolishMaxTokens  int `json:"polish_max_tokens,omitempty" validate:"gt=0"`

	DraftTimeout     time.Duration `json:"-"`
	RankingTimeout   time.Duration `json:"-"`
	SynthesisTimeout time.Duration `json:"-"`

	ProfilePackMaxChars int  `json:"profile_pack_max_chars,omitempty" validate:"gte=0"`
	SendFullProfile     bool `json:"send_full_profile"`

	StyleGuide     string `json:"style_guide,omitempty"`
	StyleGuidePath string `json:"style_guide_path,omitempty"`

	MaxRetries     int           `json:"max_retries,omitempty" validate:"gte=0"`
	RetryBaseDelay time.Duration `json:"-"`

	OpenRouterAPIKey string `json:"-"`
	GeminiAPIKey     string `json:"-"`

	DatabaseURL string `json:"database_url,omitempty"`
	Addr        string `json:"addr,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DraftModels:         append([]string(nil), CouncilModels...),
		RankingModels:       append([]string(nil), CouncilModels...),
		JudgeModel:          defaultJudgeModel,
		PolishModel:         defaultPolishModel,
		UsePeerRanking:      true,
		ExcludeSelfVotes:    false,
		PolishThreshold:     defaultPolishThreshold,
		DraftMaxTokens:      defaultMaxTokens,
		RankingMaxTokens:    defaultMaxTokens,
		JudgeMaxTokens:      defaultMaxTokens,
		PolishMaxTokens:     defaultMaxTokens,
		DraftTimeout:        defaultDraftTimeout,
		RankingTimeout:      defaultRankingTimeout,
		SynthesisTimeout:    defaultSynthesisTimeout,
		ProfilePackMaxChars: defaultProfileMaxChars,
		MaxRetries:          defaultRetries,
		RetryBaseDelay:      defaultRetryBaseDelay,
		Addr:                defaultAddr,
	}
}

// Load builds the configuration: defaults, then the optional JSON config
// file, then environment overrides. Call after godotenv has run.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if configPath != "" {
		if err := cfg.applyFile(configPath); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := envList("RESUME_DRAFT_MODELS"); len(v) > 0 {
		c.DraftModels = v
	}
	if v := envList("RESUME_RANKING_MODELS"); len(v) > 0 {
		c.RankingModels = v
	}
	envStr("RESUME_JUDGE_MODEL", &c.JudgeModel)
	envStr("RESUME_POLISH_MODEL", &c.PolishModel)

	envBool("RESUME_USE_PEER_RANKING", &c.UsePeerRanking)
	envBool("RESUME_EXCLUDE_SELF_VOTES", &c.ExcludeSelfVotes)
	envBool("RESUME_SEND_FULL_PROFILE", &c.SendFullProfile)

	envFloat("RESUME_POLISH_THRESHOLD", &c.PolishThreshold)

	envInt("RESUME_DRAFT_MAX_TOKENS", &c.DraftMaxTokens)
	envInt("RESUME_RANKING_MAX_TOKENS", &c.RankingMaxTokens)
	envInt("RESUME_JUDGE_MAX_TOKENS", &c.JudgeMaxTokens)
	envInt("RESUME_POLISH_MAX_TOKENS", &c.PolishMaxTokens)
	envInt("RESUME_PROFILE_PACK_MAX_CHARS", &c.ProfilePackMaxChars)
	envInt("RESUME_MAX_RETRIES", &c.MaxRetries)

	envSeconds("RESUME_DRAFT_TIMEOUT_SECONDS", &c.DraftTimeout)
	envSeconds("RESUME_RANKING_TIMEOUT_SECONDS", &c.RankingTimeout)
	envSeconds("RESUME_SYNTHESIS_TIMEOUT_SECONDS", &c.SynthesisTimeout)

	envStr("RESUME_STYLE_GUIDE", &c.StyleGuide)
	envStr("RESUME_STYLE_GUIDE_PATH", &c.StyleGuidePath)

	envStr("OPENROUTER_API_KEY", &c.OpenRouterAPIKey)
	envStr("GEMINI_API_KEY", &c.GeminiAPIKey)
	envStr("DATABASE_URL", &c.DatabaseURL)
	envStr("COUNCIL_ADDR", &c.Addr)
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	if c.UsePeerRanking && len(c.RankingModels) == 0 {
		return fmt.Errorf("config invalid: peer ranking enabled with no ranking models")
	}
	return nil
}

// StyleGuideText resolves the style guide override: inline value wins, then
// the file path. Empty means "use the built-in prompt".
func (c *Config) StyleGuideText() (string, error) {
	if s := strings.TrimSpace(c.StyleGuide); s != "" {
		return s, nil
	}
	path := strings.TrimSpace(c.StyleGuidePath)
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read style guide %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// EffectiveProfileMaxChars returns 0 (no truncation) when the full profile
// should be sent.
func (c *Config) EffectiveProfileMaxChars() int {
	if c.SendFullProfile {
		return 0
	}
	return c.ProfilePackMaxChars
}

// Models returns every distinct model id the pipeline can call, in
// configuration order: draft models first, then ranking, judge, polish.
func (c *Config) Models() []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(ids ...string) {
		for _, id := range ids {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	add(c.DraftModels...)
	add(c.RankingModels...)
	add(c.JudgeModel, c.PolishModel)
	return out
}

// BackendConfigs maps every configured model to a gateway backend config.
// Bare Gemini model ids ("gemini-...") call the Gemini API directly; every
// other id goes through OpenRouter.
func (c *Config) BackendConfigs() []llm.BackendConfig {
	models := c.Models()
	out := make([]llm.BackendConfig, 0, len(models))
	for _, id := range models {
		cfg := llm.BackendConfig{ID: id, Model: id}
		if strings.HasPrefix(id, "gemini-") {
			cfg.Kind = llm.KindGemini
			cfg.APIKey = c.GeminiAPIKey
		} else {
			cfg.Kind = llm.KindOpenRouter
			cfg.APIKey = c.OpenRouterAPIKey
		}
		out = append(out, cfg)
	}
	return out
}

func envStr(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envList(key string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envBool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		*dst = true
	case "0", "false", "no", "n", "off":
		*dst = false
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*dst = f
		}
	}
}

func envSeconds(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			*dst = time.Duration(n) * time.Second
		}
	}
}
