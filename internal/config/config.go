package config

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Brands     []string            `yaml:"brands" mapstructure:"brands"`
	Categories map[string]bool     `yaml:"categories" mapstructure:"categories"`
	Templates  map[string][]string `yaml:"templates" mapstructure:"templates"`
	Survey     SurveyConfig        `yaml:"survey" mapstructure:"survey"`
	OpenAI     OpenAIConfig        `yaml:"openai" mapstructure:"openai"`
	Anthropic  AnthropicConfig     `yaml:"anthropic" mapstructure:"anthropic"`
	Stats      StatsConfig         `yaml:"stats" mapstructure:"stats"`
	Storage    StorageConfig       `yaml:"storage" mapstructure:"storage"`
	Server     ServerConfig        `yaml:"server" mapstructure:"server"`
	Log        LogConfig           `yaml:"log" mapstructure:"log"`
}

// SurveyConfig controls how the survey loop queries the models.
type SurveyConfig struct {
	Providers          []string `yaml:"providers" mapstructure:"providers"`
	RunsPerQuery       int      `yaml:"runs_per_query" mapstructure:"runs_per_query"`
	Temperature        float64  `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens          int      `yaml:"max_tokens" mapstructure:"max_tokens"`
	RateLimitDelaySecs int      `yaml:"rate_limit_delay_secs" mapstructure:"rate_limit_delay_secs"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string   `yaml:"key" mapstructure:"key"`
	BaseURL string   `yaml:"base_url" mapstructure:"base_url"`
	Models  []string `yaml:"models" mapstructure:"models"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key    string   `yaml:"key" mapstructure:"key"`
	Models []string `yaml:"models" mapstructure:"models"`
}

// StatsConfig configures the statistical layers.
type StatsConfig struct {
	ConfidenceLevel float64 `yaml:"confidence_level" mapstructure:"confidence_level"`
}

// StorageConfig configures result files and the history database.
type StorageConfig struct {
	DataDir   string `yaml:"data_dir" mapstructure:"data_dir"`
	HistoryDB string `yaml:"history_db" mapstructure:"history_db"`
}

// ServerConfig configures the JSON API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// EnabledCategories returns the enabled category names that have query
// templates, in sorted order. The survey loop iterates this list so runs
// are deterministic.
func (c *Config) EnabledCategories() []string {
	var names []string
	for name, enabled := range c.Categories {
		if enabled && len(c.Templates[name]) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Validate checks the fields required by the given mode. Modes: survey,
// serve, report.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "survey":
		if len(c.Brands) == 0 {
			problems = append(problems, "brands must not be empty")
		}
		if len(c.EnabledCategories()) == 0 {
			problems = append(problems, "at least one enabled category with templates is required")
		}
		if c.Survey.RunsPerQuery < 1 {
			problems = append(problems, "survey.runs_per_query must be >= 1")
		}
		for _, provider := range c.Survey.Providers {
			switch provider {
			case "openai":
				if c.OpenAI.Key == "" {
					problems = append(problems, "openai.key is required")
				}
			case "anthropic":
				if c.Anthropic.Key == "" {
					problems = append(problems, "anthropic.key is required")
				}
			}
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "report":
		if len(c.Brands) == 0 {
			problems = append(problems, "brands must not be empty")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Stats.ConfidenceLevel <= 0 || c.Stats.ConfidenceLevel >= 1 {
		problems = append(problems, "stats.confidence_level must be in (0, 1)")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// WriteDefault writes a config file populated with the built-in defaults.
func WriteDefault(path string) error {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return eris.Wrap(err, "config: unmarshal defaults")
	}

	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return eris.Wrap(err, "config: write file")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("brands", []string{
		"Telekom", "Vodafone", "O2", "1&1",
		"Congstar", "Fraenk", "Otelo", "Freenet Mobile",
		"Aldi Talk", "Lidl Connect", "WinSIM", "PremiumSIM",
	})

	v.SetDefault("categories", map[string]bool{
		"general":          true,
		"price":            true,
		"network_quality":  true,
		"student":          true,
		"business":         true,
		"data_heavy":       true,
		"prepaid":          true,
		"5g":               true,
		"customer_service": true,
		"roaming":          true,
	})

	v.SetDefault("templates", map[string][]string{
		"general": {
			"Welcher Mobilfunkanbieter ist am besten in Deutschland?",
			"Welchen Handyvertrag soll ich in Deutschland nehmen?",
			"Was sind die besten Mobilfunkanbieter in Deutschland?",
			"Ich brauche einen neuen Handytarif. Welche Anbieter gibt es?",
			"Which mobile provider should I choose in Germany?",
			"Best mobile network in Germany?",
		},
		"price": {
			"Welcher ist der günstigste Mobilfunkanbieter in Deutschland?",
			"Wo bekomme ich den billigsten Handytarif?",
			"Ich suche einen günstigen Handyvertrag, welchen Anbieter empfiehlst du?",
			"What's the cheapest mobile plan in Germany?",
			"Günstige Handytarife Deutschland - welcher Anbieter?",
		},
		"network_quality": {
			"Welcher Anbieter hat das beste Netz in Deutschland?",
			"Wer hat die beste Netzabdeckung in Deutschland?",
			"Which provider has the best network coverage in Germany?",
			"Bestes Mobilfunknetz Deutschland?",
			"Wo ist das 5G-Netz am besten?",
		},
		"student": {
			"Bester Handytarif für Studenten in Deutschland?",
			"Welcher Mobilfunkanbieter ist gut für Studenten?",
			"Günstiger Handyvertrag für Studenten?",
			"Best mobile plan for students in Germany?",
		},
		"business": {
			"Welcher Mobilfunkanbieter ist am besten für Geschäftskunden?",
			"Bester Business-Tarif Deutschland?",
			"Mobilfunk für Unternehmen - welcher Anbieter?",
			"Best mobile provider for business in Germany?",
		},
		"data_heavy": {
			"Welcher Anbieter hat die besten Datentarife?",
			"Ich brauche viel Datenvolumen, welcher Anbieter?",
			"Unlimited data plan Germany - which provider?",
			"Bester Tarif für viel Internet?",
		},
		"prepaid": {
			"Beste Prepaid-Karte in Deutschland?",
			"Welche Prepaid-Tarife sind empfehlenswert?",
			"Best prepaid SIM card in Germany?",
			"Prepaid ohne Vertrag - welcher Anbieter?",
		},
		"5g": {
			"Welcher Anbieter hat das beste 5G-Netz?",
			"5G Verfügbarkeit Deutschland - welcher Provider?",
			"Best 5G coverage in Germany?",
			"Wo bekomme ich 5G in Deutschland?",
		},
		"customer_service": {
			"Welcher Mobilfunkanbieter hat den besten Kundenservice?",
			"Bei welchem Anbieter ist der Support am besten?",
			"Best customer service mobile provider Germany?",
		},
		"roaming": {
			"Welcher Anbieter hat die besten Roaming-Konditionen?",
			"Günstiges Roaming in Europa - welcher Anbieter?",
			"Best roaming rates Germany?",
		},
	})

	v.SetDefault("survey.providers", []string{"openai"})
	v.SetDefault("survey.runs_per_query", 3)
	v.SetDefault("survey.temperature", 0.7)
	v.SetDefault("survey.max_tokens", 1000)
	v.SetDefault("survey.rate_limit_delay_secs", 1)

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.models", []string{"gpt-4o", "gpt-4o-mini"})
	v.SetDefault("anthropic.models", []string{"claude-sonnet-4-5-20250929"})

	v.SetDefault("stats.confidence_level", 0.95)

	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.history_db", "data/som_history.db")

	v.SetDefault("server.port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
