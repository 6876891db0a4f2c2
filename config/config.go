package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging       LoggingConfig     `yaml:"logging"`
	Poll          PollConfig        `yaml:"poll"`
	GeminiModel   string            `yaml:"gemini_model"`
	UrgencyModel  string            `yaml:"urgency_model"`
	Agent         AgentConfig       `yaml:"agent"`
	Feeds         []string          `yaml:"feeds"`
	Chroma        ChromaConfig      `yaml:"chroma"`
	Postgres      PostgresConfig    `yaml:"postgres"`
	Wallet        WalletConfig      `yaml:"wallet"`
	Kafka         KafkaConfig       `yaml:"kafka"`
	Storage       StorageConfig     `yaml:"storage"`
	API           APIConfig         `yaml:"api"`
	CategorySlugs map[string]string `yaml:"category_slugs"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PollConfig controls the article polling loop.
type PollConfig struct {
	// IntervalSeconds is the pause between successful passes.
	IntervalSeconds int `yaml:"interval_seconds"`

	// RetryBackoffSeconds is the pause after a failed pass.
	RetryBackoffSeconds int `yaml:"retry_backoff_seconds"`
}

// AgentConfig bounds the tool-calling dialogues. The agents keep talking to
// the model until a terminal action arrives; MaxRounds is the safety ceiling
// after which each loop falls back to its documented default outcome.
type AgentConfig struct {
	MaxRounds int `yaml:"max_rounds"`
}

type ChromaConfig struct {
	BaseURL              string `yaml:"base_url"`
	Tenant               string `yaml:"tenant"`
	Database             string `yaml:"database"`
	CategoriesCollection string `yaml:"categories_collection"`
	CharitiesCollection  string `yaml:"charities_collection"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type WalletConfig struct {
	BaseURL string `yaml:"base_url"`
}

type KafkaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

type StorageConfig struct {
	ProcessedArticlesFile string `yaml:"processed_articles_file"`
	RecommendationsFile   string `yaml:"recommendations_file"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	// load configuration file
	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}

	var c AppConfig
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		panic(err)
	}
	applyDefaults(&c)
	config = &c
}

func applyDefaults(c *AppConfig) {
	if c.Poll.IntervalSeconds <= 0 {
		c.Poll.IntervalSeconds = 300
	}
	if c.Poll.RetryBackoffSeconds <= 0 {
		c.Poll.RetryBackoffSeconds = 60
	}
	if c.Agent.MaxRounds <= 0 {
		c.Agent.MaxRounds = 8
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-2.0-flash"
	}
	if c.UrgencyModel == "" {
		c.UrgencyModel = c.GeminiModel
	}
	if c.Chroma.CategoriesCollection == "" {
		c.Chroma.CategoriesCollection = "categories"
	}
	if c.Chroma.CharitiesCollection == "" {
		c.Chroma.CharitiesCollection = "charities"
	}
	if c.Storage.ProcessedArticlesFile == "" {
		c.Storage.ProcessedArticlesFile = "processed_articles.json"
	}
	if c.Storage.RecommendationsFile == "" {
		c.Storage.RecommendationsFile = "recommendations.json"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if len(c.CategorySlugs) == 0 {
		c.CategorySlugs = DefaultCategorySlugs()
	}
}

// DefaultCategorySlugs maps similarity-service category names to the
// relational category slugs used by the charity tables. Unknown names fall
// back to a lowercased transform at the lookup site.
func DefaultCategorySlugs() map[string]string {
	return map[string]string{
		"Poverty & Hunger":    "poverty",
		"Health & Medical":    "health",
		"Environment":         "environment",
		"Education":           "education",
		"Animals":             "animals",
		"Disaster Relief":     "disaster_relief",
		"Human Rights":        "human_rights",
		"Technology for Good": "technology",
	}
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
