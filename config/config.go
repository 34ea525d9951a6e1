package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Mapstructure tags are used to map environment variables and config file keys.
type Config struct {
	// Server Configuration
	ServerAddress string `mapstructure:"SERVER_ADDRESS"` // e.g., ":8080"
	AppEnv        string `mapstructure:"APP_ENV"`        // "production" enables gin release mode

	// AI Configuration
	OpenAIKey     string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel   string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"` // optional, for proxies and tests

	// Azure OpenAI; used instead of api.openai.com when the endpoint is set
	AzureEndpoint   string `mapstructure:"AZURE_OPENAI_ENDPOINT"`
	AzureAPIVersion string `mapstructure:"AZURE_OPENAI_API_VERSION"`
	AzureDeployment string `mapstructure:"AZURE_OPENAI_DEPLOYMENT"`

	// Persistence
	DBPath string `mapstructure:"DB_PATH"`

	// Build simulation
	BuildStepDelayMS int `mapstructure:"BUILD_STEP_DELAY_MS"`

	// Static export of tool pages
	DeployDir  string `mapstructure:"DEPLOY_DIR"`
	DeployHook string `mapstructure:"DEPLOY_HOOK"` // optional command run with the bundle dir

	// Website scraper
	ScrapeTimeoutSeconds int  `mapstructure:"SCRAPE_TIMEOUT_SECONDS"`
	ScrapeAllowPrivate   bool `mapstructure:"SCRAPE_ALLOW_PRIVATE"` // permit loopback/private targets
}

var defaults = map[string]any{
	"SERVER_ADDRESS":           ":8080",
	"APP_ENV":                  "development",
	"OPENAI_API_KEY":           "",
	"OPENAI_MODEL":             "gpt-4o-mini",
	"OPENAI_BASE_URL":          "",
	"AZURE_OPENAI_ENDPOINT":    "",
	"AZURE_OPENAI_API_VERSION": "2024-06-01",
	"AZURE_OPENAI_DEPLOYMENT":  "",
	"DB_PATH":                  "data/tools.db",
	"BUILD_STEP_DELAY_MS":      800,
	"DEPLOY_DIR":               "dist",
	"DEPLOY_HOOK":              "",
	"SCRAPE_TIMEOUT_SECONDS":   10,
	"SCRAPE_ALLOW_PRIVATE":     false,
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)     // Path to look for the config file in
	v.SetConfigName("config") // Name of config file (without extension)
	v.SetConfigType("yaml")

	// Defaults double as the key registry so AutomaticEnv can populate Unmarshal.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file ('config.yaml') not found in specified path, relying solely on environment variables.")
		} else {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Printf("Using configuration file: %s", v.ConfigFileUsed())
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.OpenAIKey == "" {
		log.Println("WARN: OPENAI_API_KEY is not set. LLM-backed endpoints will fail; generate-ui will serve mock themes.")
	}
	if config.AzureEndpoint != "" && config.AzureDeployment == "" {
		log.Println("WARN: AZURE_OPENAI_ENDPOINT is set without AZURE_OPENAI_DEPLOYMENT; the model name will be used as the deployment.")
	}
	if config.BuildStepDelayMS < 0 {
		return Config{}, fmt.Errorf("BUILD_STEP_DELAY_MS must not be negative, got %d", config.BuildStepDelayMS)
	}

	return
}

// UsesAzure reports whether the LLM client should target Azure OpenAI.
func (c Config) UsesAzure() bool {
	return c.AzureEndpoint != ""
}
