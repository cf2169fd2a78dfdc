package cmd

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "coldmail"
)

type Config struct {
	Resume       string           `mapstructure:"resume"`
	Applicant    ApplicantConfig  `mapstructure:"applicant"`
	Extraction   ExtractionConfig `mapstructure:"extraction"`
	Ranking      RankingConfig    `mapstructure:"ranking"`
	AI           AIConfig         `mapstructure:"ai"`
	Fetch        FetchConfig      `mapstructure:"fetch"`
	Concurrency  int              `mapstructure:"concurrency" validate:"gte=0,lte=32"`
	ExcludeRoles []string         `mapstructure:"exclude-roles"`
	HistoryFile  string           `mapstructure:"history-file"`
	OutputDir    string           `mapstructure:"output-dir"`
}

type ApplicantConfig struct {
	Name  string `mapstructure:"name" validate:"omitempty,max=80"`
	Title string `mapstructure:"title" validate:"omitempty,max=120"`
}

type ExtractionConfig struct {
	MaxInputChars int `mapstructure:"max-input-chars" validate:"gte=0"`
}

type RankingConfig struct {
	Scorer           string `mapstructure:"scorer" validate:"oneof=bleve embedding none"`
	TopK             int    `mapstructure:"top-k" validate:"gte=0,lte=50"`
	MaxFragmentChars int    `mapstructure:"max-fragment-chars" validate:"gte=0"`
	FallbackChars    int    `mapstructure:"fallback-chars" validate:"gte=0"`
}

type AIConfig struct {
	Provider  string          `mapstructure:"provider" validate:"oneof=gemini anthropic openai"`
	Gemini    *GeminiConfig   `mapstructure:"gemini"`
	Anthropic *ProviderConfig `mapstructure:"anthropic"`
	OpenAI    *ProviderConfig `mapstructure:"openai"`
}

type ProviderConfig struct {
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	BaseURL      string `mapstructure:"base-url" validate:"omitempty,url"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0,lte=10"`
	MaxTokens    int    `mapstructure:"max-tokens" validate:"gte=0"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

type GeminiConfig struct {
	ProviderConfig `mapstructure:",squash"`
	EmbeddingModel string `mapstructure:"embedding-model"`
}

type FetchConfig struct {
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Browser   bool          `mapstructure:"browser"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "coldmail writes personalized cold application emails from job postings and a resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is coldmail.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ranking.scorer", "bleve")
	v.SetDefault("ranking.top-k", 5)
	v.SetDefault("concurrency", 4)
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.browser", false)
	v.SetDefault("applicant.name", "")
	v.SetDefault("applicant.title", "")
	v.SetDefault("resume", "")
	v.SetDefault("history-file", "")
	v.SetDefault("output-dir", "")
}

func initConfig() {
	// Only the pipeline commands read the config.
	if generateCmd.CalledAs() == "" && extractCmd.CalledAs() == "" {
		return
	}

	configureEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// Without an explicit --config every setting has a default or a flag.
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return
	}

	// We can't proceed if the config file parsed with error.
	log.Fatal(err)
}

// configureEnv makes every config key readable from a COLDMAIL_ variable,
// e.g. ai.gemini.model from COLDMAIL_AI_GEMINI_MODEL.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix(strings.ToUpper(app))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone is not consulted by Unmarshal for keys without a value.
	bindEnvs(v, reflect.TypeOf(Config{}), "")
}

func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, opts, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")

		ft := field.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}

		if opts == "squash" {
			bindEnvs(v, ft, prefix)
			continue
		}
		if name == "" {
			continue
		}

		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		if ft.Kind() == reflect.Struct {
			bindEnvs(v, ft, key)
			continue
		}

		_ = v.BindEnv(key)
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	config.AI.Provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))
	config.Ranking.Scorer = strings.ToLower(strings.TrimSpace(config.Ranking.Scorer))

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
