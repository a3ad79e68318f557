package config

import (
	"fmt"
	"time"

	"github.com/shic-it/feishu-approval-mailer/internal/secret"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Feishu     FeishuConfig      `mapstructure:"feishu"`
	SMTP       SMTPConfig        `mapstructure:"smtp"`
	Logger     LoggerConfig      `mapstructure:"logger"`
	Categories map[string]string `mapstructure:"categories"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	WebhookPath  string        `mapstructure:"webhook_path"`
}

// FeishuConfig holds Feishu app credentials and webhook secrets
type FeishuConfig struct {
	AppID             string        `mapstructure:"app_id"`
	AppSecret         string        `mapstructure:"app_secret"`
	VerificationToken string        `mapstructure:"verification_token"`
	SigningSecret     string        `mapstructure:"signing_secret"`
	BaseURL           string        `mapstructure:"base_url"`
	APITimeout        time.Duration `mapstructure:"api_timeout"`
}

// SMTPConfig holds mail delivery configuration
type SMTPConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	FromEmail string `mapstructure:"from_email"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables. A .env
// file next to the binary is folded into the environment first, and
// values carrying the ENC: prefix are decrypted in place.
func Load(configPath string) (*Config, error) {
	// Best effort: .env is optional in containerized deployments
	_ = gotenv.Load()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.decryptSecrets(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.webhook_path", "/webhook/approval")

	viper.SetDefault("feishu.base_url", "https://open.feishu.cn/open-apis")
	viper.SetDefault("feishu.api_timeout", 30*time.Second)

	viper.SetDefault("smtp.port", 465)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("feishu.app_id", "FEISHU_APP_ID")
	viper.BindEnv("feishu.app_secret", "FEISHU_APP_SECRET")
	viper.BindEnv("feishu.verification_token", "FEISHU_VERIFICATION_TOKEN")
	viper.BindEnv("feishu.signing_secret", "FEISHU_SIGNING_SECRET")
	viper.BindEnv("smtp.host", "SMTP_HOST")
	viper.BindEnv("smtp.port", "SMTP_PORT")
	viper.BindEnv("smtp.user", "SMTP_USER")
	viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	viper.BindEnv("smtp.from_email", "SMTP_FROM_EMAIL")
}

// decryptSecrets resolves ENC:-prefixed values loaded from file or
// environment into their plaintext form.
func (c *Config) decryptSecrets() error {
	var err error
	if c.Feishu.AppSecret, err = secret.Decrypt(c.Feishu.AppSecret); err != nil {
		return fmt.Errorf("failed to decrypt feishu.app_secret: %w", err)
	}
	if c.SMTP.Password, err = secret.Decrypt(c.SMTP.Password); err != nil {
		return fmt.Errorf("failed to decrypt smtp.password: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Feishu.AppID == "" {
		return fmt.Errorf("feishu.app_id is required")
	}
	if c.Feishu.AppSecret == "" {
		return fmt.Errorf("feishu.app_secret is required")
	}
	if c.Feishu.VerificationToken == "" {
		return fmt.Errorf("feishu.verification_token is required")
	}

	if c.SMTP.Host == "" {
		return fmt.Errorf("smtp.host is required")
	}
	if c.SMTP.User == "" {
		return fmt.Errorf("smtp.user is required")
	}
	if c.SMTP.FromEmail == "" {
		return fmt.Errorf("smtp.from_email is required")
	}

	return nil
}
