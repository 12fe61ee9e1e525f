package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// JWTConfig holds the token signing material. The algorithm is fixed at
// startup; the verifier rejects tokens whose header claims anything else.
type JWTConfig struct {
	SecretKey string        `mapstructure:"secretKey"`
	Algorithm string        `mapstructure:"algorithm"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
}

// AuthConfig groups the credential-handling knobs.
type AuthConfig struct {
	JWT        JWTConfig `mapstructure:"jwt"`
	BcryptCost int       `mapstructure:"bcryptCost"`
}

type Config struct {
	Mode     string     `mapstructure:"mode"`
	Dotenv   string     `mapstructure:"dotenv"`
	Auth     AuthConfig `mapstructure:"auth"`
	Handlers struct {
		ExternalAPI struct {
			Port      string `mapstructure:"port"`
			CertFile  string `mapstructure:"certFile"`
			KeyFile   string `mapstructure:"keyFile"`
			EnableTLS bool   `mapstructure:"enableTLS"`
		} `mapstructure:"externalAPI"`
		Prometheus struct {
			Port      string `mapstructure:"port"`
			CertFile  string `mapstructure:"certFile"`
			KeyFile   string `mapstructure:"keyFile"`
			EnableTLS bool   `mapstructure:"enableTLS"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("MARKETPLACE")
	v.AutomaticEnv()
	// Secret material comes from the environment in anything but dev.
	if err := v.BindEnv("auth.jwt.secretKey", "MARKETPLACE_JWT_SECRET"); err != nil {
		return Config{}, fmt.Errorf("failed to bind jwt secret env var: %w", err)
	}

	// Try to load file-based config, fall back to the embedded defaults.
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	if config.Auth.JWT.SecretKey == "" {
		return Config{}, fmt.Errorf("jwt secret key is not configured")
	}
	if config.Auth.JWT.Algorithm == "" {
		config.Auth.JWT.Algorithm = "HS256"
	}
	if config.Auth.JWT.TokenTTL <= 0 {
		config.Auth.JWT.TokenTTL = time.Hour
	}

	return config, nil
}
