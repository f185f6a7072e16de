package config

import (
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Host          string        `envconfig:"HOST"           default:":8000"`
	CertPath      string        `envconfig:"CERT_PATH"`
	KeyPath       string        `envconfig:"KEY_PATH"`
	Secret        string        `envconfig:"SECRET"                                  required:"true"`
	CookieDomain  string        `envconfig:"COOKIE_DOMAIN"  default:"localhost"`
	SecureCookies bool          `envconfig:"SECURE_COOKIES" default:"true"`
	SqliteDb      string        `envconfig:"SQLITE_DB"      default:"bankzest.db"`
	LogLevel      string        `envconfig:"LOG_LEVEL"      default:"info"`
	SubmitTimeout time.Duration `envconfig:"SUBMIT_TIMEOUT" default:"10s"`
	FormTTL       time.Duration `envconfig:"FORM_TTL"       default:"30m"`
}

// TLSEnabled reports whether both certificate and key are configured.
func (c *Config) TLSEnabled() bool {
	return c.CertPath != "" && c.KeyPath != ""
}

var (
	instance *Config
	once     sync.Once
)

func NewConfig() (*Config, error) {
	var err error
	once.Do(func() {
		var config Config
		if err = envconfig.Process("", &config); err != nil {
			return
		}
		instance = &config
	})
	return instance, err
}
