package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env     string `yaml:"env"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// Ciclo de vida de las claves de firma.
	Keys struct {
		Validity   time.Duration `yaml:"validity"`
		RSABits    int           `yaml:"rsa_bits"`
		RetiredMax int           `yaml:"retired_max"`
	} `yaml:"keys"`

	// Claims fijas de los tokens emitidos.
	Token struct {
		Issuer  string `yaml:"issuer"`
		Subject string `yaml:"subject"`
		Name    string `yaml:"name"`
	} `yaml:"token"`

	Rate struct {
		Enabled bool          `yaml:"enabled"`
		Backend string        `yaml:"backend"` // memory | redis
		Limit   int           `yaml:"limit"`
		Window  time.Duration `yaml:"window"`
	} `yaml:"rate"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Admin struct {
		// Vacío = rutas /admin deshabilitadas.
		APIKey string `yaml:"api_key"`
	} `yaml:"admin"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// Default devuelve la configuración con los valores por defecto.
func Default() *Config {
	c := &Config{}
	c.App.Env = "dev"
	c.Server.Addr = ":8080"
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Log.Level = "info"
	c.Keys.Validity = time.Hour
	c.Keys.RSABits = 2048
	c.Keys.RetiredMax = 8
	c.Token.Subject = "1234567890"
	c.Token.Name = "John Doe"
	c.Rate.Backend = "memory"
	c.Rate.Limit = 60
	c.Rate.Window = time.Minute
	c.Redis.Addr = "localhost:6379"
	c.Redis.Prefix = "jwks:rl:"
	c.Metrics.Enabled = true
	return c
}

// Load lee config.yaml (si path no está vacío), aplica env y valida.
// Las claves ausentes del YAML conservan el default.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Keys.Validity <= 0 {
		errs = append(errs, errors.New("keys.validity must be > 0"))
	}
	if c.Keys.RSABits < 2048 {
		errs = append(errs, errors.New("keys.rsa_bits must be >= 2048"))
	}
	if c.Keys.RetiredMax < 1 {
		errs = append(errs, errors.New("keys.retired_max must be >= 1"))
	}
	if c.Rate.Enabled {
		switch c.Rate.Backend {
		case "memory", "redis":
		default:
			errs = append(errs, fmt.Errorf("rate.backend %q not supported", c.Rate.Backend))
		}
		if c.Rate.Limit <= 0 || c.Rate.Window <= 0 {
			errs = append(errs, errors.New("rate.limit and rate.window must be > 0"))
		}
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	return errors.Join(errs...)
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("APP_VERSION"); ok {
		c.App.Version = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_READ_TIMEOUT"); ok {
		c.Server.ReadTimeout = v
	}
	if v, ok := getEnvDur("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// KEYS
	if v, ok := getEnvDur("KEYS_VALIDITY"); ok {
		c.Keys.Validity = v
	}
	if v, ok := getEnvInt("KEYS_RSA_BITS"); ok {
		c.Keys.RSABits = v
	}
	if v, ok := getEnvInt("KEYS_RETIRED_MAX"); ok {
		c.Keys.RetiredMax = v
	}

	// TOKEN
	if v, ok := getEnvStr("TOKEN_ISSUER"); ok {
		c.Token.Issuer = v
	}
	if v, ok := getEnvStr("TOKEN_SUBJECT"); ok {
		c.Token.Subject = v
	}
	if v, ok := getEnvStr("TOKEN_NAME"); ok {
		c.Token.Name = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvInt("RATE_LIMIT"); ok {
		c.Rate.Limit = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}

	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}

	// ADMIN / METRICS
	if v, ok := getEnvStr("ADMIN_API_KEY"); ok {
		c.Admin.APIKey = v
	}
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}
