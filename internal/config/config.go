package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"
)

// Config agrega todas as configurações da aplicação.
type Config struct {
	AppPort          string        `json:"appPort"`
	AppEnv           string        `json:"appEnv"`
	JWTSecret        string        `json:"jwtSecret"`
	ClientTokenTTL   time.Duration `json:"-"`
	AESKey           []byte        `json:"-"`
	StorageBackend   string        `json:"storageBackend"`
	DBHost           string        `json:"dbHost"`
	DBPort           string        `json:"dbPort"`
	DBUser           string        `json:"dbUser"`
	DBPassword       string        `json:"dbPassword"`
	DBName           string        `json:"dbName"`
	DemoPasswordHash string        `json:"demoPasswordHash"`

	LoginLatency     time.Duration `json:"-"`
	UploadTick       time.Duration `json:"-"`
	UploadDuration   time.Duration `json:"-"`
	UploadResetDelay time.Duration `json:"-"`
	LaunchDelay      time.Duration `json:"-"`
	RunMinDelay      time.Duration `json:"-"`
	RunJitter        time.Duration `json:"-"`
	RandomSeed       int64         `json:"randomSeed"`
}

// fileConfig é o formato do arquivo YAML opcional. Durações em milissegundos.
type fileConfig struct {
	Config
	ClientTokenTTLHours *int   `json:"clientTokenTTLHours"`
	AESKey              string `json:"aesKey"`
	LoginLatencyMS      *int   `json:"loginLatencyMs"`
	UploadTickMS        *int   `json:"uploadTickMs"`
	UploadDurationMS    *int   `json:"uploadDurationMs"`
	UploadResetDelayMS  *int   `json:"uploadResetDelayMs"`
	LaunchDelayMS       *int   `json:"launchDelayMs"`
	RunMinDelayMS       *int   `json:"runMinDelayMs"`
	RunJitterMS         *int   `json:"runJitterMs"`
}

// LoadEnv tenta carregar variáveis de ambiente de um arquivo .env (modo dev).
func LoadEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

// Defaults devolve a configuração padrão, sem consultar o ambiente.
func Defaults() *Config {
	return &Config{
		AppPort:          "8080",
		AppEnv:           "development",
		JWTSecret:        "change-me-secret",
		ClientTokenTTL:   30 * 24 * time.Hour,
		StorageBackend:   "memory",
		DBHost:           "localhost",
		DBPort:           "5432",
		DBUser:           "workshop",
		DBPassword:       "workshop",
		DBName:           "workshop",
		LoginLatency:     time.Second,
		UploadTick:       200 * time.Millisecond,
		UploadDuration:   2 * time.Second,
		UploadResetDelay: time.Second,
		LaunchDelay:      2 * time.Second,
		RunMinDelay:      5 * time.Second,
		RunJitter:        10 * time.Second,
	}
}

// New cria a configuração: padrões, depois o arquivo APP_CONFIG_FILE (se houver),
// depois variáveis de ambiente.
func New() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv("APP_CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if n := len(cfg.AESKey); n != 0 && n != 32 {
		return nil, fmt.Errorf("APP_AES_KEY deve ter 32 bytes, recebido %d", n)
	}
	return cfg, nil
}

// LoadFile sobrepõe a configuração com um arquivo YAML.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("erro ao ler config %s: %w", path, err)
	}
	fc := fileConfig{Config: *c}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("erro ao decodificar config %s: %w", path, err)
	}
	*c = fc.Config
	if fc.AESKey != "" {
		c.AESKey = []byte(fc.AESKey)
	}
	if fc.ClientTokenTTLHours != nil {
		c.ClientTokenTTL = time.Duration(*fc.ClientTokenTTLHours) * time.Hour
	}
	setMillis(&c.LoginLatency, fc.LoginLatencyMS)
	setMillis(&c.UploadTick, fc.UploadTickMS)
	setMillis(&c.UploadDuration, fc.UploadDurationMS)
	setMillis(&c.UploadResetDelay, fc.UploadResetDelayMS)
	setMillis(&c.LaunchDelay, fc.LaunchDelayMS)
	setMillis(&c.RunMinDelay, fc.RunMinDelayMS)
	setMillis(&c.RunJitter, fc.RunJitterMS)
	return nil
}

func setMillis(dst *time.Duration, ms *int) {
	if ms != nil {
		*dst = time.Duration(*ms) * time.Millisecond
	}
}

func (c *Config) applyEnv() {
	c.AppPort = getEnv("APP_PORT", c.AppPort)
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.JWTSecret = getEnv("APP_JWT_SECRET", c.JWTSecret)
	c.ClientTokenTTL = time.Duration(getEnvInt("APP_CLIENT_TOKEN_TTL_HOURS", int(c.ClientTokenTTL/time.Hour))) * time.Hour
	if v := os.Getenv("APP_AES_KEY"); v != "" {
		c.AESKey = []byte(v)
	}
	c.StorageBackend = getEnv("APP_STORAGE", c.StorageBackend)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.DemoPasswordHash = getEnv("APP_DEMO_PASSWORD_HASH", c.DemoPasswordHash)
	c.LoginLatency = getEnvMillis("APP_LOGIN_LATENCY_MS", c.LoginLatency)
	c.UploadTick = getEnvMillis("APP_UPLOAD_TICK_MS", c.UploadTick)
	c.UploadDuration = getEnvMillis("APP_UPLOAD_DURATION_MS", c.UploadDuration)
	c.UploadResetDelay = getEnvMillis("APP_UPLOAD_RESET_MS", c.UploadResetDelay)
	c.LaunchDelay = getEnvMillis("APP_LAUNCH_DELAY_MS", c.LaunchDelay)
	c.RunMinDelay = getEnvMillis("APP_RUN_MIN_DELAY_MS", c.RunMinDelay)
	c.RunJitter = getEnvMillis("APP_RUN_JITTER_MS", c.RunJitter)
	c.RandomSeed = int64(getEnvInt("APP_RANDOM_SEED", int(c.RandomSeed)))
}

// Production indica se o ambiente é de produção.
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var val int
		_, err := fmt.Sscanf(v, "%d", &val)
		if err == nil {
			return val
		}
	}
	return def
}

func getEnvMillis(key string, def time.Duration) time.Duration {
	return time.Duration(getEnvInt(key, int(def/time.Millisecond))) * time.Millisecond
}
