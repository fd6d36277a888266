package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Config es la configuración completa de tradesim.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Source     SourceConfig     `yaml:"source"`
	Sink       SinkConfig       `yaml:"sink"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// SimulationConfig controla el muestreo de trades.
type SimulationConfig struct {
	Tickers         []string `yaml:"tickers"`
	StartDate       string   `yaml:"start_date"` // YYYY-MM-DD, vacío = hoy - 7 días
	EndDate         string   `yaml:"end_date"`   // YYYY-MM-DD, vacío = hoy
	Interval        string   `yaml:"interval"`
	TradesPerTicker int      `yaml:"trades_per_ticker"`
	Shares          int      `yaml:"shares"`
	Seed            *uint64  `yaml:"seed"` // nil = derivada del reloj
	Workers         int      `yaml:"workers"`
}

// SourceConfig elige de dónde salen las series.
type SourceConfig struct {
	Kind       string  `yaml:"kind"` // csv | random | chart
	Dir        string  `yaml:"dir"`
	BaseURL    string  `yaml:"base_url"`
	Bars       int     `yaml:"bars"`
	StartPrice float64 `yaml:"start_price"`
	Volatility float64 `yaml:"volatility"`
}

// SinkConfig elige dónde se escriben los escalares.
type SinkConfig struct {
	Kind   string `yaml:"kind"` // sqlite | csv
	LogDir string `yaml:"log_dir"`
}

// DSN devuelve la ruta de la base SQLite dentro de LogDir.
func (s SinkConfig) DSN() string {
	if s.LogDir == ":memory:" {
		return s.LogDir
	}
	return strings.TrimRight(s.LogDir, "/") + "/trades.db"
}

// MetricsConfig controla el endpoint de Prometheus. Addr vacío = desactivado.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un path vacío arranca solo con defaults y variables de entorno.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg, time.Now())

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Range devuelve [start, end) como instantes UTC.
func (c *Config) Range() (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, c.Simulation.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date %q: %w", c.Simulation.StartDate, err)
	}
	to, err := time.Parse(dateLayout, c.Simulation.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date %q: %w", c.Simulation.EndDate, err)
	}
	return from, to, nil
}

// SeedValue devuelve la semilla configurada. Solo es válida después de Load.
func (c *Config) SeedValue() uint64 {
	if c.Simulation.Seed == nil {
		return 0
	}
	return *c.Simulation.Seed
}

// Validate comprueba los valores que no tienen default posible.
func (c *Config) Validate() error {
	if len(c.Simulation.Tickers) == 0 {
		return fmt.Errorf("simulation.tickers: empty")
	}
	if c.Simulation.TradesPerTicker < 0 {
		return fmt.Errorf("simulation.trades_per_ticker: %d < 0", c.Simulation.TradesPerTicker)
	}
	if c.Simulation.Shares <= 0 {
		return fmt.Errorf("simulation.shares: %d <= 0", c.Simulation.Shares)
	}
	from, to, err := c.Range()
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if !from.Before(to) {
		return fmt.Errorf("simulation: start_date %s not before end_date %s",
			c.Simulation.StartDate, c.Simulation.EndDate)
	}

	switch c.Source.Kind {
	case "csv", "random", "chart":
	default:
		return fmt.Errorf("source.kind: unknown %q", c.Source.Kind)
	}
	switch c.Sink.Kind {
	case "sqlite", "csv":
	default:
		return fmt.Errorf("sink.kind: unknown %q", c.Sink.Kind)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TRADESIM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TRADESIM_SEED %q: %w", v, err)
		}
		cfg.Simulation.Seed = &seed
	}
	if v := os.Getenv("TRADESIM_LOG_DIR"); v != "" {
		cfg.Sink.LogDir = v
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// now fija la ventana de fechas por defecto y la semilla si no hay ninguna.
func setDefaults(cfg *Config, now time.Time) {
	s := &cfg.Simulation
	if len(s.Tickers) == 0 {
		s.Tickers = []string{"AAPL", "AMZN"}
	}
	if s.EndDate == "" {
		s.EndDate = now.UTC().Format(dateLayout)
	}
	if s.StartDate == "" {
		// 7 días: límite de yfinance para barras de 1m
		s.StartDate = now.UTC().AddDate(0, 0, -7).Format(dateLayout)
	}
	if s.Interval == "" {
		s.Interval = "1m"
	}
	if s.TradesPerTicker == 0 {
		s.TradesPerTicker = 100
	}
	if s.Shares == 0 {
		s.Shares = 10
	}
	if s.Seed == nil {
		seed := uint64(now.UnixNano())
		s.Seed = &seed
	}

	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "csv"
	}
	if cfg.Source.Dir == "" {
		cfg.Source.Dir = "data"
	}
	if cfg.Sink.Kind == "" {
		cfg.Sink.Kind = "sqlite"
	}
	if cfg.Sink.LogDir == "" {
		cfg.Sink.LogDir = "logs/trades"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
