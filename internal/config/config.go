package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings for one generation run.
type Config struct {
	Output       OutputConfig        `yaml:"output"`
	Simulation   SimulationConfig    `yaml:"simulation"`
	Topology     TopologyConfig      `yaml:"topology"`
	Dependencies map[string][]string `yaml:"dependencies"`
	Logging      LoggingConfig       `yaml:"logging"`
	Metrics      MetricsConfig       `yaml:"metrics"`
}

// OutputConfig controls where artifacts land.
type OutputConfig struct {
	Dir   string `yaml:"dir"`
	Clean bool   `yaml:"clean"`
}

// SimulationConfig fixes the simulated time range, resolution, and seed.
type SimulationConfig struct {
	StartDate          string `yaml:"startDate"`
	Days               int    `yaml:"days"`
	GranularityMinutes int    `yaml:"granularityMinutes"`
	Seed               int64  `yaml:"seed"`
}

// Start parses the configured start date as a UTC midnight.
func (s SimulationConfig) Start() (time.Time, error) {
	t, err := time.Parse("2006-01-02", s.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start date %q: %w", s.StartDate, err)
	}
	return t.UTC(), nil
}

// Granularity returns the sampling interval as a duration.
func (s SimulationConfig) Granularity() time.Duration {
	return time.Duration(s.GranularityMinutes) * time.Minute
}

// TopologyConfig shapes the simulated fleet.
type TopologyConfig struct {
	Providers       []string `yaml:"providers"`
	Services        []string `yaml:"services"`
	HostsPerService int      `yaml:"hostsPerService"`
	SharedService   string   `yaml:"sharedService"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("MELTSIM_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Output: OutputConfig{
			Dir:   "melt_data",
			Clean: true,
		},
		Simulation: SimulationConfig{
			StartDate:          "2026-01-01",
			Days:               30,
			GranularityMinutes: 5,
			Seed:               1,
		},
		Topology: TopologyConfig{
			Providers:       []string{"onpremise"},
			Services:        []string{"web-frontend", "auth-service", "payment-gateway", "inventory-db", "recommendation-engine"},
			HostsPerService: 5,
			SharedService:   "inventory-db",
		},
		Dependencies: map[string][]string{
			"web-frontend":          {"auth-service", "payment-gateway", "recommendation-engine"},
			"payment-gateway":       {"inventory-db"},
			"recommendation-engine": {"inventory-db"},
			"auth-service":          {"inventory-db"},
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Metrics: MetricsConfig{Address: ":2112"},
	}
}

// Validate rejects configurations the simulation loop cannot honor.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return errors.New("output dir must not be empty")
	}
	if _, err := c.Simulation.Start(); err != nil {
		return err
	}
	if c.Simulation.Days <= 0 {
		return errors.New("simulation days must be positive")
	}
	g := c.Simulation.GranularityMinutes
	if g <= 0 || g > 24*60 {
		return fmt.Errorf("granularity %d minutes out of range", g)
	}
	if (24*60)%g != 0 {
		return fmt.Errorf("granularity %d minutes must divide a day evenly", g)
	}
	if len(c.Topology.Providers) == 0 {
		return errors.New("at least one cloud provider required")
	}
	if len(c.Topology.Services) == 0 {
		return errors.New("at least one service required")
	}
	if c.Topology.HostsPerService <= 0 {
		return errors.New("hostsPerService must be positive")
	}

	known := make(map[string]bool, len(c.Topology.Services))
	for _, svc := range c.Topology.Services {
		known[svc] = true
	}
	if c.Topology.SharedService != "" && !known[c.Topology.SharedService] {
		return fmt.Errorf("sharedService %q not in services", c.Topology.SharedService)
	}
	for svc, deps := range c.Dependencies {
		if !known[svc] {
			return fmt.Errorf("dependency graph references unknown service %q", svc)
		}
		for _, dep := range deps {
			if !known[dep] {
				return fmt.Errorf("dependency graph references unknown service %q", dep)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MELTSIM_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("MELTSIM_OUTPUT_CLEAN"); v != "" {
		cfg.Output.Clean = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("MELTSIM_START_DATE"); v != "" {
		cfg.Simulation.StartDate = v
	}
	if v := os.Getenv("MELTSIM_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.Days = days
		}
	}
	if v := os.Getenv("MELTSIM_GRANULARITY_MINUTES"); v != "" {
		if g, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.GranularityMinutes = g
		}
	}
	if v := os.Getenv("MELTSIM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.Seed = seed
		}
	}
	if v := os.Getenv("MELTSIM_PROVIDERS"); v != "" {
		var providers []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				providers = append(providers, p)
			}
		}
		if len(providers) > 0 {
			cfg.Topology.Providers = providers
		}
	}
	if v := os.Getenv("MELTSIM_SHARED_SERVICE"); v != "" {
		cfg.Topology.SharedService = v
	}
	if v := os.Getenv("MELTSIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MELTSIM_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("MELTSIM_METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}
}
