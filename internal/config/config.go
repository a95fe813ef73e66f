package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// SchedulingPolicy holds the tunable engine rules.
type SchedulingPolicy struct {
	WeeklyLimit       int `yaml:"weeklyLimit" validate:"omitempty,min=1"`
	TaskVarietyCap    int `yaml:"taskVarietyCap" validate:"omitempty,min=1"`
	ClosersPerWeekend int `yaml:"closersPerWeekend" validate:"omitempty,min=1"`
	CooldownDays      int `yaml:"cooldownDays" validate:"omitempty,min=1"`
	HorizonDays       int `yaml:"horizonDays" validate:"omitempty,min=7"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL string           `yaml:"databaseURL" validate:"required"`
	Policy      SchedulingPolicy `yaml:"policy"`

	// NoDutyRules are RRULE strings for dates no duty is scheduled on
	// (holidays, stand-down weeks). Expanded per date range at
	// generation time.
	NoDutyRules []string `yaml:"noDutyRules,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from duty_roster_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration with an environment suffix.
// For example, env="test" will look for "duty_roster_config.test.yaml".
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Validate rrule syntax for each no-duty rule
	for i, rule := range cfg.NoDutyRules {
		if _, err := rrule.StrToRRule(rule); err != nil {
			return fmt.Errorf("invalid rrule in noDutyRules[%d]: %w", i, err)
		}
	}

	return nil
}

// findConfigFile searches for the config file in the current directory and home directory
func findConfigFile(env string) (string, error) {
	configFileName := "duty_roster_config.yaml"
	if env != "" {
		configFileName = fmt.Sprintf("duty_roster_config.%s.yaml", env)
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(home, configFileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", configFileName)
}
