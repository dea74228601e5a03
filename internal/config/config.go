package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Hut is a bookable hut and its base capacity
type Hut struct {
	Name     string `yaml:"name" validate:"required"`
	Capacity int    `yaml:"capacity" validate:"min=1"`
}

// Season bounds the bookable nights, end exclusive
type Season struct {
	Start string `yaml:"start" validate:"required,datetime=2006-01-02"`
	End   string `yaml:"end" validate:"required,datetime=2006-01-02"`
}

// Closure reduces a hut's capacity on every night matched by an RRULE
type Closure struct {
	Hut      string `yaml:"hut" validate:"required"`
	RRule    string `yaml:"rrule" validate:"required"`
	Capacity int    `yaml:"capacity" validate:"min=0"`
}

// Optimizer bounds the search
type Optimizer struct {
	Iterations               int           `yaml:"iterations" validate:"min=1"`
	Timeout                  time.Duration `yaml:"timeout" validate:"min=0"`
	SwapAttemptsPerIteration int           `yaml:"swapAttemptsPerIteration" validate:"min=1"`
	TopK                     int           `yaml:"topK" validate:"min=1"`
	Seed                     int64         `yaml:"seed"`
	Workers                  int           `yaml:"workers" validate:"min=0"`
	TrialTimeSlice           time.Duration `yaml:"trialTimeSlice" validate:"min=0"`
	MaxMovesPerTrial         int           `yaml:"maxMovesPerTrial" validate:"min=0"`
	MaxSuggestions           int           `yaml:"maxSuggestions" validate:"min=0"`
}

// Database configures the optional run history store
type Database struct {
	URL string `yaml:"url,omitempty" validate:"omitempty,url"`
}

// Sheets configures the Google Sheets input and output
type Sheets struct {
	RequestsSheetID string `yaml:"requestsSheetID,omitempty"`
	RequestsTab     string `yaml:"requestsTab,omitempty" validate:"required_with=RequestsSheetID"`
	ResultsSheetID  string `yaml:"resultsSheetID,omitempty"`
}

// Gmail configures notifications to unassigned requesters
type Gmail struct {
	UserID  string `yaml:"userID,omitempty"`
	Sender  string `yaml:"sender,omitempty" validate:"omitempty,email"`
	Subject string `yaml:"subject,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Huts             []Hut       `yaml:"huts" validate:"required,min=1,dive"`
	Season           Season      `yaml:"season"`
	PreferenceScores map[int]int `yaml:"preferenceScores" validate:"required,min=1,dive,min=0"`
	AssignmentBonus  int         `yaml:"assignmentBonus" validate:"min=0"`
	Optimizer        Optimizer   `yaml:"optimizer"`
	Closures         []Closure   `yaml:"closures,omitempty" validate:"dive"`
	Database         Database    `yaml:"database,omitempty"`
	Sheets           Sheets      `yaml:"sheets,omitempty"`
	Gmail            Gmail       `yaml:"gmail,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// DefaultOptimizer returns the search settings used when the config leaves them out
func DefaultOptimizer() Optimizer {
	return Optimizer{
		Iterations:               20,
		Timeout:                  300 * time.Second,
		SwapAttemptsPerIteration: 50,
		TopK:                     3,
		Seed:                     1,
		MaxSuggestions:           5,
	}
}

// DefaultPreferenceScores returns the points table used when the config leaves it out
func DefaultPreferenceScores() map[int]int {
	return map[int]int{1: 100, 2: 50, 3: 25, 4: 10, 5: 5}
}

// LoadWithEnv loads and validates the configuration with an environment suffix
// For example, env="test" will look for "hut_config.test.yaml"
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

	cfg := Config{Optimizer: DefaultOptimizer()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.PreferenceScores == nil {
		cfg.PreferenceScores = DefaultPreferenceScores()
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, the season bounds and closure rules
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	start, end, err := cfg.SeasonBounds()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("season end %s must be after start %s", cfg.Season.End, cfg.Season.Start)
	}

	huts := make(map[string]bool, len(cfg.Huts))
	for _, hut := range cfg.Huts {
		if huts[hut.Name] {
			return fmt.Errorf("duplicate hut %q", hut.Name)
		}
		huts[hut.Name] = true
	}

	// Validate rrule syntax and hut for each closure
	for i, closure := range cfg.Closures {
		if _, err := rrule.StrToRRule(closure.RRule); err != nil {
			return fmt.Errorf("invalid rrule in closures[%d]: %w", i, err)
		}
		if !huts[closure.Hut] {
			return fmt.Errorf("closures[%d] references unknown hut %q", i, closure.Hut)
		}
	}

	return nil
}

// SeasonBounds parses the season dates
func (c *Config) SeasonBounds() (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, c.Season.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid season start: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Season.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid season end: %w", err)
	}
	return start, end, nil
}

// HutNames returns the configured hut names in order
func (c *Config) HutNames() []string {
	names := make([]string, len(c.Huts))
	for i, hut := range c.Huts {
		names[i] = hut.Name
	}
	return names
}

// findConfigFile searches for hut_config.yaml in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "hut_config.test.yaml")
func findConfigFile(env string) (string, error) {
	configFileName := "hut_config.yaml"
	if env != "" {
		configFileName = "hut_config." + env + ".yaml"
	}
	return findFile(configFileName)
}

// findFile returns name if it exists in the current directory, else its path in the home directory
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
