// config.go: This file contains the configuration for the capture-report
// application. It defines the settings struct and functions to load the
// settings from config.yaml.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
}

// MainSettings contains general application settings
type MainSettings struct {
	Name      string    // name of the node, can be used to identify the source
	TimeAs24h bool      // true 24-hour time format, false 12-hour time format
	Log       LogConfig // main log configuration
}

// SQLiteSettings contains settings for the SQLite database output
type SQLiteSettings struct {
	Enabled bool   // true to enable SQLite output
	Path    string // path to SQLite database file
}

// MySQLSettings contains settings for the MySQL database output
type MySQLSettings struct {
	Enabled  bool   // true to enable MySQL output
	Username string // MySQL username
	Password string // MySQL password
	Database string // MySQL database name
	Host     string // MySQL host
	Port     string // MySQL port
}

// ReportSettings contains settings for workbook generation
type ReportSettings struct {
	Path     string // path to the output XLSX workbook
	Title    string // workbook title shown on the summary sheet
	Timezone string // timezone used to interpret file timestamps
}

// OutputSettings contains the output targets
type OutputSettings struct {
	SQLite SQLiteSettings // SQLite output configuration
	MySQL  MySQLSettings  // MySQL output configuration
	Report ReportSettings // report output configuration
}

// IngestSettings contains settings for the media ingest command
type IngestSettings struct {
	FileTypes []string // file types to ingest, e.g. ["MP3", "JPG"]
}

// SchoolYear describes one school year span and its collection periods.
// Period values are two-element [start, end] ISO date lists, matching the
// on-disk configuration format.
type SchoolYear struct {
	StartDate string              `yaml:"start_date"`
	EndDate   string              `yaml:"end_date"`
	Periods   map[string][]string `yaml:"periods"`
}

// NonCollectionDay marks a date excluded from collection regardless of weekday
type NonCollectionDay struct {
	Reason string `yaml:"reason"`
	Type   string `yaml:"type"`
}

// ActivityEntry is one row of the daily activity schedule. Times are "HH:MM"
// strings compared lexically, matching the source data convention.
type ActivityEntry struct {
	Days      []string `yaml:"days"`
	StartTime string   `yaml:"start_time"`
	EndTime   string   `yaml:"end_time"`
	Name      string   `yaml:"name"`
}

// CalendarConfig is the declarative collection calendar. It is parsed with
// yaml.v3 rather than viper so that school year and period labels keep
// their original case.
type CalendarConfig struct {
	SchoolCalendar    map[string]SchoolYear       `yaml:"school_calendar"`
	NonCollectionDays map[string]NonCollectionDay `yaml:"non_collection_days"`
	ActivitySchedule  []ActivityEntry             `yaml:"daily_activity_schedule"`
}

// Empty reports whether no calendar data was loaded.
func (c *CalendarConfig) Empty() bool {
	return len(c.SchoolCalendar) == 0
}

// TotalsRule names a logical quantity expected to agree across sheets.
type TotalsRule struct {
	Name      string   `yaml:"name"`
	Sheets    []string `yaml:"sheets"`
	Field     string   `yaml:"field"`
	Tolerance float64  `yaml:"tolerance"`
}

// Settings contains all application settings
type Settings struct {
	Debug bool // true to enable debug mode

	Main   MainSettings
	Output OutputSettings
	Ingest IngestSettings

	// Calendar and totals rules are loaded from the same config.yaml but
	// bypass viper, see loadCalendarConfig.
	Calendar         CalendarConfig `mapstructure:"-"`
	TotalsValidation []TotalsRule   `mapstructure:"-"`
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file into a Settings struct. A missing or
// malformed calendar section degrades to an empty calendar instead of
// failing the load; downstream report stages then produce empty results.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	loadCalendarConfig(settings)

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	for _, path := range GetDefaultConfigPaths() {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter,
	// function defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// loadCalendarConfig parses the calendar and totals sections of the config
// file with yaml.v3. Viper lowercases map keys, which would corrupt school
// year labels such as "SY 21-22", so these sections are read directly.
func loadCalendarConfig(settings *Settings) {
	path := viper.ConfigFileUsed()
	if path == "" {
		slog.Warn("no config file in use, calendar is empty")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read config file for calendar", "path", path, "error", err)
		return
	}

	var aux struct {
		CalendarConfig   `yaml:",inline"`
		TotalsValidation []TotalsRule `yaml:"totals_validation"`
	}
	if err := yaml.Unmarshal(data, &aux); err != nil {
		slog.Error("failed to parse calendar configuration, calendar is empty", "path", path, "error", err)
		return
	}

	if err := ValidateCalendar(&aux.CalendarConfig); err != nil {
		// A defective calendar is surfaced loudly but must not abort the
		// run; all calendar-dependent computations degrade to empty.
		slog.Error("calendar configuration rejected, calendar is empty", "error", err)
		return
	}

	settings.Calendar = aux.CalendarConfig
	settings.TotalsValidation = aux.TotalsValidation
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "capture-report"))
	}
	return paths
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPath := filepath.Join(GetDefaultConfigPaths()[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Reload re-reads the configuration from disk, replacing the current
// settings instance. Returns false if the reload failed; the previous
// settings stay in effect.
func Reload() bool {
	if _, err := Load(); err != nil {
		slog.Error("failed to reload configuration", "error", err)
		return false
	}
	return true
}
