package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Inventory InventoryConfig
	Backup    BackupConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	MongoDB   MongoDBConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port         string
	MaxUploadMiB int64
}

// DatabaseConfig points at the SQLite file backing the inventory.
type DatabaseConfig struct {
	Path string
}

// InventoryConfig holds domain tunables.
type InventoryConfig struct {
	LowStockThreshold int
	StagingTTL        time.Duration
	LocalImportFile   string
}

// BackupConfig holds scheduler-related settings for exports and alerts.
type BackupConfig struct {
	Dir          string
	CronSchedule string
	AlertCron    string
	Timezone     string
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API used by
// low-stock alerts. Alerts are disabled unless token, phone number id and
// recipient are all set.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	AlertTo       string
}

// Enabled reports whether low-stock alerts can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.AlertTo != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ImportRange     string
	ExportRange     string
}

// Enabled reports whether a spreadsheet is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// MongoDBConfig holds settings for the snapshot archive.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether snapshots should be archived.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine; the environment may carry everything.
		_ = godotenv.Load()
	}

	threshold, err := getenvInt("LOW_STOCK_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	maxUpload, err := getenvInt("MAX_UPLOAD_MIB", 10)
	if err != nil {
		return nil, err
	}
	stagingTTL, err := getenvDuration("IMPORT_STAGING_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getenvWithDefault("APP_PORT", "8080"),
			MaxUploadMiB: int64(maxUpload),
		},
		Database: DatabaseConfig{
			Path: getenvWithDefault("DB_PATH", "inventory.db"),
		},
		Inventory: InventoryConfig{
			LowStockThreshold: threshold,
			StagingTTL:        stagingTTL,
			LocalImportFile:   getenvWithDefault("IMPORT_LOCAL_FILE", "inventory.xlsx"),
		},
		Backup: BackupConfig{
			Dir:          getenvWithDefault("BACKUP_DIR", "backups"),
			CronSchedule: getenvWithDefault("BACKUP_CRON", "0 2 * * *"),
			AlertCron:    getenvWithDefault("ALERT_CRON", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			AlertTo:       os.Getenv("WHATSAPP_ALERT_TO"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ID"),
			ImportRange:     getenvWithDefault("GOOGLE_SHEET_IMPORT_RANGE", "Import!A:E"),
			ExportRange:     getenvWithDefault("GOOGLE_SHEET_EXPORT_RANGE", "Inventory!A1"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "treadstock"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Server.MaxUploadMiB <= 0 {
		return errors.New("MAX_UPLOAD_MIB must be positive")
	}

	if c.Database.Path == "" {
		return errors.New("DB_PATH must be provided")
	}

	if c.Inventory.LowStockThreshold < 0 {
		return errors.New("LOW_STOCK_THRESHOLD must not be negative")
	}
	if c.Inventory.StagingTTL <= 0 {
		return errors.New("IMPORT_STAGING_TTL must be positive")
	}

	switch {
	case c.Backup.Dir == "":
		return errors.New("BACKUP_DIR must be provided")
	case c.Backup.CronSchedule == "":
		return errors.New("BACKUP_CRON must be provided")
	case c.Backup.AlertCron == "":
		return errors.New("ALERT_CRON must be provided")
	}

	if _, err := time.LoadLocation(c.Backup.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Backup.Timezone, err)
	}

	// Partially configured integrations are almost always a typo.
	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_ID must be provided together")
	}

	if c.WhatsApp.Enabled() {
		if c.WhatsApp.BaseURL == "" {
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		}
		if c.WhatsApp.APIVersion == "" {
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	return nil
}

// Location returns the scheduler time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Backup.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return parsed, nil
}
