package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Verzeichnisse für die Roh-Exporte und die Ausgaben
	DataDir   string `envconfig:"DATA_DIR" default:"data"`
	OutputDir string `envconfig:"OUTPUT_DIR" default:"outputs"`

	// StrictDates: true = eine unparsebare Datumszeile bricht den Lauf ab,
	// false = die Zeile wird mit Warnung verworfen und gezählt.
	StrictDates bool `envconfig:"STRICT_DATES" default:"false"`

	// KeepZeroMentionDrugs: Medikamente ohne Erwähnung bleiben im Graph.
	KeepZeroMentionDrugs bool `envconfig:"KEEP_ZERO_MENTION_DRUGS" default:"true"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 0 * * *"`

	// S3-Export des Graph-JSON (optional, leer = deaktiviert)
	ExportS3Key    string `envconfig:"EXPORT_S3_KEY"`
	ExportS3Secret string `envconfig:"EXPORT_S3_SECRET"`
	ExportS3URL    string `envconfig:"EXPORT_S3_URL"`
	ExportS3Region string `envconfig:"EXPORT_S3_REGION"`
	ExportS3Bucket string `envconfig:"EXPORT_S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// S3Enabled meldet, ob ein Export-Bucket konfiguriert ist.
func (c *Config) S3Enabled() bool {
	return c.ExportS3Bucket != "" && c.ExportS3URL != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
