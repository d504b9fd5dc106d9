package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/joho/godotenv"

	"github.com/rdelcourt/ChequeDataPrep/elements"
	"github.com/rdelcourt/ChequeDataPrep/operations"
)

// Config carries every parameter of a run. The defaults reproduce the
// original extract preparation job; tests substitute their own column
// lists and paths without touching the pipeline logic.
type Config struct {
	RawDataPath  string
	ProcessedDir string
	Delimiter    rune

	Schema     *elements.DatasetSchema
	SplitDate  time.Time
	CastPolicy operations.CastPolicy

	ScanBatchSize int

	// run registry, disabled when the address is empty
	RedisAddress    string
	RedisPassword   string
	RedisKeyPrefix  string
	RunLockDuration time.Duration

	// artifact upload, disabled when the bucket is empty
	S3Bucket       string
	S3Endpoint     string
	S3Region       string
	S3AuthKey      string
	S3AuthSecret   string
	S3UsePathStyle bool
	S3KeyPrefix    string
}

func DefaultConfig() Config {
	return Config{
		RawDataPath:     "data.txt",
		ProcessedDir:    "data/processed",
		Delimiter:       ';',
		Schema:          elements.ChequeTransactionSchema(),
		SplitDate:       elements.SplitDate,
		CastPolicy:      operations.CastPolicyStrict,
		RedisKeyPrefix:  "chequeDataPrep",
		RunLockDuration: 5 * time.Minute,
		S3Region:        "us-east-1",
		S3KeyPrefix:     "cheque-data-prep",
	}
}

// LoadConfig starts from the defaults and overlays the operational
// settings from the environment, reading a .env file first when one is
// present.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	config := DefaultConfig()
	config.RawDataPath = getEnv("RAW_DATA_PATH", config.RawDataPath)
	config.ProcessedDir = getEnv("PROCESSED_DIR", config.ProcessedDir)
	config.CastPolicy = operations.CastPolicy(getEnv("CAST_POLICY", string(config.CastPolicy)))

	config.RedisAddress = getEnv("REDIS_ADDRESS", config.RedisAddress)
	config.RedisPassword = getEnv("REDIS_PASSWORD", config.RedisPassword)
	config.RedisKeyPrefix = getEnv("REDIS_KEY_PREFIX", config.RedisKeyPrefix)

	config.S3Bucket = getEnv("S3_BUCKET", config.S3Bucket)
	config.S3Endpoint = getEnv("S3_ENDPOINT", config.S3Endpoint)
	config.S3Region = getEnv("S3_REGION", config.S3Region)
	config.S3AuthKey = getEnv("S3_AUTH_KEY", config.S3AuthKey)
	config.S3AuthSecret = getEnv("S3_AUTH_SECRET", config.S3AuthSecret)
	config.S3UsePathStyle = getEnv("S3_USE_PATH_STYLE", "") == "true"
	config.S3KeyPrefix = getEnv("S3_KEY_PREFIX", config.S3KeyPrefix)

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (obj *Config) Validate() error {
	if obj.RawDataPath == "" {
		return errs.NewStackError(fmt.Errorf("%w| raw data path is required", ErrConfigInvalid))
	}
	if obj.ProcessedDir == "" {
		return errs.NewStackError(fmt.Errorf("%w| processed dir is required", ErrConfigInvalid))
	}
	if obj.Schema == nil {
		return errs.NewStackError(fmt.Errorf("%w| dataset schema is required", ErrConfigInvalid))
	}
	if err := obj.Schema.IsValid(); err != nil {
		return errs.Wrap(err)
	}
	if err := obj.CastPolicy.IsValid(); err != nil {
		return errs.Wrap(err)
	}
	if obj.SplitDate.IsZero() {
		return errs.NewStackError(fmt.Errorf("%w| split date is required", ErrConfigInvalid))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
