package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	Environment        string
	SeedEmployerCode   string
	SeedAdminEmail     string
	SeedAdminPassword  string
	RunMigrations      bool
	RunSeed            bool
	MaxBodyBytes       int64
	RateLimitPerMinute int

	// Voucher module options.
	PricePerVoucher          string
	MaxGenericVouchers       int
	YearlyWorkerVoucherLimit int
	VoucherExpiryType        string
	VoucherExpiryPeriodDays  int
	VoucherBillDuePeriodDays int
	UnassignedVoucherEnabled bool

	// Worker upload options.
	UploadNationalIDColumn string
	UploadErrorColumn      string
	WorkerVerificationOn   bool
	WorkerVerificationURL  string

	// Background jobs.
	ExpirySweepInterval time.Duration
}

const (
	ExpiryTypeFixedPeriod = "fixed_period"
	ExpiryTypeEndOfYear   = "end_of_year"
)

func Load() Config {
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		Environment:        getEnv("APP_ENV", "development"),
		SeedEmployerCode:   getEnv("SEED_EMPLOYER_CODE", ""),
		SeedAdminEmail:     getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:  getEnv("SEED_ADMIN_PASSWORD", ""),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:            getEnvBool("RUN_SEED", true),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 4194304)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		PricePerVoucher:          getEnv("PRICE_PER_VOUCHER", "100.00"),
		MaxGenericVouchers:       getEnvInt("MAX_GENERIC_VOUCHERS", 1000),
		YearlyWorkerVoucherLimit: getEnvInt("YEARLY_WORKER_VOUCHER_LIMIT", 120),
		VoucherExpiryType:        getEnv("VOUCHER_EXPIRY_TYPE", ExpiryTypeEndOfYear),
		VoucherExpiryPeriodDays:  getEnvInt("VOUCHER_EXPIRY_PERIOD_DAYS", 90),
		VoucherBillDuePeriodDays: getEnvInt("VOUCHER_BILL_DUE_PERIOD_DAYS", 30),
		UnassignedVoucherEnabled: getEnvBool("UNASSIGNED_VOUCHER_ENABLED", true),

		UploadNationalIDColumn: getEnv("UPLOAD_NATIONAL_ID_COLUMN", "national_id"),
		UploadErrorColumn:      getEnv("UPLOAD_ERROR_COLUMN", "errors"),
		WorkerVerificationOn:   getEnvBool("WORKER_VERIFICATION_ENABLED", false),
		WorkerVerificationURL:  getEnv("WORKER_VERIFICATION_URL", ""),

		ExpirySweepInterval: getEnvDuration("VOUCHER_EXPIRY_SWEEP_INTERVAL", time.Hour),
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if _, err := decimal.NewFromString(c.PricePerVoucher); err != nil {
		return fmt.Errorf("PRICE_PER_VOUCHER must be a decimal string: %w", err)
	}
	if c.MaxGenericVouchers <= 0 {
		return fmt.Errorf("MAX_GENERIC_VOUCHERS must be positive")
	}
	if c.YearlyWorkerVoucherLimit <= 0 {
		return fmt.Errorf("YEARLY_WORKER_VOUCHER_LIMIT must be positive")
	}
	if c.VoucherExpiryType != ExpiryTypeFixedPeriod && c.VoucherExpiryType != ExpiryTypeEndOfYear {
		return fmt.Errorf("VOUCHER_EXPIRY_TYPE must be %q or %q", ExpiryTypeFixedPeriod, ExpiryTypeEndOfYear)
	}
	if c.VoucherExpiryType == ExpiryTypeFixedPeriod && c.VoucherExpiryPeriodDays <= 0 {
		return fmt.Errorf("VOUCHER_EXPIRY_PERIOD_DAYS must be positive for fixed_period expiry")
	}
	if c.VoucherBillDuePeriodDays <= 0 {
		return fmt.Errorf("VOUCHER_BILL_DUE_PERIOD_DAYS must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.WorkerVerificationOn && strings.TrimSpace(c.WorkerVerificationURL) == "" {
		return fmt.Errorf("WORKER_VERIFICATION_URL must be set when WORKER_VERIFICATION_ENABLED is true")
	}
	if strings.TrimSpace(c.UploadNationalIDColumn) == "" {
		return fmt.Errorf("UPLOAD_NATIONAL_ID_COLUMN must not be empty")
	}
	return nil
}

// UnitPrice returns the configured per-voucher price. Config is validated at
// startup, so a malformed value falls back to zero here rather than erroring.
func (c Config) UnitPrice() decimal.Decimal {
	price, err := decimal.NewFromString(c.PricePerVoucher)
	if err != nil {
		return decimal.Zero
	}
	return price
}
