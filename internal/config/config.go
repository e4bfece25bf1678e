package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	JWTSecret                 string
	JWTRefreshSecret          string
	Database                  DatabaseConfig
	Booking                   BookingConfig
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// BookingConfig holds the scheduling policy knobs shared across clinics.
type BookingConfig struct {
	// MaxTotalPending is the network-wide ceiling on pending/confirmed
	// appointments a single patient may hold at any time.
	MaxTotalPending int
	// SlotIntervalMinutes is the granularity of bookable start times.
	SlotIntervalMinutes int
	// DefaultConsultationMinutes is the duration assumed for a booking
	// with no services selected (a bare consultation).
	DefaultConsultationMinutes int
	// HighRiskNoShowRatio and ModerateRiskNoShowRatio are the cutoffs for
	// the reliability tiers; below the moderate cutoff a patient counts
	// as reliable.
	HighRiskNoShowRatio     float64
	ModerateRiskNoShowRatio float64
	// MinHistoryForScoring is the minimum number of past appointments
	// before the scorer stops defaulting to reliable.
	MinHistoryForScoring int
	// RequireHighRiskConfirmation decides whether a high-risk patient must
	// explicitly acknowledge the booking before it commits. Product
	// policy, so it stays configurable.
	RequireHighRiskConfirmation bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "dentserve"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	jwtRefreshExpHours, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168")) // 7 days
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %w", err)
	}

	bookingConfig, err := loadBookingConfig()
	if err != nil {
		return nil, err
	}

	// Return complete configuration
	return &Config{
		Port:                      getEnv("PORT", "3001"),
		Origin:                    getEnv("ORIGIN", "http://localhost:4200"),
		Environment:               getEnv("APP_ENV", "development"),
		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		Database:                  dbConfig,
		Booking:                   bookingConfig,
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
	}, nil
}

func loadBookingConfig() (BookingConfig, error) {
	maxTotalPending, err := strconv.Atoi(getEnv("MAX_TOTAL_PENDING", "3"))
	if err != nil {
		return BookingConfig{}, fmt.Errorf("invalid MAX_TOTAL_PENDING: %w", err)
	}

	slotInterval, err := strconv.Atoi(getEnv("SLOT_INTERVAL_MINUTES", "30"))
	if err != nil {
		return BookingConfig{}, fmt.Errorf("invalid SLOT_INTERVAL_MINUTES: %w", err)
	}

	defaultConsultation, err := strconv.Atoi(getEnv("DEFAULT_CONSULTATION_MINUTES", "30"))
	if err != nil {
		return BookingConfig{}, fmt.Errorf("invalid DEFAULT_CONSULTATION_MINUTES: %w", err)
	}

	highRisk, err := strconv.ParseFloat(getEnv("RELIABILITY_HIGH_RISK_NO_SHOW", "0.30"), 64)
	if err != nil {
		return BookingConfig{}, fmt.Errorf("invalid RELIABILITY_HIGH_RISK_NO_SHOW: %w", err)
	}

	moderateRisk, err := strconv.ParseFloat(getEnv("RELIABILITY_MODERATE_NO_SHOW", "0.15"), 64)
	if err != nil {
		return BookingConfig{}, fmt.Errorf("invalid RELIABILITY_MODERATE_NO_SHOW: %w", err)
	}

	minHistory, err := strconv.Atoi(getEnv("RELIABILITY_MIN_HISTORY", "3"))
	if err != nil {
		return BookingConfig{}, fmt.Errorf("invalid RELIABILITY_MIN_HISTORY: %w", err)
	}

	requireConfirmation, err := strconv.ParseBool(getEnv("BOOKING_HIGH_RISK_CONFIRMATION", "true"))
	if err != nil {
		return BookingConfig{}, fmt.Errorf("invalid BOOKING_HIGH_RISK_CONFIRMATION: %w", err)
	}

	return BookingConfig{
		MaxTotalPending:             maxTotalPending,
		SlotIntervalMinutes:         slotInterval,
		DefaultConsultationMinutes:  defaultConsultation,
		HighRiskNoShowRatio:         highRisk,
		ModerateRiskNoShowRatio:     moderateRisk,
		MinHistoryForScoring:        minHistory,
		RequireHighRiskConfirmation: requireConfirmation,
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
