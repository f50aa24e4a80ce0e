package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// OTP delivery policies for the mentor approval code.
const (
	OTPDeliveryStudentEmail   = "student_email"
	OTPDeliveryMentorResponse = "mentor_response"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Leave         LeaveConfig
	Enrollment    EnrollmentConfig
	Mail          MailConfig
	Notifications NotificationConfig
	Settings      SettingsConfig
	NATS          NATSConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LeaveConfig drives the leave approval workflow.
type LeaveConfig struct {
	EnabledDefault      bool
	PublicBaseURL       string
	PassLinkSecret      string
	PassLinkTTL         time.Duration
	ParentLinkBaseURL   string
	OTPTTL              time.Duration
	OTPLength           int
	OTPDelivery         string
	OTPBcryptCost       int
	CampusTimezone      string
	GatePassInstitution string
}

// EnrollmentConfig bounds section changes.
type EnrollmentConfig struct {
	MaxChanges                 int
	FreezeWindow               time.Duration
	RegistrationEnabledDefault bool
}

// MailConfig points at the outbound SMTP relay.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// NotificationConfig sizes the asynchronous delivery queue.
type NotificationConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// SettingsConfig tunes feature flag caching.
type SettingsConfig struct {
	CacheTTL time.Duration
}

// NATSConfig enables workflow event publication when URL is set.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// Location resolves the campus timezone, falling back to UTC.
func (c LeaveConfig) Location() *time.Location {
	if c.CampusTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.CampusTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Leave = LeaveConfig{
		EnabledDefault:      v.GetBool("LEAVE_ENABLED_DEFAULT"),
		PublicBaseURL:       strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		PassLinkSecret:      v.GetString("PASS_LINK_SECRET"),
		PassLinkTTL:         parseDuration(v.GetString("PASS_LINK_TTL"), 12*time.Hour),
		ParentLinkBaseURL:   strings.TrimRight(v.GetString("LEAVE_PARENT_LINK_BASE_URL"), "/"),
		OTPTTL:              parseDuration(v.GetString("LEAVE_OTP_TTL"), 5*time.Minute),
		OTPLength:           v.GetInt("LEAVE_OTP_LENGTH"),
		OTPDelivery:         normaliseOTPDelivery(v.GetString("LEAVE_OTP_DELIVERY")),
		OTPBcryptCost:       v.GetInt("LEAVE_OTP_BCRYPT_COST"),
		CampusTimezone:      v.GetString("CAMPUS_TIMEZONE"),
		GatePassInstitution: v.GetString("GATE_PASS_INSTITUTION"),
	}

	cfg.Enrollment = EnrollmentConfig{
		MaxChanges:                 v.GetInt("ENROLLMENT_MAX_CHANGES"),
		FreezeWindow:               parseDuration(v.GetString("ENROLLMENT_FREEZE_WINDOW"), 24*time.Hour),
		RegistrationEnabledDefault: v.GetBool("REGISTRATION_ENABLED_DEFAULT"),
	}

	cfg.Mail = MailConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
		Timeout:  parseDuration(v.GetString("SMTP_TIMEOUT"), 10*time.Second),
	}

	cfg.Notifications = NotificationConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		BufferSize: v.GetInt("NOTIFY_BUFFER"),
		MaxRetries: v.GetInt("NOTIFY_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Settings = SettingsConfig{
		CacheTTL: parseDuration(v.GetString("SETTINGS_CACHE_TTL"), time.Minute),
	}

	cfg.NATS = NATSConfig{
		URL:           v.GetString("NATS_URL"),
		SubjectPrefix: v.GetString("NATS_SUBJECT_PREFIX"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "student_affairs")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "student-affairs")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("LEAVE_ENABLED_DEFAULT", true)
	v.SetDefault("LEAVE_PARENT_LINK_BASE_URL", "http://localhost:3000")
	v.SetDefault("LEAVE_OTP_TTL", "5m")
	v.SetDefault("LEAVE_OTP_LENGTH", 6)
	v.SetDefault("LEAVE_OTP_DELIVERY", OTPDeliveryStudentEmail)
	v.SetDefault("LEAVE_OTP_BCRYPT_COST", 10)
	v.SetDefault("CAMPUS_TIMEZONE", "UTC")
	v.SetDefault("GATE_PASS_INSTITUTION", "Student Affairs Office")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080/api/v1")
	v.SetDefault("PASS_LINK_SECRET", "")
	v.SetDefault("PASS_LINK_TTL", "12h")

	v.SetDefault("ENROLLMENT_MAX_CHANGES", 2)
	v.SetDefault("ENROLLMENT_FREEZE_WINDOW", "24h")
	v.SetDefault("REGISTRATION_ENABLED_DEFAULT", true)

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 1025)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "no-reply@student-affairs.local")
	v.SetDefault("SMTP_TIMEOUT", "10s")

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_BUFFER", 64)
	v.SetDefault("NOTIFY_MAX_RETRIES", 0)
	v.SetDefault("NOTIFY_RETRY_DELAY", "2s")

	v.SetDefault("SETTINGS_CACHE_TTL", "1m")

	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SUBJECT_PREFIX", "student_affairs")
}

func normaliseOTPDelivery(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case OTPDeliveryMentorResponse:
		return OTPDeliveryMentorResponse
	default:
		return OTPDeliveryStudentEmail
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
