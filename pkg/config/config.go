package config

import (
	"time"

	dbutils "github.com/tendant/db-utils/db"

	"github.com/assia769/Assojet-sub000/pkg/notification"
)

type AuthDbConfig struct {
	Host     string `env:"AUTH_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"AUTH_PG_PORT" env-default:"5432"`
	Database string `env:"AUTH_PG_DATABASE" env-default:"auth_db"`
	User     string `env:"AUTH_PG_USER" env-default:"auth"`
	Password string `env:"AUTH_PG_PASSWORD" env-default:"pwd"`
}

func (d AuthDbConfig) ToDbConfig() dbutils.DbConfig {
	return dbutils.DbConfig{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		User:     d.User,
		Password: d.Password,
	}
}

type JwtConfig struct {
	JwtSecret      string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer         string `env:"JWT_ISSUER" env-default:"clinic-portal"`
	Audience       string `env:"JWT_AUDIENCE" env-default:"clinic-portal-web"`
	ExpiryHours    int    `env:"JWT_EXPIRY_HOURS" env-default:"8"`
	CookieHttpOnly bool   `env:"COOKIE_HTTP_ONLY" env-default:"true"`
	CookieSecure   bool   `env:"COOKIE_SECURE" env-default:"false"`
}

func (c JwtConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type TwoFaConfig struct {
	Issuer            string `env:"TWOFA_ISSUER" env-default:"clinic-portal"`
	PendingTTLSeconds int    `env:"TWOFA_PENDING_TTL_SECONDS" env-default:"600"`
	BackupCodeCount   int    `env:"TWOFA_BACKUP_CODE_COUNT" env-default:"10"`
}

func (c TwoFaConfig) PendingTTL() time.Duration {
	return time.Duration(c.PendingTTLSeconds) * time.Second
}

type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     int    `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME"`
	Password string `env:"EMAIL_PASSWORD"`
	From     string `env:"EMAIL_FROM" env-default:"noreply@clinic.example"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
	Enabled  bool   `env:"EMAIL_ENABLED" env-default:"false"`
}

func (c EmailConfig) ToSMTPConfig() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:     c.Host,
		Port:     c.Port,
		TLS:      c.TLS,
		Username: c.Username,
		Password: c.Password,
		From:     c.From,
	}
}
