package config

import "fmt"

// Tier names the deployment environment. The resolver maps a tier to
// database accounts, filesystem roots, and the upstream CDR server.
type Tier string

const (
	TierDevelopment Tier = "development"
	TierStaging     Tier = "staging"
	TierProduction  Tier = "production"
)

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseAccount holds credentials for one database role.
type DatabaseAccount struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type DatabaseConfig struct {
	Host            string          `mapstructure:"host"`
	Port            int             `mapstructure:"port"`
	Database        string          `mapstructure:"database"`
	CDR             DatabaseAccount `mapstructure:"cdr"`
	Guest           DatabaseAccount `mapstructure:"guest"`
	TimeoutSeconds  int             `mapstructure:"timeout_seconds"`
	MaxIdleConns    int             `mapstructure:"max_idle_conns"`
	MaxOpenConns    int             `mapstructure:"max_open_conns"`
	ConnMaxLifetime int             `mapstructure:"conn_max_lifetime"`
}

// DSN builds the MySQL connection string for one account. Timeout is in
// seconds; zero falls back to the configured default.
func (d *DatabaseConfig) DSN(account DatabaseAccount, timeoutSeconds int) string {
	if timeoutSeconds <= 0 {
		timeoutSeconds = d.TimeoutSeconds
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds",
		account.Username, account.Password, d.Host, d.Port, d.Database, timeoutSeconds)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	// Directory for per-endpoint log files; empty disables them.
	Directory string `mapstructure:"directory"`
}

// UpstreamConfig locates the CDR repository server (the legacy XML tunnel).
type UpstreamConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (u *UpstreamConfig) BaseURL() string {
	return fmt.Sprintf("https://%s:%d", u.Host, u.Port)
}

// PathsConfig mirrors the filesystem layout the endpoints consume.
type PathsConfig struct {
	BaseDir      string `mapstructure:"base_dir"`
	DocumentRoot string `mapstructure:"document_root"`
	// Mailer outputs moved once already; keep both generations until the
	// old tree is retired.
	// TODO: drop MailersLegacyDir once no jobs reference Mailers/Output.
	MailersDir       string `mapstructure:"mailers_dir"`
	MailersLegacyDir string `mapstructure:"mailers_legacy_dir"`
	ReportsDir       string `mapstructure:"reports_dir"`
	DTDDir           string `mapstructure:"dtd_dir"`
}

type AuthConfig struct {
	JWTSecret        string `mapstructure:"jwt_secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
	BcryptCost       int    `mapstructure:"bcrypt_cost"`
	// Inactivity window after which a session row is treated as expired.
	SessionExpHours int `mapstructure:"session_exp_hours"`
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	OpsAddress   string `mapstructure:"ops_address"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type SearchConfig struct {
	MaxRows int `mapstructure:"max_rows"`
}
