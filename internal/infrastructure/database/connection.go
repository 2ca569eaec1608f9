// Package database opens typed connections to the CDR database under a
// closed set of roles.
package database

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	sharedConfig "cdrcgi/internal/shared/config"
	"cdrcgi/internal/shared/errors"
	"cdrcgi/internal/shared/logger"
)

// Role selects the database account a connection runs under.
type Role string

const (
	// RoleCDR is the privileged default account.
	RoleCDR Role = "cdr"
	// RoleGuest is the read-only account used for unauthenticated and
	// public report traffic.
	RoleGuest Role = "guest"
)

var (
	mu    sync.RWMutex
	cfg   *sharedConfig.DatabaseConfig
	conns = map[string]*gorm.DB{}
)

// Init records the database configuration and verifies the privileged
// connection.
func Init(c *sharedConfig.DatabaseConfig) error {
	mu.Lock()
	cfg = c
	conns = map[string]*gorm.DB{}
	mu.Unlock()

	db, err := Connect(RoleCDR, 0)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.NewInfrastructureError("failed to get underlying sql.DB", err.Error())
	}
	if err := sqlDB.Ping(); err != nil {
		return errors.NewInfrastructureError("failed to ping database", err.Error())
	}

	logger.Info("database connection established", "database", c.Database)
	return nil
}

// Connect returns a pooled connection for a role. Timeout is in seconds;
// zero takes the configured default (a few seconds). Callers running
// long analytical queries may pass minutes. An unknown role is a
// programming error.
func Connect(role Role, timeoutSeconds int) (*gorm.DB, error) {
	mu.RLock()
	c := cfg
	mu.RUnlock()
	if c == nil {
		return nil, errors.NewMisuseError("database not initialized")
	}

	var account sharedConfig.DatabaseAccount
	switch role {
	case RoleCDR:
		account = c.CDR
	case RoleGuest:
		account = c.Guest
	default:
		return nil, errors.NewMisuseError("unknown database role", string(role))
	}

	key := fmt.Sprintf("%s/%d", role, timeoutSeconds)
	mu.RLock()
	if db, ok := conns[key]; ok {
		mu.RUnlock()
		return db, nil
	}
	mu.RUnlock()

	db, err := open(c, dsnFor(c, account, timeoutSeconds))
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if existing, ok := conns[key]; ok {
		return existing, nil
	}
	conns[key] = db
	return db, nil
}

// dsnFor carries the caller-requested timeout through to the driver;
// zero takes the configured default.
func dsnFor(c *sharedConfig.DatabaseConfig, account sharedConfig.DatabaseAccount, timeoutSeconds int) string {
	return c.DSN(account, timeoutSeconds)
}

func open(c *sharedConfig.DatabaseConfig, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       dsn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:      gormLogger.Default.LogMode(gormLogger.Warn),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, errors.NewInfrastructureError("failed to connect to database", err.Error())
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.NewInfrastructureError("failed to get underlying sql.DB", err.Error())
	}
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetime) * time.Minute)

	return db, nil
}

// SetForRole installs a connection directly; repository tests use this
// with an in-memory database.
func SetForRole(role Role, db *gorm.DB) {
	mu.Lock()
	defer mu.Unlock()
	if cfg == nil {
		cfg = &sharedConfig.DatabaseConfig{}
	}
	conns[fmt.Sprintf("%s/0", role)] = db
}

// Close shuts down all pooled connections.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for key, db := range conns {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("error closing database connection", "role", key, "error", err)
			}
		}
	}
	conns = map[string]*gorm.DB{}
}
