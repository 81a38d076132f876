// Package mysql implements db.Storage on a MySQL database using gorm. Tables
// payments and subscriptions carry unique indexes on the processor
// identifiers.
package mysql

import (
	"fmt"
	"time"

	"github.com/vocdoni/saas-checkout/db"
	"go.vocdoni.io/dvote/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	maxRetries = 5
	retryDelay = 5 * time.Second
)

// Config holds the connection parameters. DSN takes precedence over the
// individual fields when it is set.
type Config struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// dsn returns the data source name, e.g.
// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=UTC"
func (c *Config) dsn() string {
	if c.DSN != "" {
		return c.DSN
	}
	port := c.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, port, c.Database)
}

// Storage is the gorm backed db.Storage.
type Storage struct {
	gorm *gorm.DB
}

var _ db.Storage = (*Storage)(nil)

// New opens the connection described by conf, retrying a few times while the
// server comes up, and migrates the schema.
func New(conf *Config) (*Storage, error) {
	if conf == nil || (conf.DSN == "" && conf.Database == "") {
		return nil, fmt.Errorf("mysql database is not defined")
	}
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		st, err := Open(mysql.New(mysql.Config{
			DSN:               conf.dsn(),
			DefaultStringSize: 256,
		}))
		if err == nil {
			if err := st.Migrate(); err != nil {
				return nil, err
			}
			return st, nil
		}
		lastErr = err
		log.Warnw("failed to connect to mysql", "try", i+1, "maxTries", maxRetries, "error", err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("cannot connect to mysql: %w", lastErr)
}

// Open wraps an already configured dialector. Duplicate key errors are
// translated so they can be matched with gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector) (*Storage, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}
	return &Storage{gorm: gdb}, nil
}

// Migrate creates or updates the tables.
func (s *Storage) Migrate() error {
	if err := s.gorm.AutoMigrate(&paymentModel{}, &subscriptionModel{}); err != nil {
		return fmt.Errorf("failed to migrate mysql schema: %w", err)
	}
	return nil
}

// Reset deletes every row of both tables.
func (s *Storage) Reset() error {
	log.Infof("resetting database")
	if err := s.gorm.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&paymentModel{}).Error; err != nil {
		return err
	}
	return s.gorm.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&subscriptionModel{}).Error
}

// Close closes the underlying connection pool.
func (s *Storage) Close() {
	sqlDB, err := s.gorm.DB()
	if err != nil {
		log.Warn(err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn(err)
	}
}
