package badger

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vigility/dashboard/pkg/config"
)

// Client owns an open Badger database
type Client struct {
	db *badger.DB
}

// NewClient opens (or creates) the Badger database in cfg.Dir
func NewClient(cfg *config.BadgerConfig) (*Client, error) {
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create badger dir: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Dir).WithLogger(newLogger(log.Logger))
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	log.Debug().Str("dir", cfg.Dir).Msg("Opened local store")
	return &Client{db: db}, nil
}

// NewInMemory opens a Badger database that lives only in memory
func NewInMemory() (*Client, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger db: %w", err)
	}
	return &Client{db: db}, nil
}

// DB returns the underlying database
func (c *Client) DB() *badger.DB {
	return c.db
}

// Close closes the database
func (c *Client) Close() error {
	return c.db.Close()
}

// logger forwards Badger's internal logging to zerolog. Badger is chatty at
// info level, so everything below warning is sent to debug.
type logger struct {
	zl zerolog.Logger
}

func newLogger(zl zerolog.Logger) *logger {
	return &logger{zl: zl.With().Str("component", "badger").Logger()}
}

func (l *logger) Errorf(format string, args ...interface{})   { l.zl.Error().Msgf(format, args...) }
func (l *logger) Warningf(format string, args ...interface{}) { l.zl.Warn().Msgf(format, args...) }
func (l *logger) Infof(format string, args ...interface{})    { l.zl.Debug().Msgf(format, args...) }
func (l *logger) Debugf(format string, args ...interface{})   { l.zl.Trace().Msgf(format, args...) }
