package datastore

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StoreConfig selects and tunes the SQL backend.
type StoreConfig struct {
	Driver string
	// DSN is used as is when set. For sqlite it may be left empty and Path
	// is turned into a DSN with the default pragmas.
	DSN             string
	Path            string
	MaxOpenConns    int
	BusyTimeout     time.Duration
	ConnMaxLifetime time.Duration
}

func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Driver:          DriverSQLite,
		Path:            "data/ogpreview.db",
		MaxOpenConns:    10,
		BusyTimeout:     5 * time.Second,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// dataSourceName returns the DSN handed to sql.Open.
func (c StoreConfig) dataSourceName() (string, error) {
	switch c.Driver {
	case DriverSQLite:
		if c.DSN != "" {
			return c.DSN, nil
		}
		if strings.TrimSpace(c.Path) == "" {
			return "", fmt.Errorf("sqlite store requires a path or DSN")
		}
		busy := c.BusyTimeout
		if busy <= 0 {
			busy = 5 * time.Second
		}
		query := url.Values{}
		query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
		query.Add("_pragma", "journal_mode(WAL)")
		query.Add("_pragma", "foreign_keys(1)")
		query.Add("_time_format", "sqlite")
		return "file:" + c.Path + "?" + query.Encode(), nil
	case DriverPostgres:
		if c.DSN == "" {
			return "", fmt.Errorf("postgres store requires a DSN")
		}
		return c.DSN, nil
	default:
		return "", fmt.Errorf("unsupported storage driver %q", c.Driver)
	}
}
