package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"barsim/internal/types"
)

// SQLResult represents a row of data from a SQL query
type SQLResult struct {
	Values map[string]interface{}
}

// BarSource supplies the daily bars a run replays. Implementations must
// yield bars ordered by date first and symbol second, so the stream
// groups naturally into trading days and replays identically every time.
type BarSource interface {
	// Initialize loads market data from the given path, CSV or parquet.
	Initialize(path string) error
	// ReadAll reads every bar in the optional window and yields it to the caller
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// ReadLastBar reads the most recent bar for a specific symbol
	ReadLastBar(symbol string) (types.Bar, error)
	// Symbols returns the distinct symbols present in the data
	Symbols() ([]string, error)
	// Count returns the number of bars in the optional window
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// ExecuteSQL executes a raw SQL query and returns the results as SQLResult
	ExecuteSQL(query string, params ...interface{}) ([]SQLResult, error)
	// Close closes the data source and releases any resources
	Close() error
}
