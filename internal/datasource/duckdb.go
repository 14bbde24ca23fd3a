package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"barsim/internal/logger"
	"barsim/internal/types"
	"barsim/pkg/errors"
)

// DuckDBBarSource backs BarSource with an embedded DuckDB instance. CSV
// and parquet files are exposed through a `bars` view so every read goes
// through the same SQL surface.
type DuckDBBarSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBBarSource creates a bar source on the DuckDB database at path;
// use ":memory:" (or "") for a throwaway in-memory instance. Initialize()
// loads the actual market data.
func NewDuckDBBarSource(path string, logger *logger.Logger) (BarSource, error) {
	if path == ":memory:" {
		path = ""
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatasourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBBarSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements BarSource. The file's extension selects the
// DuckDB reader: read_csv_auto for .csv, read_parquet for .parquet.
func (d *DuckDBBarSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB bar source", zap.String("path", path))

	var reader string

	switch {
	case strings.HasSuffix(path, ".csv"):
		reader = "read_csv_auto"
	case strings.HasSuffix(path, ".parquet"):
		reader = "read_parquet"
	default:
		return errors.Newf(errors.ErrCodeDatasourceUnavailable,
			"unsupported data file %s: want .csv or .parquet", path)
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS bars;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// Squirrel doesn't support CREATE VIEW, so this stays raw SQL.
	query := fmt.Sprintf(`
		CREATE VIEW bars AS
		SELECT symbol, date, open, high, low, close, volume FROM %s('%s');
	`, reader, path)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDatasourceUnavailable, err, "failed to load %s", path)
	}

	return nil
}

// windowConditions builds the WHERE fragments for an optional date window.
func windowConditions(start, end optional.Option[time.Time]) ([]string, []interface{}) {
	var (
		conditions []string
		params     []interface{}
	)

	if start.IsSome() {
		params = append(params, start.Unwrap())
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(params)))
	}

	if end.IsSome() {
		params = append(params, end.Unwrap())
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(params)))
	}

	return conditions, params
}

// Count implements BarSource.
func (d *DuckDBBarSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query := "SELECT COUNT(*) FROM bars"

	conditions, params := windowConditions(start, end)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := d.db.QueryRow(query, params...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "count query failed", err)
	}

	return count, nil
}

// ReadAll implements BarSource. Bars stream out ordered by date then
// symbol, the order the engine consumes them in.
func (d *DuckDBBarSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		query := `
			SELECT symbol, date, open, high, low, close, volume
			FROM bars
		`

		conditions, params := windowConditions(start, end)
		if len(conditions) > 0 {
			query += " WHERE " + strings.Join(conditions, " AND ")
		}

		query += " ORDER BY date ASC, symbol ASC"

		rows, err := d.db.Query(query, params...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "read query failed", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var bar types.Bar

			err := rows.Scan(&bar.Symbol, &bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
			if err != nil {
				yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "row scan failed", err))

				return
			}

			bar.Date = types.DateOf(bar.Date)

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "row iteration failed", err))
		}
	}
}

// ReadLastBar implements BarSource.
func (d *DuckDBBarSource) ReadLastBar(symbol string) (types.Bar, error) {
	query, args, err := d.sq.
		Select("symbol", "date", "open", "high", "low", "close", "volume").
		From("bars").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("date DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var bar types.Bar

	err = d.db.QueryRow(query, args...).
		Scan(&bar.Symbol, &bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
	if err == sql.ErrNoRows {
		return types.Bar{}, errors.Newf(errors.ErrCodeDataNotFound, "no bars for symbol %s", symbol)
	}

	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "last bar query failed", err)
	}

	bar.Date = types.DateOf(bar.Date)

	return bar, nil
}

// Symbols implements BarSource.
func (d *DuckDBBarSource) Symbols() ([]string, error) {
	rows, err := d.db.Query("SELECT DISTINCT symbol FROM bars ORDER BY symbol ASC")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "symbols query failed", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "symbol scan failed", err)
		}

		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// ExecuteSQL implements BarSource.
func (d *DuckDBBarSource) ExecuteSQL(query string, params ...interface{}) ([]SQLResult, error) {
	rows, err := d.db.Query(query, params...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "query failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read columns", err)
	}

	var results []SQLResult

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "row scan failed", err)
		}

		row := SQLResult{Values: make(map[string]interface{}, len(columns))}
		for i, column := range columns {
			row.Values[column] = values[i]
		}

		results = append(results, row)
	}

	return results, rows.Err()
}

// Close implements BarSource.
func (d *DuckDBBarSource) Close() error {
	return d.db.Close()
}
