// Package results persists a finished run: fills, orders and the equity
// curve as parquet files, metrics as YAML. Persistence happens once, after
// the engine finalizes; nothing here feeds back into the simulation.
package results

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"barsim/internal/logger"
	"barsim/internal/types"
	"barsim/pkg/errors"
)

// Writer stages run artifacts in an in-memory DuckDB and exports them to
// an output directory.
type Writer struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewWriter creates a results writer backed by an in-memory DuckDB.
func NewWriter(logger *logger.Logger) (*Writer, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to open duckdb", err)
	}

	w := &Writer{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}

	if err := w.createTables(); err != nil {
		db.Close()

		return nil, err
	}

	return w, nil
}

func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fills (
		order_id BIGINT,
		symbol VARCHAR,
		side VARCHAR,
		quantity BIGINT,
		price DOUBLE,
		date TIMESTAMP,
		commission DOUBLE
	);
	CREATE TABLE IF NOT EXISTS orders (
		id BIGINT,
		symbol VARCHAR,
		side VARCHAR,
		quantity BIGINT,
		submitted_at TIMESTAMP,
		state VARCHAR
	);
	CREATE TABLE IF NOT EXISTS equity_curve (
		date TIMESTAMP,
		equity DOUBLE
	);
	`

	if _, err := w.db.Exec(schema); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to create tables", err)
	}

	return nil
}

// AddFills stages fills for export.
func (w *Writer) AddFills(fills []types.Fill) error {
	for _, fill := range fills {
		query, args, err := w.sq.
			Insert("fills").
			Columns("order_id", "symbol", "side", "quantity", "price", "date", "commission").
			Values(fill.OrderID, fill.Symbol, string(fill.Side), fill.Quantity, fill.Price, fill.Date, fill.Commission).
			ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to build fill insert", err)
		}

		if _, err := w.db.Exec(query, args...); err != nil {
			return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to insert fill", err)
		}
	}

	return nil
}

// AddOrders stages orders for export.
func (w *Writer) AddOrders(orders []types.Order) error {
	for _, order := range orders {
		query, args, err := w.sq.
			Insert("orders").
			Columns("id", "symbol", "side", "quantity", "submitted_at", "state").
			Values(order.ID, order.Symbol, string(order.Side), order.Quantity, order.SubmittedAt, string(order.State)).
			ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to build order insert", err)
		}

		if _, err := w.db.Exec(query, args...); err != nil {
			return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to insert order", err)
		}
	}

	return nil
}

// AddEquityCurve stages the equity series for export.
func (w *Writer) AddEquityCurve(points []types.EquityPoint) error {
	for _, point := range points {
		query, args, err := w.sq.
			Insert("equity_curve").
			Columns("date", "equity").
			Values(point.Date, point.Equity).
			ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to build equity insert", err)
		}

		if _, err := w.db.Exec(query, args...); err != nil {
			return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to insert equity point", err)
		}
	}

	return nil
}

// Write exports the staged tables as parquet files plus metrics.yaml under
// path, creating the directory if needed.
func (w *Writer) Write(path string, metrics types.MetricsResult) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to create output directory", err)
	}

	// Squirrel doesn't support COPY, so the exports stay raw SQL.
	for _, table := range []string{"fills", "orders", "equity_curve"} {
		target := filepath.Join(path, table+".parquet")

		_, err := w.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, target))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeResultsWriteFailed, err, "failed to export %s", table)
		}
	}

	metricsPath := filepath.Join(path, "metrics.yaml")
	if err := types.WriteMetrics(metricsPath, metrics); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to write metrics", err)
	}

	w.logger.Info("Results written",
		zap.String("path", path),
	)

	return nil
}

// Close releases the staging database.
func (w *Writer) Close() error {
	return w.db.Close()
}
