package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

const transactionsTable = "transactions"

var transactionColumns = []string{"id", "item_id", "tyre_size", "company", "series", "change", "reason", "timestamp", "note"}

// AuditRepository is the append-only change log stored in the transactions
// table.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts an audit entry and returns its store-assigned identifier.
func (r *AuditRepository) Append(ctx context.Context, entry models.AuditEntry) (int64, error) {
	query, args, err := builder.Insert(transactionsTable).
		Columns("item_id", "tyre_size", "company", "series", "change", "reason", "timestamp", "note").
		Values(entry.ItemID, entry.Size, nullable(entry.Company), nullable(entry.Series), entry.Change,
			string(entry.Reason), formatTime(entry.Timestamp), nullable(entry.Note)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert transaction: %w", err)
	}

	res, err := QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "insert transaction")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, mapError(err, "insert transaction last id")
	}
	return id, nil
}

// List returns the whole log, newest first.
func (r *AuditRepository) List(ctx context.Context) ([]models.AuditEntry, error) {
	return r.list(ctx, builder.Select(transactionColumns...).From(transactionsTable))
}

// ListByItem returns the log entries that reference itemID, newest first.
func (r *AuditRepository) ListByItem(ctx context.Context, itemID int64) ([]models.AuditEntry, error) {
	return r.list(ctx, builder.Select(transactionColumns...).From(transactionsTable).Where(sq.Eq{"item_id": itemID}))
}

// DeleteAll clears the log. Only the destructive replace import calls it.
func (r *AuditRepository) DeleteAll(ctx context.Context) error {
	query, args, err := builder.Delete(transactionsTable).ToSql()
	if err != nil {
		return fmt.Errorf("build delete transactions: %w", err)
	}
	if _, err := QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "delete transactions")
	}
	return nil
}

func (r *AuditRepository) list(ctx context.Context, query sq.SelectBuilder) ([]models.AuditEntry, error) {
	sqlText, args, err := query.OrderBy("timestamp DESC", "id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list transactions: %w", err)
	}

	rows, err := QuerierFromCtx(ctx, r.db).QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, mapError(err, "list transactions")
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0)
	for rows.Next() {
		var (
			entry     models.AuditEntry
			size      sql.NullString
			company   sql.NullString
			series    sql.NullString
			reason    string
			timestamp string
			note      sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.ItemID, &size, &company, &series, &entry.Change, &reason, &timestamp, &note); err != nil {
			return nil, mapError(err, "scan transaction")
		}

		ts, err := parseTime(timestamp)
		if err != nil {
			return nil, fmt.Errorf("transaction %d timestamp %q: %w", entry.ID, timestamp, err)
		}

		entry.Size = size.String
		entry.Company = optional(company)
		entry.Series = optional(series)
		entry.Reason = models.Reason(reason)
		entry.Timestamp = ts
		entry.Note = optional(note)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list transactions")
	}

	return entries, nil
}
