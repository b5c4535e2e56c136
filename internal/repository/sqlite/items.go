package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

const itemsTable = "items"

var itemColumns = []string{"id", "tyre_size", "company", "series", "qty", "last_updated"}

// ItemRepository stores current stock levels in the items table.
type ItemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new item repository.
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Get returns the record with the given identifier or models.ErrNotFound.
func (r *ItemRepository) Get(ctx context.Context, id int64) (models.StockRecord, error) {
	query := builder.Select(itemColumns...).From(itemsTable).Where(sq.Eq{"id": id})

	record, err := r.selectOne(ctx, query)
	if err != nil {
		return models.StockRecord{}, mapError(err, fmt.Sprintf("get item %d", id))
	}
	return record, nil
}

// FindBySignature returns the lowest-id record whose size, company and series
// equal the signature exactly; absent fields only match NULL.
func (r *ItemRepository) FindBySignature(ctx context.Context, sig models.Signature) (models.StockRecord, error) {
	query := builder.Select(itemColumns...).From(itemsTable).
		Where(sq.Eq{
			"tyre_size": sig.Size,
			"company":   nullable(sig.Company),
			"series":    nullable(sig.Series),
		}).
		OrderBy("id ASC").
		Limit(1)

	record, err := r.selectOne(ctx, query)
	if err != nil {
		return models.StockRecord{}, mapError(err, fmt.Sprintf("find item by signature %s", sig))
	}
	return record, nil
}

// Insert stores a new record. When id is nil SQLite assigns the next rowid.
// It returns the identifier of the inserted row.
func (r *ItemRepository) Insert(ctx context.Context, id *int64, record models.StockRecord) (int64, error) {
	columns := []string{"tyre_size", "company", "series", "qty", "last_updated"}
	values := []any{record.Size, nullable(record.Company), nullable(record.Series), record.Quantity, formatTime(record.LastUpdated)}
	if id != nil {
		columns = append([]string{"id"}, columns...)
		values = append([]any{*id}, values...)
	}

	query, args, err := builder.Insert(itemsTable).Columns(columns...).Values(values...).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert item: %w", err)
	}

	res, err := QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "insert item")
	}

	if id != nil {
		return *id, nil
	}

	newID, err := res.LastInsertId()
	if err != nil {
		return 0, mapError(err, "insert item last id")
	}
	return newID, nil
}

// Update overwrites every column of the record identified by record.ID.
func (r *ItemRepository) Update(ctx context.Context, record models.StockRecord) error {
	query, args, err := builder.Update(itemsTable).
		Set("tyre_size", record.Size).
		Set("company", nullable(record.Company)).
		Set("series", nullable(record.Series)).
		Set("qty", record.Quantity).
		Set("last_updated", formatTime(record.LastUpdated)).
		Where(sq.Eq{"id": record.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update item: %w", err)
	}

	op := fmt.Sprintf("update item %d", record.ID)
	res, err := QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, op)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err, op)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// List returns every record ordered by identifier ascending.
func (r *ItemRepository) List(ctx context.Context) ([]models.StockRecord, error) {
	query, args, err := builder.Select(itemColumns...).From(itemsTable).OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list items: %w", err)
	}

	rows, err := QuerierFromCtx(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list items")
	}
	defer rows.Close()

	items := make([]models.StockRecord, 0)
	for rows.Next() {
		record, err := scanItem(rows)
		if err != nil {
			return nil, mapError(err, "scan item")
		}
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list items")
	}

	return items, nil
}

// DeleteAll removes every record.
func (r *ItemRepository) DeleteAll(ctx context.Context) error {
	query, args, err := builder.Delete(itemsTable).ToSql()
	if err != nil {
		return fmt.Errorf("build delete items: %w", err)
	}
	if _, err := QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "delete items")
	}
	return nil
}

func (r *ItemRepository) selectOne(ctx context.Context, query sq.SelectBuilder) (models.StockRecord, error) {
	sqlText, args, err := query.ToSql()
	if err != nil {
		return models.StockRecord{}, fmt.Errorf("build select item: %w", err)
	}
	return scanItem(QuerierFromCtx(ctx, r.db).QueryRowContext(ctx, sqlText, args...))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.StockRecord, error) {
	var (
		record      models.StockRecord
		company     sql.NullString
		series      sql.NullString
		lastUpdated string
	)
	if err := row.Scan(&record.ID, &record.Size, &company, &series, &record.Quantity, &lastUpdated); err != nil {
		return models.StockRecord{}, err
	}

	ts, err := parseTime(lastUpdated)
	if err != nil {
		return models.StockRecord{}, fmt.Errorf("item %d last_updated %q: %w", record.ID, lastUpdated, err)
	}

	record.Company = optional(company)
	record.Series = optional(series)
	record.LastUpdated = ts
	return record, nil
}
