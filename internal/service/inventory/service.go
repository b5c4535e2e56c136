package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

// ItemStore persists current stock levels.
type ItemStore interface {
	Get(ctx context.Context, id int64) (models.StockRecord, error)
	FindBySignature(ctx context.Context, sig models.Signature) (models.StockRecord, error)
	Insert(ctx context.Context, id *int64, record models.StockRecord) (int64, error)
	Update(ctx context.Context, record models.StockRecord) error
	List(ctx context.Context) ([]models.StockRecord, error)
	DeleteAll(ctx context.Context) error
}

// AuditLog persists the append-only change log.
type AuditLog interface {
	Append(ctx context.Context, entry models.AuditEntry) (int64, error)
	List(ctx context.Context) ([]models.AuditEntry, error)
	ListByItem(ctx context.Context, itemID int64) ([]models.AuditEntry, error)
	DeleteAll(ctx context.Context) error
}

// TxRunner scopes a unit of work to one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AddStockInput describes a direct stock-in.
type AddStockInput struct {
	ID       *int64  `json:"id"`
	Size     string  `json:"tyre_size"`
	Company  *string `json:"company"`
	Series   *string `json:"series"`
	Quantity int     `json:"qty"`
	Note     *string `json:"note"`
}

// RemoveByIDInput describes a stock-out addressed by identifier.
type RemoveByIDInput struct {
	ID       int64         `json:"id"`
	Quantity int           `json:"qty"`
	Reason   models.Reason `json:"reason"`
	Note     *string       `json:"note"`
}

// RemoveBySignatureInput describes a stock-out addressed by signature.
type RemoveBySignatureInput struct {
	Signature models.Signature `json:"signature"`
	Quantity  int              `json:"qty"`
	Reason    models.Reason    `json:"reason"`
	Note      *string          `json:"note"`
}

// Service owns every mutation of stock levels. Each quantity change and its
// audit entry are written in the same transaction.
type Service struct {
	items  ItemStore
	audit  AuditLog
	tx     TxRunner
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new inventory service.
func NewService(items ItemStore, audit AuditLog, tx TxRunner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		items:  items,
		audit:  audit,
		tx:     tx,
		logger: logger,
		now:    time.Now,
	}
}

// AddStock records a stock-in. With an identifier the record is updated
// (descriptive fields overwritten, quantity added) or created with that
// identifier. Without one a new record is always created; AddStock never
// merges by signature.
func (s *Service) AddStock(ctx context.Context, in AddStockInput) (int64, error) {
	in.Size = strings.TrimSpace(in.Size)
	if in.Size == "" {
		return 0, models.NewValidationError("tyre_size", "is required")
	}
	in.Company = blankToAbsent(in.Company)
	in.Series = blankToAbsent(in.Series)
	in.Note = blankToAbsent(in.Note)
	if in.Quantity <= 0 {
		return 0, models.NewValidationError("qty", "must be greater than zero")
	}

	var itemID int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ts := s.now().UTC()
		record := models.StockRecord{Size: in.Size, Company: in.Company, Series: in.Series, Quantity: in.Quantity, LastUpdated: ts}

		stored, _, err := s.upsertByID(ctx, in.ID, record)
		if err != nil {
			return err
		}
		itemID = stored.ID

		return s.appendAudit(ctx, stored.ID, record.Signature(), in.Quantity, models.ReasonStockIn, ts, in.Note)
	})
	if err != nil {
		return 0, fmt.Errorf("add stock: %w", err)
	}

	s.logger.Info("stock added", zap.Int64("item_id", itemID), zap.Int("qty", in.Quantity))
	return itemID, nil
}

// RemoveStockByID records a stock-out against the record with the given
// identifier.
func (s *Service) RemoveStockByID(ctx context.Context, in RemoveByIDInput) error {
	if err := validateRemoval(in.Quantity, in.Reason); err != nil {
		return err
	}
	in.Note = blankToAbsent(in.Note)

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		record, err := s.items.Get(ctx, in.ID)
		if err != nil {
			return err
		}
		return s.decrement(ctx, record, in.Quantity, in.Reason, in.Note)
	})
	if err != nil {
		return fmt.Errorf("remove stock from item %d: %w", in.ID, err)
	}

	s.logger.Info("stock removed", zap.Int64("item_id", in.ID), zap.Int("qty", in.Quantity), zap.String("reason", string(in.Reason)))
	return nil
}

// RemoveStockBySignature records a stock-out against the record matching
// the signature exactly.
func (s *Service) RemoveStockBySignature(ctx context.Context, in RemoveBySignatureInput) error {
	in.Signature.Size = strings.TrimSpace(in.Signature.Size)
	if in.Signature.Size == "" {
		return models.NewValidationError("tyre_size", "is required")
	}
	in.Signature.Company = blankToAbsent(in.Signature.Company)
	in.Signature.Series = blankToAbsent(in.Signature.Series)
	in.Note = blankToAbsent(in.Note)
	if err := validateRemoval(in.Quantity, in.Reason); err != nil {
		return err
	}

	var itemID int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		record, err := s.items.FindBySignature(ctx, in.Signature)
		if err != nil {
			return err
		}
		itemID = record.ID
		return s.decrement(ctx, record, in.Quantity, in.Reason, in.Note)
	})
	if err != nil {
		return fmt.Errorf("remove stock from %s: %w", in.Signature, err)
	}

	s.logger.Info("stock removed", zap.Int64("item_id", itemID), zap.Int("qty", in.Quantity), zap.String("reason", string(in.Reason)))
	return nil
}

// ListItems returns every record ordered by identifier.
func (s *Service) ListItems(ctx context.Context) ([]models.StockRecord, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ListTransactions returns the audit log, newest first.
func (s *Service) ListTransactions(ctx context.Context) ([]models.AuditEntry, error) {
	entries, err := s.audit.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return entries, nil
}

// ItemHistory returns the audit entries of one identifier, newest first. The
// history survives the record itself.
func (s *Service) ItemHistory(ctx context.Context, itemID int64) ([]models.AuditEntry, error) {
	entries, err := s.audit.ListByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("history of item %d: %w", itemID, err)
	}
	return entries, nil
}

// decrement must run inside a transaction; the stock check and the write
// see the same row.
func (s *Service) decrement(ctx context.Context, record models.StockRecord, qty int, reason models.Reason, note *string) error {
	if qty > record.Quantity {
		return &models.InsufficientStockError{ItemID: record.ID, Current: record.Quantity, Requested: qty}
	}

	ts := s.now().UTC()
	record.Quantity -= qty
	record.LastUpdated = ts
	if err := s.items.Update(ctx, record); err != nil {
		return err
	}

	return s.appendAudit(ctx, record.ID, record.Signature(), -qty, reason, ts, note)
}

// upsertByID applies the identifier path shared by AddStock and the merge
// import: overwrite descriptive fields and add the quantity when the record
// exists, otherwise insert (store-assigned id when id is nil). It returns
// the stored record and whether an existing record was updated.
func (s *Service) upsertByID(ctx context.Context, id *int64, record models.StockRecord) (models.StockRecord, bool, error) {
	if id != nil {
		existing, err := s.items.Get(ctx, *id)
		switch {
		case err == nil:
			record.ID = existing.ID
			record.Quantity += existing.Quantity
			if err := s.items.Update(ctx, record); err != nil {
				return models.StockRecord{}, false, err
			}
			return record, true, nil
		case !isNotFound(err):
			return models.StockRecord{}, false, err
		}
	}

	newID, err := s.items.Insert(ctx, id, record)
	if err != nil {
		return models.StockRecord{}, false, err
	}
	record.ID = newID
	return record, false, nil
}

func (s *Service) appendAudit(ctx context.Context, itemID int64, sig models.Signature, change int, reason models.Reason, ts time.Time, note *string) error {
	_, err := s.audit.Append(ctx, models.AuditEntry{
		ItemID:    itemID,
		Size:      sig.Size,
		Company:   sig.Company,
		Series:    sig.Series,
		Change:    change,
		Reason:    reason,
		Timestamp: ts,
		Note:      note,
	})
	return err
}

// blankToAbsent trims optional text; blank values are stored as NULL so
// they match an absent signature field.
func blankToAbsent(value *string) *string {
	return models.OptionalString(models.Deref(value))
}

func validateRemoval(qty int, reason models.Reason) error {
	if qty <= 0 {
		return models.NewValidationError("qty", "must be greater than zero")
	}
	if !reason.IsRemoval() {
		return models.NewValidationError("reason", fmt.Sprintf("must be one of %v", models.RemovalReasons))
	}
	return nil
}
