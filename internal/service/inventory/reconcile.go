package inventory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

// Notes attached to audit entries written by imports.
const (
	noteImportUpsert    = "import from spreadsheet"
	noteImportSignature = "imported by signature"
	noteImportNew       = "new row from spreadsheet"
	noteReplaceImport   = "replace inventory from spreadsheet"
)

// MergeByIdentifierThenSignature reconciles canonical rows into the store,
// in order, one transaction per row:
//
//   - identifier present and known: descriptive fields are overwritten with
//     the row's values and the quantity is added (import_upsert);
//   - identifier present and unknown: inserted with that identifier
//     (import_upsert);
//   - identifier absent and signature known: only the quantity is added;
//     descriptive fields are left as stored (import_merge_signature);
//   - identifier absent and signature unknown: inserted with a
//     store-assigned identifier (import_new).
//
// The import as a whole is not atomic. When a row fails, the rows before it
// stay committed and the returned result counts them.
func (s *Service) MergeByIdentifierThenSignature(ctx context.Context, rows []models.CanonicalRow) (models.ImportResult, error) {
	result := models.ImportResult{ItemIDs: make([]int64, 0, len(rows))}

	for _, row := range rows {
		var (
			itemID  int64
			outcome func(*models.ImportResult)
		)

		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			var err error
			itemID, outcome, err = s.mergeRow(ctx, row)
			return err
		})
		if err != nil {
			s.logger.Warn("merge import stopped", zap.Int("line", row.Line), zap.Int("committed_rows", result.Rows), zap.Error(err))
			return result, fmt.Errorf("merge import line %d: %w", row.Line, err)
		}

		outcome(&result)
		result.Rows++
		result.ItemIDs = append(result.ItemIDs, itemID)
	}

	s.logger.Info("merge import completed",
		zap.Int("rows", result.Rows),
		zap.Int("updated", result.Updated),
		zap.Int("inserted", result.Inserted),
		zap.Int("merged_by_signature", result.MergedBySignature),
		zap.Int("created", result.Created))

	return result, nil
}

func (s *Service) mergeRow(ctx context.Context, row models.CanonicalRow) (int64, func(*models.ImportResult), error) {
	ts := s.now().UTC()
	sig := row.Signature()

	if row.ID != nil {
		record := models.StockRecord{Size: row.Size, Company: row.Company, Series: row.Series, Quantity: row.Quantity, LastUpdated: ts}
		stored, updated, err := s.upsertByID(ctx, row.ID, record)
		if err != nil {
			return 0, nil, err
		}
		if err := s.appendAudit(ctx, stored.ID, sig, row.Quantity, models.ReasonImportUpsert, ts, notePtr(noteImportUpsert)); err != nil {
			return 0, nil, err
		}
		s.warnIfNegative(stored, row.Line)
		if updated {
			return stored.ID, func(r *models.ImportResult) { r.Updated++ }, nil
		}
		return stored.ID, func(r *models.ImportResult) { r.Inserted++ }, nil
	}

	existing, err := s.items.FindBySignature(ctx, sig)
	switch {
	case err == nil:
		existing.Quantity += row.Quantity
		existing.LastUpdated = ts
		if err := s.items.Update(ctx, existing); err != nil {
			return 0, nil, err
		}
		if err := s.appendAudit(ctx, existing.ID, sig, row.Quantity, models.ReasonImportMergeSignature, ts, notePtr(noteImportSignature)); err != nil {
			return 0, nil, err
		}
		s.warnIfNegative(existing, row.Line)
		return existing.ID, func(r *models.ImportResult) { r.MergedBySignature++ }, nil
	case isNotFound(err):
		record := models.StockRecord{Size: row.Size, Company: row.Company, Series: row.Series, Quantity: row.Quantity, LastUpdated: ts}
		id, err := s.items.Insert(ctx, nil, record)
		if err != nil {
			return 0, nil, err
		}
		if err := s.appendAudit(ctx, id, sig, row.Quantity, models.ReasonImportNew, ts, notePtr(noteImportNew)); err != nil {
			return 0, nil, err
		}
		return id, func(r *models.ImportResult) { r.Created++ }, nil
	default:
		return 0, nil, err
	}
}

// ReplaceAll wipes every record and the whole audit log, then inserts one
// record and one replace_import entry per row. It refuses to run unless
// confirmed is true. The wipe and the inserts share one transaction, so a
// failing row leaves the previous contents untouched.
func (s *Service) ReplaceAll(ctx context.Context, rows []models.CanonicalRow, confirmed bool) (models.ImportResult, error) {
	if !confirmed {
		return models.ImportResult{}, models.ErrConfirmationRequired
	}

	result := models.ImportResult{ItemIDs: make([]int64, 0, len(rows))}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.audit.DeleteAll(ctx); err != nil {
			return err
		}
		if err := s.items.DeleteAll(ctx); err != nil {
			return err
		}

		ts := s.now().UTC()
		for _, row := range rows {
			record := models.StockRecord{Size: row.Size, Company: row.Company, Series: row.Series, Quantity: row.Quantity, LastUpdated: ts}
			id, err := s.items.Insert(ctx, row.ID, record)
			if err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
			if err := s.appendAudit(ctx, id, row.Signature(), row.Quantity, models.ReasonReplaceImport, ts, notePtr(noteReplaceImport)); err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
			result.ItemIDs = append(result.ItemIDs, id)
		}
		return nil
	})
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("replace import: %w", err)
	}

	result.Rows = len(rows)
	result.Replaced = len(rows)

	s.logger.Warn("inventory replaced from spreadsheet", zap.Int("rows", result.Rows))
	return result, nil
}

// Imports may set any quantity; a negative result is reported, not refused.
func (s *Service) warnIfNegative(record models.StockRecord, line int) {
	if record.Quantity >= 0 {
		return
	}
	s.logger.Warn("import left item with negative quantity", zap.Int64("item_id", record.ID), zap.Int("line", line), zap.Int("qty", record.Quantity))
}

func notePtr(note string) *string { return &note }

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
