package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/warungpos/warungpos/internal/model"
)

// AppendChange appends a product mutation intent to the change journal and
// returns its assigned sequence id. The product snapshot is stored as JSON so
// the intent survives later edits to the product row.
func (s *Store) AppendChange(ctx context.Context, change model.PendingProductChange) (int64, error) {
	data, err := json.Marshal(change.ProductData)
	if err != nil {
		return 0, fmt.Errorf("marshal product snapshot: %w", err)
	}

	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO pending_product_changes (barcode, action, product_data, created_at, synced)
		VALUES (?, ?, ?, ?, ?)
	`, change.Barcode, string(change.Action), string(data), formatTime(change.CreatedAt), boolToInt(change.Synced))
	if err != nil {
		return 0, fmt.Errorf("append change: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append change last insert id: %w", err)
	}

	s.notify(TablePendingChanges)
	return id, nil
}

// ListUnsyncedChanges returns unconfirmed change journal entries in append
// order.
func (s *Store) ListUnsyncedChanges(ctx context.Context) ([]model.PendingProductChange, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, barcode, action, product_data, created_at, synced
		FROM pending_product_changes
		WHERE synced = 0
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list unsynced changes: %w", err)
	}
	defer rows.Close()

	var changes []model.PendingProductChange
	for rows.Next() {
		var (
			c         model.PendingProductChange
			action    string
			data      string
			createdAt string
			synced    int64
		)
		if err := rows.Scan(&c.ID, &c.Barcode, &action, &data, &createdAt, &synced); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &c.ProductData); err != nil {
			return nil, fmt.Errorf("unmarshal product snapshot: %w", err)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		c.Action = model.ChangeAction(action)
		c.Synced = synced != 0
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}

	return changes, nil
}

// HasUnsyncedChange reports whether any unconfirmed change exists for the
// barcode. The reconciler uses this to keep downloads from overwriting a
// local intent that has not reached the remote store yet.
func (s *Store) HasUnsyncedChange(ctx context.Context, barcode string) (bool, error) {
	var count int64
	err := s.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pending_product_changes
		WHERE barcode = ? AND synced = 0
	`, barcode).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count unsynced changes: %w", err)
	}
	return count > 0, nil
}

// MarkChangeSynced flips the synced flag on one change journal entry.
func (s *Store) MarkChangeSynced(ctx context.Context, id int64) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE pending_product_changes SET synced = 1 WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("mark change synced: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark change synced rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.notify(TablePendingChanges)
	return nil
}

// AppendSale appends a completed sale to the sale journal.
func (s *Store) AppendSale(ctx context.Context, sale model.PendingSale) error {
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return fmt.Errorf("marshal sale items: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO pending_sales (local_sale_id, items, total_amount, paid_at, synced)
		VALUES (?, ?, ?, ?, ?)
	`, sale.LocalSaleID, string(items), sale.TotalAmount, formatTime(sale.PaidAt), boolToInt(sale.Synced))
	if err != nil {
		return fmt.Errorf("append sale: %w", err)
	}

	s.notify(TablePendingSales)
	return nil
}

// CommitSale records the sale and decrements stock for each line item in one
// transaction, so a crash between the two leaves no half-recorded checkout.
// Stock decrements are unguarded and may drive stock negative; there is no
// server-side reservation in this system.
func (s *Store) CommitSale(ctx context.Context, sale model.PendingSale) error {
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return fmt.Errorf("marshal sale items: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit sale: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pending_sales (local_sale_id, items, total_amount, paid_at, synced)
		VALUES (?, ?, ?, ?, 0)
	`, sale.LocalSaleID, string(items), sale.TotalAmount, formatTime(sale.PaidAt)); err != nil {
		return fmt.Errorf("insert pending sale: %w", err)
	}

	for _, item := range sale.Items {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - ?, updated_at = ?
			WHERE barcode = ?
		`, item.Quantity, formatTime(sale.PaidAt), item.ProductBarcode)
		if err != nil {
			return fmt.Errorf("decrement stock for %s: %w", item.ProductBarcode, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("decrement stock rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("decrement stock for %s: %w", item.ProductBarcode, ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sale: %w", err)
	}

	s.notify(TablePendingSales, TableProducts)
	return nil
}

// GetSale returns one sale by its local id.
func (s *Store) GetSale(ctx context.Context, localSaleID string) (model.PendingSale, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT local_sale_id, items, total_amount, paid_at, synced
		FROM pending_sales
		WHERE local_sale_id = ?
	`, localSaleID)

	sale, err := scanSale(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PendingSale{}, ErrNotFound
	}
	if err != nil {
		return model.PendingSale{}, fmt.Errorf("get sale: %w", err)
	}

	return sale, nil
}

// ListUnsyncedSales returns unconfirmed sales in paid order.
func (s *Store) ListUnsyncedSales(ctx context.Context) ([]model.PendingSale, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT local_sale_id, items, total_amount, paid_at, synced
		FROM pending_sales
		WHERE synced = 0
		ORDER BY paid_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list unsynced sales: %w", err)
	}
	defer rows.Close()

	var sales []model.PendingSale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}

	return sales, nil
}

// MarkSaleSynced flips the synced flag on one sale.
func (s *Store) MarkSaleSynced(ctx context.Context, localSaleID string) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE pending_sales SET synced = 1 WHERE local_sale_id = ?
	`, localSaleID)
	if err != nil {
		return fmt.Errorf("mark sale synced: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark sale synced rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.notify(TablePendingSales)
	return nil
}

// CountUnsynced returns the number of unconfirmed change journal entries and
// sales, for the sync status view.
func (s *Store) CountUnsynced(ctx context.Context) (changes, sales int64, err error) {
	if err = s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_product_changes WHERE synced = 0`,
	).Scan(&changes); err != nil {
		return 0, 0, fmt.Errorf("count unsynced changes: %w", err)
	}
	if err = s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_sales WHERE synced = 0`,
	).Scan(&sales); err != nil {
		return 0, 0, fmt.Errorf("count unsynced sales: %w", err)
	}
	return changes, sales, nil
}

// PruneSynced deletes confirmed journal entries older than the cutoff and
// returns how many rows were removed. Products are never pruned; tombstones
// are retained forever so old receipts can still resolve names.
func (s *Store) PruneSynced(ctx context.Context, olderThan time.Time) (int64, error) {
	cutoff := formatTime(olderThan)

	res, err := s.conn.ExecContext(ctx, `
		DELETE FROM pending_product_changes WHERE synced = 1 AND created_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune synced changes: %w", err)
	}
	changes, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune synced changes rows affected: %w", err)
	}

	res, err = s.conn.ExecContext(ctx, `
		DELETE FROM pending_sales WHERE synced = 1 AND paid_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune synced sales: %w", err)
	}
	sales, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune synced sales rows affected: %w", err)
	}

	if changes > 0 {
		s.notify(TablePendingChanges)
	}
	if sales > 0 {
		s.notify(TablePendingSales)
	}
	return changes + sales, nil
}

func scanSale(row rowScanner) (model.PendingSale, error) {
	var (
		sale   model.PendingSale
		items  string
		paidAt string
		synced int64
	)
	if err := row.Scan(&sale.LocalSaleID, &items, &sale.TotalAmount, &paidAt, &synced); err != nil {
		return model.PendingSale{}, err
	}
	if err := json.Unmarshal([]byte(items), &sale.Items); err != nil {
		return model.PendingSale{}, fmt.Errorf("unmarshal sale items: %w", err)
	}
	var err error
	if sale.PaidAt, err = parseTime(paidAt); err != nil {
		return model.PendingSale{}, err
	}
	sale.Synced = synced != 0
	return sale, nil
}
