package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warungpos/warungpos/internal/model"
)

// GetProduct returns the product with the given barcode, including
// soft-deleted rows. Returns ErrNotFound when no row exists.
func (s *Store) GetProduct(ctx context.Context, barcode string) (model.Product, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT barcode, name, price, stock, updated_at, is_active, deleted_at
		FROM products
		WHERE barcode = ?
	`, barcode)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	return p, nil
}

// PutProduct upserts the product by barcode, replacing the whole row.
func (s *Store) PutProduct(ctx context.Context, p model.Product) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO products (barcode, name, price, stock, updated_at, is_active, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (barcode) DO UPDATE SET
			name       = excluded.name,
			price      = excluded.price,
			stock      = excluded.stock,
			updated_at = excluded.updated_at,
			is_active  = excluded.is_active,
			deleted_at = excluded.deleted_at
	`, p.Barcode, p.Name, p.Price, p.Stock, formatTime(p.UpdatedAt), boolToInt(p.IsActive), formatNullableTime(p.DeletedAt))
	if err != nil {
		return fmt.Errorf("put product: %w", err)
	}

	s.notify(TableProducts)
	return nil
}

// ProductPatch carries the fields of a partial product update. Nil fields are
// left unchanged.
type ProductPatch struct {
	Name      *string
	Price     *int64
	Stock     *int64
	UpdatedAt *string
	IsActive  *bool
	DeletedAt *string
}

// UpdateProduct merges the patch into the existing row. Returns ErrNotFound
// if no row exists for the barcode.
func (s *Store) UpdateProduct(ctx context.Context, barcode string, patch ProductPatch) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE products SET
			name       = COALESCE(?, name),
			price      = COALESCE(?, price),
			stock      = COALESCE(?, stock),
			updated_at = COALESCE(?, updated_at),
			is_active  = COALESCE(?, is_active),
			deleted_at = COALESCE(?, deleted_at)
		WHERE barcode = ?
	`, patch.Name, patch.Price, patch.Stock, patch.UpdatedAt, boolPtrToInt(patch.IsActive), patch.DeletedAt, barcode)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.notify(TableProducts)
	return nil
}

// ListProducts returns products ordered by name. Soft-deleted rows are
// excluded unless includeDeleted is set.
func (s *Store) ListProducts(ctx context.Context, includeDeleted bool) ([]model.Product, error) {
	query := `
		SELECT barcode, name, price, stock, updated_at, is_active, deleted_at
		FROM products
	`
	if !includeDeleted {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// ListLowStock returns active products at or below the given stock threshold,
// lowest first.
func (s *Store) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT barcode, name, price, stock, updated_at, is_active, deleted_at
		FROM products
		WHERE is_active = 1 AND stock <= ?
		ORDER BY stock, name
	`, threshold)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (model.Product, error) {
	var (
		p         model.Product
		updatedAt string
		isActive  int64
		deletedAt sql.NullString
	)
	if err := row.Scan(&p.Barcode, &p.Name, &p.Price, &p.Stock, &updatedAt, &isActive, &deletedAt); err != nil {
		return model.Product{}, err
	}

	var err error
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Product{}, err
	}
	if p.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return model.Product{}, err
	}
	p.IsActive = isActive != 0

	return p, nil
}

func collectProducts(rows *sql.Rows) ([]model.Product, error) {
	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func boolPtrToInt(b *bool) *int64 {
	if b == nil {
		return nil
	}
	v := boolToInt(*b)
	return &v
}
