package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warungpos/warungpos/internal/config"
	"github.com/warungpos/warungpos/internal/model"
)

var _ Store = (*PgStore)(nil)

// PgStore is the Postgres implementation of the remote store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgxPool creates a pgx pool with the given configuration. Unlike a
// server-side pool this does NOT ping at startup: the terminal must boot
// while offline, so connections are established lazily once the network is
// back.
func NewPgxPool(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
	pgConf, err := pgxpool.ParseConfig(connectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	pgConf.ConnConfig.Tracer = otelpgx.NewTracer()

	pgConf.MaxConns = cfg.MaxConns
	pgConf.MinConns = cfg.MinConns
	pgConf.MaxConnLifetime = cfg.MaxConnLifetime
	pgConf.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, pgConf)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	return pool, nil
}

func connectionString(cfg config.Postgres) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DB, cfg.SSLMode)
}

// NewPgStore creates a remote store backed by the given pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) UpsertProduct(ctx context.Context, p model.Product) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (barcode, name, price, stock, updated_at, is_active, deleted_at)
		VALUES (@barcode, @name, @price, @stock, @updated_at, @is_active, @deleted_at)
		ON CONFLICT (barcode) DO UPDATE SET
			name       = excluded.name,
			price      = excluded.price,
			stock      = excluded.stock,
			updated_at = excluded.updated_at,
			is_active  = excluded.is_active,
			deleted_at = excluded.deleted_at
	`, pgx.NamedArgs{
		"barcode":    p.Barcode,
		"name":       p.Name,
		"price":      p.Price,
		"stock":      p.Stock,
		"updated_at": p.UpdatedAt,
		"is_active":  p.IsActive,
		"deleted_at": p.DeletedAt,
	})
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	return nil
}

func (s *PgStore) SoftDeleteProduct(ctx context.Context, barcode string, deletedAt, updatedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE products
		SET is_active = FALSE, deleted_at = $1, updated_at = $2
		WHERE barcode = $3
	`, deletedAt, updatedAt, barcode)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}

	return nil
}

func (s *PgStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT barcode, name, price, stock, updated_at, is_active, deleted_at
		FROM products
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.Barcode, &p.Name, &p.Price, &p.Stock, &p.UpdatedAt, &p.IsActive, &p.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func (s *PgStore) InsertSale(ctx context.Context, totalAmount int64, paidAt time.Time) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sales (total_amount, paid_at)
		VALUES ($1, $2)
		RETURNING id
	`, totalAmount, paidAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}

	return id, nil
}

func (s *PgStore) InsertSaleItems(ctx context.Context, saleID int64, items []model.SaleItem) error {
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{saleID, item.ProductBarcode, item.Quantity, item.PriceEach, item.Subtotal})
	}

	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"sale_items"},
		[]string{"sale_id", "product_barcode", "quantity", "price_each", "subtotal"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert sale items: %w", err)
	}

	return nil
}

func (s *PgStore) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("ping remote store: %w", err)
	}
	return nil
}
