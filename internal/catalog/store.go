// Package catalog is the Postgres backed product and category catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const productColumns = `p.id, p.name, coalesce(p.description, ''), p.price_per_kg::text, p.stock_kg::text,
	coalesce(p.image_url, ''), p.category_id, p.created_at`

// RelatedLimit is how many related products GetProduct callers show.
const RelatedLimit = 4

type Store struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	sfg  singleflight.Group // collapses identical concurrent listings
}

// NewStore returns a catalog store backed by pool.
func NewStore(log *slog.Logger, pool *pgxpool.Pool) *Store {
	return &Store{log: log, pool: pool}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (Product, error) {
	var (
		p          Product
		id         int64
		price      string
		stock      string
		categoryID *int64
	)
	if err := row.Scan(&id, &p.Name, &p.Description, &price, &stock, &p.ImageURL, &categoryID, &p.CreatedAt); err != nil {
		return Product{}, err
	}
	var err error
	if p.PricePerKg, err = decimal.NewFromString(price); err != nil {
		return Product{}, fmt.Errorf("parse price_per_kg: %w", err)
	}
	if p.StockKg, err = decimal.NewFromString(stock); err != nil {
		return Product{}, fmt.Errorf("parse stock_kg: %w", err)
	}
	p.ID = formatID(id)
	if categoryID != nil {
		c := formatID(*categoryID)
		p.CategoryID = &c
	}
	return p, nil
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

// ProductsByIDs returns the products that still exist among ids. Unknown or
// malformed ids are simply absent from the result.
func (s *Store) ProductsByIDs(ctx context.Context, ids []string) ([]Product, error) {
	keys := parseIDs(ids)
	if len(keys) == 0 {
		return []Product{}, nil
	}
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM fruits p WHERE p.id = ANY($1)`, keys)
}

// ListProducts returns products newest first, optionally restricted to categories.
func (s *Store) ListProducts(ctx context.Context, categoryIDs []string) ([]Product, error) {
	var keys []int64
	if len(categoryIDs) > 0 {
		keys = parseIDs(categoryIDs)
		if len(keys) == 0 {
			return []Product{}, nil
		}
		slices.Sort(keys)
	}

	flightKey := "all"
	if keys != nil {
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = formatID(k)
		}
		flightKey = strings.Join(parts, ",")
	}

	return s.shared(ctx, flightKey, func(ctx context.Context) ([]Product, error) {
		if keys == nil {
			return s.queryProducts(ctx, `SELECT `+productColumns+` FROM fruits p ORDER BY p.created_at DESC, p.id DESC`)
		}
		return s.queryProducts(ctx, `SELECT `+productColumns+` FROM fruits p
			WHERE p.category_id = ANY($1) ORDER BY p.created_at DESC, p.id DESC`, keys)
	})
}

// shared runs query once for concurrent callers with the same key. The query
// is detached from the cancellation of whichever caller started it; each
// caller still stops waiting when its own ctx ends.
func (s *Store) shared(ctx context.Context, key string, query func(context.Context) ([]Product, error)) ([]Product, error) {
	ch := s.sfg.DoChan(key, func() (interface{}, error) {
		return query(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		products := res.Val.([]Product)
		if res.Shared {
			s.log.Debug("product listing shared", "key", key)
			products = slices.Clone(products)
		}
		return products, nil
	}
}

// GetProduct returns one product with its category.
func (s *Store) GetProduct(ctx context.Context, id string) (*Product, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, ErrProductNotFound
	}

	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+`, c.id, c.name, c.description, c.created_at
		FROM fruits p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, key)

	var (
		catID      *int64
		catName    *string
		catDesc    *string
		catCreated *time.Time
	)
	p, err := scanProduct(rowFunc(func(dest ...any) error {
		return row.Scan(append(dest, &catID, &catName, &catDesc, &catCreated)...)
	}))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if catID != nil && catName != nil {
		p.Category = &Category{ID: formatID(*catID), Name: *catName, Description: catDesc}
		if catCreated != nil {
			p.Category.CreatedAt = *catCreated
		}
	}
	return &p, nil
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

// RelatedProducts returns up to limit other products from p's category.
func (s *Store) RelatedProducts(ctx context.Context, p Product, limit int) ([]Product, error) {
	if p.CategoryID == nil {
		return []Product{}, nil
	}
	catKey, ok := parseID(*p.CategoryID)
	if !ok {
		return []Product{}, nil
	}
	key, _ := parseID(p.ID)
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM fruits p
		WHERE p.category_id = $1 AND p.id <> $2
		ORDER BY p.created_at DESC LIMIT $3`, catKey, key, limit)
}

// CountProducts returns the number of catalog products.
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM fruits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func categoryArg(id *string) (*int64, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	n, ok := parseID(*id)
	if !ok {
		return nil, ErrCategoryNotFound
	}
	return &n, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateProduct inserts a product and returns it.
func (s *Store) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	cat, err := categoryArg(in.CategoryID)
	if err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx, `INSERT INTO fruits AS p (name, description, price_per_kg, stock_kg, image_url, category_id)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6)
		RETURNING `+productColumns,
		in.Name, nullable(in.Description), in.PricePerKg.String(), in.StockKg.String(), nullable(in.ImageURL), cat)
	p, err := scanProduct(row)
	if err != nil {
		return nil, mapWriteError(err, ErrCategoryNotFound, "failed to create product")
	}
	return &p, nil
}

// UpdateProduct replaces the writable fields of a product.
func (s *Store) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, ErrProductNotFound
	}
	cat, err := categoryArg(in.CategoryID)
	if err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx, `UPDATE fruits p SET name = $2, description = $3, price_per_kg = $4::numeric,
		stock_kg = $5::numeric, image_url = $6, category_id = $7
		WHERE p.id = $1
		RETURNING `+productColumns,
		key, in.Name, nullable(in.Description), in.PricePerKg.String(), in.StockKg.String(), nullable(in.ImageURL), cat)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, mapWriteError(err, ErrCategoryNotFound, "failed to update product")
	}
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return ErrProductNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM fruits WHERE id = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func scanCategory(row scanner) (Category, error) {
	var (
		c  Category
		id int64
	)
	if err := row.Scan(&id, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		return Category{}, err
	}
	c.ID = formatID(id)
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	row := s.pool.QueryRow(ctx, `INSERT INTO categories (name, description) VALUES ($1, $2)
		RETURNING id, name, description, created_at`, in.Name, in.Description)
	c, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*Category, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, ErrCategoryNotFound
	}
	row := s.pool.QueryRow(ctx, `UPDATE categories SET name = $2, description = $3 WHERE id = $1
		RETURNING id, name, description, created_at`, key, in.Name, in.Description)
	c, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return &c, nil
}

// DeleteCategory removes a category. It refuses with ErrCategoryInUse while
// any product still references it.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return ErrCategoryNotFound
	}

	var inUse int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM fruits WHERE category_id = $1`, key).Scan(&inUse); err != nil {
		return fmt.Errorf("failed to count category products: %w", err)
	}
	if inUse > 0 {
		return ErrCategoryInUse
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, key)
	if err != nil {
		return mapWriteError(err, ErrCategoryInUse, "failed to delete category")
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// mapWriteError returns onForeignKey for foreign key violations and wraps anything else.
func mapWriteError(err error, onForeignKey error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return onForeignKey
	}
	return fmt.Errorf("%s: %w", msg, err)
}
