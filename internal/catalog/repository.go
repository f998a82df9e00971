package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/goshop/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultQueryTimeout = 5 * time.Second

const productColumns = `id, slug, title, description, price_cents, category, active, image_object, created_at, updated_at`

var orderClauses = map[string]string{
	SortTitleAsc:  "title ASC, id",
	SortTitleDesc: "title DESC, id",
	SortPriceAsc:  "price_cents ASC, id",
	SortPriceDesc: "price_cents DESC, id",
}

type conn interface {
	Conn(ctx context.Context) storage.Querier
}

// Repository provides database access for products.
type Repository struct {
	db conn
}

// NewRepository constructs a new Repository.
func NewRepository(db conn) *Repository {
	return &Repository{db: db}
}

// List returns one page of active products matching q and the total match count.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]Product, int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	where, args := listFilter(q)

	var total int
	if err := r.db.Conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+where+`;`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	order, ok := orderClauses[q.Sort]
	if !ok {
		order = orderClauses[SortTitleAsc]
	}
	args = append(args, q.Take, q.Skip)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d;`,
		productColumns, where, order, len(args)-1, len(args))

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}
	return products, total, nil
}

func listFilter(q ListQuery) (string, []any) {
	clauses := []string{"active = TRUE"}
	var args []any

	if q.Q != "" {
		args = append(args, "%"+escapeLike(q.Q)+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if q.Category != "" {
		args = append(args, q.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if q.Min != nil {
		args = append(args, *q.Min)
		clauses = append(clauses, fmt.Sprintf("price_cents >= $%d", len(args)))
	}
	if q.Max != nil {
		args = append(args, *q.Max)
		clauses = append(clauses, fmt.Sprintf("price_cents <= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// FindBySlug fetches a product by slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1;`, slug)
}

// FindByID fetches a product by identifier.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1;`, id)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	p, err := scanProduct(r.db.Conn(ctx).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO products (slug, title, description, price_cents, category, active)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, TRUE))
RETURNING ` + productColumns + `;`

	p, err := scanProduct(r.db.Conn(ctx).QueryRow(ctx, query, in.Slug, in.Title, in.Description, in.PriceCents, in.Category, in.Active))
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return Product{}, ErrSlugTaken
		}
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update applies the non-nil fields of in.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE products
SET slug = COALESCE($2, slug),
    title = COALESCE($3, title),
    description = COALESCE($4, description),
    price_cents = COALESCE($5, price_cents),
    category = COALESCE($6, category),
    active = COALESCE($7, active),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + productColumns + `;`

	p, err := scanProduct(r.db.Conn(ctx).QueryRow(ctx, query, id, in.Slug, in.Title, in.Description, in.PriceCents, in.Category, in.Active))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Product{}, ErrProductNotFound
		case storage.IsUniqueViolation(err):
			return Product{}, ErrSlugTaken
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// SetImage records the object key of the product image.
func (r *Repository) SetImage(ctx context.Context, id uuid.UUID, object string) (Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `UPDATE products SET image_object = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + productColumns + `;`

	p, err := scanProduct(r.db.Conn(ctx).QueryRow(ctx, query, id, object))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("set product image: %w", err)
	}
	return p, nil
}

// Delete removes a product and returns it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	p, err := scanProduct(r.db.Conn(ctx).QueryRow(ctx, `DELETE FROM products WHERE id = $1 RETURNING `+productColumns+`;`, id))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Product{}, ErrProductNotFound
		case storage.IsForeignKeyViolation(err):
			return Product{}, ErrProductInUse
		}
		return Product{}, fmt.Errorf("delete product: %w", err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.PriceCents, &p.Category, &p.Active, &p.ImageObject, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
