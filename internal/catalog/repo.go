// Package catalog provides the repository interface and PostgreSQL
// implementation for books and categories.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound         = errors.New("book not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// Query filters and paginates List. A negative Limit returns the whole
// catalog, the admin panel's view.
type Query struct {
	Nombre string
	Limit  int
	Offset int
}

type Repository interface {
	List(ctx context.Context, q Query) ([]Book, int, error)
	GetByID(ctx context.Context, id int64) (*Book, error)
	GetByName(ctx context.Context, nombre string) (*Book, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id int64) (bool, error)

	Categories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	GetCategoryByName(ctx context.Context, nombre string) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const bookCols = `
	l.id, l.nombre, l.autor, COALESCE(l.img,''), l.precio::text, l.stock,
	l.categoria_id, l.created_at, l.updated_at, c.id, c.nombre`

func scanBook(row pgx.Row) (*Book, error) {
	var b Book
	var cat Category
	var precio string
	if err := row.Scan(&b.ID, &b.Nombre, &b.Autor, &b.Img, &precio, &b.Stock,
		&b.CategoriaID, &b.CreatedAt, &b.UpdatedAt, &cat.ID, &cat.Nombre); err != nil {
		return nil, err
	}
	if err := b.Precio.UnmarshalText([]byte(precio)); err != nil {
		return nil, err
	}
	b.Categoria = &cat
	return &b, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	switch {
	case limit < 0:
		limit = -1 // NULLIF below turns this into LIMIT ALL
	case limit == 0:
		limit = 9
	case limit > 100:
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	search := strings.TrimSpace(q.Nombre)

	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM libros
		WHERE ($1 = '' OR nombre ILIKE '%'||$1||'%')
	`, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+bookCols+`
		FROM libros l JOIN categorias c ON c.id = l.categoria_id
		WHERE ($1 = '' OR l.nombre ILIKE '%'||$1||'%')
		ORDER BY l.id
		LIMIT NULLIF($2::bigint, -1) OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Book, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b, err := scanBook(r.db.QueryRow(ctx, `
		SELECT `+bookCols+`
		FROM libros l JOIN categorias c ON c.id = l.categoria_id
		WHERE l.id=$1
	`, id))
	if err != nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (r *PGRepo) GetByName(ctx context.Context, nombre string) (*Book, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b, err := scanBook(r.db.QueryRow(ctx, `
		SELECT `+bookCols+`
		FROM libros l JOIN categorias c ON c.id = l.categoria_id
		WHERE l.nombre=$1
	`, nombre))
	if err != nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (r *PGRepo) Create(ctx context.Context, b *Book) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO libros (nombre, autor, img, precio, categoria_id, stock, created_at, updated_at)
		VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,NOW(),NOW())
		RETURNING id, created_at, updated_at
	`, b.Nombre, b.Autor, b.Img, b.Precio, b.CategoriaID, b.Stock).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *PGRepo) Update(ctx context.Context, b *Book) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE libros
		SET nombre = $2, autor = $3, img = NULLIF($4,''), precio = $5,
		    categoria_id = $6, stock = $7, updated_at = NOW()
		WHERE id = $1
	`, b.ID, b.Nombre, b.Autor, b.Img, b.Precio, b.CategoriaID, b.Stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM libros WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGRepo) Categories(ctx context.Context) ([]Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, nombre FROM categorias ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Nombre); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetCategory(ctx context.Context, id int64) (*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Category
	if err := r.db.QueryRow(ctx, `SELECT id, nombre FROM categorias WHERE id=$1`, id).
		Scan(&c.ID, &c.Nombre); err != nil {
		return nil, ErrCategoryNotFound
	}
	return &c, nil
}

func (r *PGRepo) GetCategoryByName(ctx context.Context, nombre string) (*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Category
	if err := r.db.QueryRow(ctx, `SELECT id, nombre FROM categorias WHERE nombre=$1`, nombre).
		Scan(&c.ID, &c.Nombre); err != nil {
		return nil, ErrCategoryNotFound
	}
	return &c, nil
}

func (r *PGRepo) CreateCategory(ctx context.Context, c *Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO categorias (nombre) VALUES ($1) RETURNING id
	`, c.Nombre).Scan(&c.ID)
}
