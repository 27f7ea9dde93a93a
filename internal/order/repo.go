package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/libroverso/libreria-api/internal/catalog"
)

var (
	ErrNotFound = errors.New("order not found")
)

// Shortfall records a line item whose stock decrement was skipped
// because the catalog no longer had enough units.
type Shortfall struct {
	LibroID    int64
	Nombre     string
	Stock      int
	Solicitado int
}

// ApplyResult reports what ApplyPaymentStatus actually did.
type ApplyResult struct {
	// AlreadyApproved is true when the order was in the approved state
	// before this call; stock is never adjusted a second time.
	AlreadyApproved bool
	Shortfalls      []Shortfall
}

type Repository interface {
	Create(ctx context.Context, o *Order, items []Item) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	GetByPaymentRef(ctx context.Context, ref string) (*Order, error)
	ApplyPaymentStatus(ctx context.Context, orderID int64, status string, adjustStock bool) (*ApplyResult, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, o *Order, items []Item) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
		INSERT INTO pedidos (user_id, total, payment_status, payment_ref, created_at)
		VALUES ($1,$2,$3,NULLIF($4,''),NOW())
		RETURNING id, created_at
	`, o.UserID, o.Total, o.PaymentStatus, o.PaymentRef).Scan(&o.ID, &o.CreatedAt); err != nil {
		return err
	}

	for i := range items {
		items[i].OrderID = o.ID
		if err := tx.QueryRow(ctx, `
			INSERT INTO pedido_items (pedido_id, libro_id, cantidad, precio)
			VALUES ($1,$2,$3,$4)
			RETURNING id
		`, o.ID, items[i].LibroID, items[i].Cantidad, items[i].Precio).Scan(&items[i].ID); err != nil {
			return err
		}
	}
	o.Items = items
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Order, error) {
	o, err := r.scanOrder(ctx, `WHERE p.id=$1`, id)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) GetByPaymentRef(ctx context.Context, ref string) (*Order, error) {
	return r.scanOrder(ctx, `WHERE p.payment_ref=$1`, ref)
}

func (r *PGRepo) scanOrder(ctx context.Context, where string, arg interface{}) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	var total, ref string
	if err := r.db.QueryRow(ctx, `
		SELECT p.id, p.user_id, p.total::text, p.payment_status,
		       COALESCE(p.payment_ref,''), p.created_at
		FROM pedidos p `+where, arg).
		Scan(&o.ID, &o.UserID, &total, &o.PaymentStatus, &ref, &o.CreatedAt); err != nil {
		return nil, ErrNotFound
	}
	if err := o.Total.UnmarshalText([]byte(total)); err != nil {
		return nil, err
	}
	o.PaymentRef = ref

	items, err := r.getItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *PGRepo) getItems(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.pedido_id, i.libro_id, i.cantidad, i.precio::text,
		       l.nombre, l.autor, COALESCE(l.img,''), l.precio::text, l.stock,
		       l.categoria_id, l.created_at, l.updated_at
		FROM pedido_items i JOIN libros l ON l.id = i.libro_id
		WHERE i.pedido_id = $1
		ORDER BY i.id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var b catalog.Book
		var precio, libroPrecio string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.LibroID, &it.Cantidad, &precio,
			&b.Nombre, &b.Autor, &b.Img, &libroPrecio, &b.Stock,
			&b.CategoriaID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if err := it.Precio.UnmarshalText([]byte(precio)); err != nil {
			return nil, err
		}
		if err := b.Precio.UnmarshalText([]byte(libroPrecio)); err != nil {
			return nil, err
		}
		b.ID = it.LibroID
		it.Libro = &b
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	return r.list(ctx, false, `WHERE p.user_id=$1`, userID)
}

// ListAll is the admin view: every order, with the owner's identity.
func (r *PGRepo) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, true, ``)
}

func (r *PGRepo) list(ctx context.Context, withUsers bool, where string, args ...interface{}) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cols := `p.id, p.user_id, p.total::text, p.payment_status,
	       COALESCE(p.payment_ref,''), p.created_at`
	from := `FROM pedidos p `
	if withUsers {
		cols += `, u.email, u.nombre`
		from += `JOIN users u ON u.id = p.user_id `
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+cols+`
		`+from+where+`
		ORDER BY p.created_at DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var o Order
		var total string
		dest := []interface{}{&o.ID, &o.UserID, &total, &o.PaymentStatus, &o.PaymentRef, &o.CreatedAt}
		var u UserSummary
		if withUsers {
			dest = append(dest, &u.Email, &u.Nombre)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if err := o.Total.UnmarshalText([]byte(total)); err != nil {
			return nil, err
		}
		if withUsers {
			u.ID = o.UserID
			o.Usuario = &u
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := r.getItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// ApplyPaymentStatus writes the payment status and, when adjustStock is
// set and the order was not already approved, decrements catalog stock
// for every line item, all in one transaction so a crash cannot leave
// the order half-adjusted. Items that would drive stock negative are
// skipped and reported, never rolled back.
func (r *PGRepo) ApplyPaymentStatus(ctx context.Context, orderID int64, status string, adjustStock bool) (*ApplyResult, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var prev string
	if err := tx.QueryRow(ctx, `
		SELECT payment_status FROM pedidos WHERE id=$1 FOR UPDATE
	`, orderID).Scan(&prev); err != nil {
		return nil, ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
		UPDATE pedidos SET payment_status=$2 WHERE id=$1
	`, orderID, status); err != nil {
		return nil, err
	}

	res := &ApplyResult{AlreadyApproved: prev == StatusApproved}
	if adjustStock && !res.AlreadyApproved {
		rows, err := tx.Query(ctx, `
			SELECT i.libro_id, i.cantidad, l.nombre, l.stock
			FROM pedido_items i JOIN libros l ON l.id = i.libro_id
			WHERE i.pedido_id = $1
			ORDER BY i.id
			FOR UPDATE OF l
		`, orderID)
		if err != nil {
			return nil, err
		}
		var items []Item
		stocks := map[int64]BookStock{}
		for rows.Next() {
			var it Item
			var bs BookStock
			if err := rows.Scan(&it.LibroID, &it.Cantidad, &bs.Nombre, &bs.Stock); err != nil {
				rows.Close()
				return nil, err
			}
			items = append(items, it)
			stocks[it.LibroID] = bs
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		decrements, shortfalls := PlanStockAdjustment(items, stocks)
		for libroID, qty := range decrements {
			if _, err := tx.Exec(ctx, `
				UPDATE libros SET stock = stock - $2, updated_at = NOW() WHERE id=$1
			`, libroID, qty); err != nil {
				return nil, err
			}
		}
		res.Shortfalls = shortfalls
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}
