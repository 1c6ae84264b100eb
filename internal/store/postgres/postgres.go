package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, purchase_cost, sale_price, stock, min_stock, unit,
			COALESCE(image_path,''), is_deleted, created_at, updated_at
		FROM products
		WHERE is_deleted = FALSE
			AND ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY id DESC
	`, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := scanProduct(s.db.QueryRowContext(ctx, `
		SELECT id, name, purchase_cost, sale_price, stock, min_stock, unit,
			COALESCE(image_path,''), is_deleted, created_at, updated_at
		FROM products
		WHERE id = $1 AND is_deleted = FALSE
	`, id), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts the catalog row and, when the initial stock is
// positive, an opening inbound movement, as one transaction.
func (s *Store) CreateProduct(ctx context.Context, input domain.ProductInput, operatorID *int64) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var p domain.Product
	err = scanProduct(tx.QueryRowContext(ctx, `
		INSERT INTO products (name, purchase_cost, sale_price, stock, min_stock, unit, image_path, is_deleted, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,FALSE,now(),now())
		RETURNING id, name, purchase_cost, sale_price, stock, min_stock, unit,
			COALESCE(image_path,''), is_deleted, created_at, updated_at
	`, input.Name, input.PurchaseCost, input.SalePrice, input.Stock, input.MinStock, input.Unit, nullIfEmpty(input.ImagePath)), &p)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	if p.Stock.IsPositive() {
		if err := insertMovement(ctx, tx, &p.ID, p.Name, domain.MovementIn, p.Stock, "Stok Awal", operatorID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct rewrites the catalog row and logs any stock difference
// as a manual-edit movement in the same transaction.
func (s *Store) UpdateProduct(ctx context.Context, id int64, input domain.ProductInput, operatorID *int64) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var oldStock decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT stock FROM products WHERE id = $1 AND is_deleted = FALSE FOR UPDATE
	`, id).Scan(&oldStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	var p domain.Product
	err = scanProduct(tx.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, purchase_cost = $3, sale_price = $4, stock = $5,
			min_stock = $6, unit = $7, image_path = $8, updated_at = now()
		WHERE id = $1
		RETURNING id, name, purchase_cost, sale_price, stock, min_stock, unit,
			COALESCE(image_path,''), is_deleted, created_at, updated_at
	`, id, input.Name, input.PurchaseCost, input.SalePrice, input.Stock, input.MinStock, input.Unit, nullIfEmpty(input.ImagePath)), &p)
	if err != nil {
		return nil, err
	}

	diff := input.Stock.Sub(oldStock)
	if !diff.IsZero() {
		kind := domain.MovementIn
		if diff.IsNegative() {
			kind = domain.MovementAdjustment
		}
		if err := insertMovement(ctx, tx, &p.ID, p.Name, kind, diff.Abs(), "Edit Manual", operatorID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct removes the row outright. Line items and movements keep
// their snapshots; their product_id columns go NULL via ON DELETE SET NULL.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SoftDeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET is_deleted = TRUE, updated_at = now()
		WHERE id = $1 AND is_deleted = FALSE
	`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CommitSale runs the whole checkout as one serializable transaction:
// header first, then per line in submitted order a locked product read,
// stock check, snapshot line insert, stock decrement, and movement append.
// Any failure rolls back everything.
func (s *Store) CommitSale(ctx context.Context, saleTx domain.SaleTransaction, lines []domain.CartLine) (*domain.SaleTransaction, error) {
	if len(lines) == 0 {
		return nil, store.ErrValidation
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	err = pgTx.QueryRowContext(ctx, `
		INSERT INTO sale_transactions (occurred_at, total, tendered, change, payment_method, operator_id)
		VALUES (now(), $1, $2, $3, $4, $5)
		RETURNING id, occurred_at
	`, saleTx.Total, nullDecimal(saleTx.Tendered), nullDecimal(saleTx.Change), saleTx.PaymentMethod, nullInt64(saleTx.OperatorID)).
		Scan(&saleTx.ID, &saleTx.OccurredAt)
	if err != nil {
		return nil, err
	}
	saleTx.OccurredAt = saleTx.OccurredAt.UTC()

	items := make([]domain.SaleLineItem, 0, len(lines))
	for _, line := range lines {
		var name string
		var cost, stock decimal.Decimal
		err = pgTx.QueryRowContext(ctx, `
			SELECT name, purchase_cost, stock
			FROM products
			WHERE id = $1
			FOR UPDATE
		`, line.ProductID).Scan(&name, &cost, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("product %d: %w", line.ProductID, store.ErrNotFound)
			}
			return nil, err
		}

		if stock.LessThan(line.Quantity) {
			return nil, &store.InsufficientStockError{
				ProductID:   line.ProductID,
				ProductName: name,
				Available:   stock,
				Requested:   line.Quantity,
			}
		}

		item := domain.SaleLineItem{
			TransactionID: saleTx.ID,
			ProductID:     &line.ProductID,
			NameSnapshot:  name,
			CostSnapshot:  cost,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			Subtotal:      line.Quantity.Mul(line.UnitPrice),
		}
		err = pgTx.QueryRowContext(ctx, `
			INSERT INTO sale_line_items (transaction_id, product_id, name_snapshot, cost_snapshot, quantity, unit_price, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`, item.TransactionID, line.ProductID, item.NameSnapshot, item.CostSnapshot, item.Quantity, item.UnitPrice, item.Subtotal).
			Scan(&item.ID)
		if err != nil {
			return nil, err
		}

		_, err = pgTx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $1, updated_at = now() WHERE id = $2
		`, line.Quantity, line.ProductID)
		if err != nil {
			return nil, err
		}

		reason := fmt.Sprintf("Penjualan #%d", saleTx.ID)
		if err := insertMovement(ctx, pgTx, &line.ProductID, name, domain.MovementOut, line.Quantity, reason, saleTx.OperatorID); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	saleTx.Items = items
	return &saleTx, nil
}

// ApplyStockDelta mutates stock and appends the matching movement entry
// as one transaction. Quantity on the movement is the delta's magnitude.
func (s *Store) ApplyStockDelta(ctx context.Context, productID int64, delta decimal.Decimal, kind string, reason string, operatorID *int64) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var name string
	var stock decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT name, stock FROM products WHERE id = $1 AND is_deleted = FALSE FOR UPDATE
	`, productID).Scan(&name, &stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if delta.IsNegative() && stock.LessThan(delta.Neg()) {
		return nil, &store.InsufficientStockError{
			ProductID:   productID,
			ProductName: name,
			Available:   stock,
			Requested:   delta.Neg(),
		}
	}

	var p domain.Product
	err = scanProduct(tx.QueryRowContext(ctx, `
		UPDATE products SET stock = stock + $1, updated_at = now()
		WHERE id = $2
		RETURNING id, name, purchase_cost, sale_price, stock, min_stock, unit,
			COALESCE(image_path,''), is_deleted, created_at, updated_at
	`, delta, productID), &p)
	if err != nil {
		return nil, err
	}

	if err := insertMovement(ctx, tx, &productID, name, kind, delta.Abs(), reason, operatorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListMovements(ctx context.Context, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, name_snapshot, kind, quantity, reason, operator_id, occurred_at
		FROM stock_movements
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, limit)
	for rows.Next() {
		var m domain.StockMovement
		var productID, operatorID sql.NullInt64
		if err := rows.Scan(&m.ID, &productID, &m.NameSnapshot, &m.Kind, &m.Quantity, &m.Reason, &operatorID, &m.OccurredAt); err != nil {
			return nil, err
		}
		m.OccurredAt = m.OccurredAt.UTC()
		if productID.Valid {
			m.ProductID = &productID.Int64
		}
		if operatorID.Valid {
			m.OperatorID = &operatorID.Int64
		}
		if m.NameSnapshot == "" {
			m.NameSnapshot = domain.DeletedProductName
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (*domain.SaleTransaction, error) {
	var tx domain.SaleTransaction
	var tendered, change decimal.NullDecimal
	var operatorID sql.NullInt64
	var operatorName sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.occurred_at, t.total, t.tendered, t.change, t.payment_method,
			t.operator_id, u.full_name
		FROM sale_transactions t
		LEFT JOIN users u ON u.id = t.operator_id
		WHERE t.id = $1
	`, id).Scan(&tx.ID, &tx.OccurredAt, &tx.Total, &tendered, &change, &tx.PaymentMethod, &operatorID, &operatorName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	tx.OccurredAt = tx.OccurredAt.UTC()
	if tendered.Valid {
		tx.Tendered = &tendered.Decimal
	}
	if change.Valid {
		tx.Change = &change.Decimal
	}
	if operatorID.Valid {
		tx.OperatorID = &operatorID.Int64
	}
	if operatorName.Valid {
		tx.OperatorName = operatorName.String
	}

	items, err := s.lineItems(ctx, []int64{tx.ID})
	if err != nil {
		return nil, err
	}
	tx.Items = items[tx.ID]
	return &tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, from, to time.Time, limit int) ([]domain.SaleTransaction, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.occurred_at, t.total, t.tendered, t.change, t.payment_method,
			t.operator_id, u.full_name
		FROM sale_transactions t
		LEFT JOIN users u ON u.id = t.operator_id
		WHERE t.occurred_at >= $1 AND t.occurred_at < $2
		ORDER BY t.occurred_at DESC, t.id DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.SaleTransaction, 0, limit)
	ids := make([]int64, 0, limit)
	for rows.Next() {
		var tx domain.SaleTransaction
		var tendered, change decimal.NullDecimal
		var operatorID sql.NullInt64
		var operatorName sql.NullString
		if err := rows.Scan(&tx.ID, &tx.OccurredAt, &tx.Total, &tendered, &change, &tx.PaymentMethod, &operatorID, &operatorName); err != nil {
			return nil, err
		}
		tx.OccurredAt = tx.OccurredAt.UTC()
		if tendered.Valid {
			tx.Tendered = &tendered.Decimal
		}
		if change.Valid {
			tx.Change = &change.Decimal
		}
		if operatorID.Valid {
			tx.OperatorID = &operatorID.Int64
		}
		if operatorName.Valid {
			tx.OperatorName = operatorName.String
		}
		txs = append(txs, tx)
		ids = append(ids, tx.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return txs, nil
	}

	itemMap, err := s.lineItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i].Items = itemMap[txs[i].ID]
	}
	return txs, nil
}

func (s *Store) lineItems(ctx context.Context, txIDs []int64) (map[int64][]domain.SaleLineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, product_id, name_snapshot, cost_snapshot, quantity, unit_price, subtotal
		FROM sale_line_items
		WHERE transaction_id = ANY($1)
		ORDER BY id ASC
	`, txIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]domain.SaleLineItem, len(txIDs))
	for rows.Next() {
		var item domain.SaleLineItem
		var productID sql.NullInt64
		if err := rows.Scan(&item.ID, &item.TransactionID, &productID, &item.NameSnapshot, &item.CostSnapshot, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, err
		}
		if productID.Valid {
			item.ProductID = &productID.Int64
		}
		if item.NameSnapshot == "" {
			item.NameSnapshot = domain.DeletedProductName
		}
		result[item.TransactionID] = append(result[item.TransactionID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) SalesTotal(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error) {
	var total decimal.Decimal
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM sale_transactions
		WHERE occurred_at >= $1 AND occurred_at < $2
	`, from, to).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return total, count, nil
}

// Profit prefers the sale-time cost snapshot and falls back to the live
// catalog cost for rows written before snapshotting existed.
func (s *Store) Profit(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var profit decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM((li.unit_price - COALESCE(li.cost_snapshot, p.purchase_cost, 0)) * li.quantity), 0)
		FROM sale_line_items li
		JOIN sale_transactions t ON t.id = li.transaction_id
		LEFT JOIN products p ON p.id = li.product_id
		WHERE t.occurred_at >= $1 AND t.occurred_at < $2
	`, from, to).Scan(&profit)
	if err != nil {
		return decimal.Zero, err
	}
	return profit, nil
}

func (s *Store) LowStock(ctx context.Context, limit int) ([]domain.LowStockItem, error) {
	if limit < 1 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, stock, min_stock, unit
		FROM products
		WHERE is_deleted = FALSE AND stock <= min_stock
		ORDER BY stock ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.LowStockItem, 0, limit)
	for rows.Next() {
		var item domain.LowStockItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Stock, &item.MinStock, &item.Unit); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SalesByDay(ctx context.Context, from, to time.Time) ([]domain.DailySales, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char(occurred_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
			COALESCE(SUM(total), 0), COUNT(*)
		FROM sale_transactions
		WHERE occurred_at >= $1 AND occurred_at < $2
		GROUP BY day
		ORDER BY day ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]domain.DailySales, 0, 31)
	for rows.Next() {
		var d domain.DailySales
		if err := rows.Scan(&d.Date, &d.Total, &d.Count); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, full_name, role, created_at
		FROM users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 16)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	var account domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, full_name, role, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&account.ID, &account.Username, &account.FullName, &account.Role, &account.PasswordHash, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	return &account, nil
}

func (s *Store) CreateUser(ctx context.Context, account domain.UserAccount) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, full_name, role, password_hash, created_at)
		VALUES ($1,$2,$3,$4,now())
		RETURNING id, username, full_name, role, created_at
	`, account.Username, account.FullName, account.Role, account.PasswordHash).
		Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrUsernameTaken
		}
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id int64, account domain.UserAccount) (*domain.User, error) {
	// Empty hash means the password stays as-is.
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET username = $2, full_name = $3, role = $4,
			password_hash = CASE WHEN $5 = '' THEN password_hash ELSE $5 END
		WHERE id = $1
		RETURNING id, username, full_name, role, created_at
	`, id, account.Username, account.FullName, account.Role, account.PasswordHash).
		Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrUsernameTaken
		}
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMovement(ctx context.Context, q execQuerier, productID *int64, name string, kind string, qty decimal.Decimal, reason string, operatorID *int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO stock_movements (product_id, name_snapshot, kind, quantity, reason, operator_id, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())
	`, nullInt64(productID), name, kind, qty, reason, nullInt64(operatorID))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *domain.Product) error {
	if err := row.Scan(&p.ID, &p.Name, &p.PurchaseCost, &p.SalePrice, &p.Stock, &p.MinStock, &p.Unit, &p.ImagePath, &p.Deleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullInt64(val *int64) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullDecimal(val *decimal.Decimal) any {
	if val == nil {
		return nil
	}
	return *val
}
