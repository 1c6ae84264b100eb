package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	products     map[int64]domain.Product
	transactions map[int64]domain.SaleTransaction
	movements    []domain.StockMovement
	users        map[int64]domain.UserAccount

	nextProductID  int64
	nextTxID       int64
	nextLineID     int64
	nextMovementID int64
	nextUserID     int64
}

func New() *Store {
	return &Store{
		products:     make(map[int64]domain.Product),
		transactions: make(map[int64]domain.SaleTransaction),
		movements:    make([]domain.StockMovement, 0, 128),
		users:        make(map[int64]domain.UserAccount),
	}
}

// seedUsers builds the initial in-memory operator accounts for dev/demo
// mode. Credentials come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD;
// hardcoded dev defaults are used with a warning when unset. These are
// never used in production (the backend uses PostgreSQL when DATABASE_URL
// is set).
func (s *Store) seedUsers() {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	for _, u := range []struct {
		username string
		fullName string
		password string
		role     string
	}{
		{"admin", "Administrator", adminPwd, domain.RoleAdmin},
		{"cashier", "Kasir Toko", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		s.nextUserID++
		s.users[s.nextUserID] = domain.UserAccount{
			User: domain.User{
				ID:        s.nextUserID,
				Username:  u.username,
				FullName:  u.fullName,
				Role:      u.role,
				CreatedAt: now,
			},
			PasswordHash: string(hash),
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := New()
	s.seedUsers()

	now := time.Now().UTC()
	seed := []struct {
		name     string
		cost     string
		price    string
		stock    string
		minStock string
		unit     string
	}{
		{"Beras 5kg", "58000", "65000", "40", "10", "sak"},
		{"Minyak Goreng 1L", "16500", "19000", "60", "12", "btl"},
		{"Gula Pasir 1kg", "14500", "17400", "35", "10", "kg"},
		{"Telur Ayam", "24000", "26500", "50", "8", "kg"},
		{"Mie Instan Goreng", "2800", "3500", "200", "24", "pcs"},
		{"Kopi Sachet", "1900", "2600", "150", "20", "pcs"},
		{"Air Mineral 600ml", "2500", "3900", "96", "24", "btl"},
		{"Sabun Mandi", "5200", "7400", "48", "6", "pcs"},
		{"Bawang Merah", "32000", "38000", "12.5", "3", "kg"},
		{"Cabai Rawit", "45000", "52000", "6.25", "2", "kg"},
	}

	for _, p := range seed {
		s.nextProductID++
		s.products[s.nextProductID] = domain.Product{
			ID:           s.nextProductID,
			Name:         p.name,
			PurchaseCost: decimal.RequireFromString(p.cost),
			SalePrice:    decimal.RequireFromString(p.price),
			Stock:        decimal.RequireFromString(p.stock),
			MinStock:     decimal.RequireFromString(p.minStock),
			Unit:         p.unit,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	return s
}

func (s *Store) ListProducts(_ context.Context, search string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Deleted {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		return int(b.ID - a.ID)
	})

	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[id]
	if !exists || p.Deleted {
		return nil, store.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (s *Store) CreateProduct(_ context.Context, input domain.ProductInput, operatorID *int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.nextProductID++
	p := domain.Product{
		ID:           s.nextProductID,
		Name:         input.Name,
		PurchaseCost: input.PurchaseCost,
		SalePrice:    input.SalePrice,
		Stock:        input.Stock,
		MinStock:     input.MinStock,
		Unit:         input.Unit,
		ImagePath:    input.ImagePath,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.products[p.ID] = p

	if p.Stock.IsPositive() {
		s.appendMovement(&p.ID, p.Name, domain.MovementIn, p.Stock, "Stok Awal", operatorID, now)
	}

	created := p
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, id int64, input domain.ProductInput, operatorID *int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[id]
	if !exists || p.Deleted {
		return nil, store.ErrNotFound
	}

	now := time.Now().UTC()
	diff := input.Stock.Sub(p.Stock)

	p.Name = input.Name
	p.PurchaseCost = input.PurchaseCost
	p.SalePrice = input.SalePrice
	p.Stock = input.Stock
	p.MinStock = input.MinStock
	p.Unit = input.Unit
	p.ImagePath = input.ImagePath
	p.UpdatedAt = now
	s.products[id] = p

	if !diff.IsZero() {
		kind := domain.MovementIn
		if diff.IsNegative() {
			kind = domain.MovementAdjustment
		}
		s.appendMovement(&p.ID, p.Name, kind, diff.Abs(), "Edit Manual", operatorID, now)
	}

	updated := p
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)

	// Weak references: history keeps its snapshots, loses the live link.
	for txID, tx := range s.transactions {
		changed := false
		for i := range tx.Items {
			if tx.Items[i].ProductID != nil && *tx.Items[i].ProductID == id {
				tx.Items[i].ProductID = nil
				changed = true
			}
		}
		if changed {
			s.transactions[txID] = tx
		}
	}
	for i := range s.movements {
		if s.movements[i].ProductID != nil && *s.movements[i].ProductID == id {
			s.movements[i].ProductID = nil
		}
	}
	return nil
}

func (s *Store) SoftDeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[id]
	if !exists || p.Deleted {
		return store.ErrNotFound
	}
	p.Deleted = true
	p.UpdatedAt = time.Now().UTC()
	s.products[id] = p
	return nil
}

// CommitSale validates every line against a staged copy of the affected
// products before mutating anything, so a failure partway through the
// cart leaves stock, movements, and transactions untouched.
func (s *Store) CommitSale(_ context.Context, saleTx domain.SaleTransaction, lines []domain.CartLine) (*domain.SaleTransaction, error) {
	if len(lines) == 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[int64]decimal.Decimal, len(lines))
	for _, line := range lines {
		p, exists := s.products[line.ProductID]
		if !exists {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, store.ErrNotFound)
		}
		remaining, ok := staged[line.ProductID]
		if !ok {
			remaining = p.Stock
		}
		if remaining.LessThan(line.Quantity) {
			return nil, &store.InsufficientStockError{
				ProductID:   line.ProductID,
				ProductName: p.Name,
				Available:   remaining,
				Requested:   line.Quantity,
			}
		}
		staged[line.ProductID] = remaining.Sub(line.Quantity)
	}

	now := time.Now().UTC()
	s.nextTxID++
	saleTx.ID = s.nextTxID
	saleTx.OccurredAt = now

	items := make([]domain.SaleLineItem, 0, len(lines))
	for _, line := range lines {
		p := s.products[line.ProductID]
		p.Stock = p.Stock.Sub(line.Quantity)
		p.UpdatedAt = now
		s.products[line.ProductID] = p

		s.nextLineID++
		productID := line.ProductID
		items = append(items, domain.SaleLineItem{
			ID:            s.nextLineID,
			TransactionID: saleTx.ID,
			ProductID:     &productID,
			NameSnapshot:  p.Name,
			CostSnapshot:  p.PurchaseCost,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			Subtotal:      line.Quantity.Mul(line.UnitPrice),
		})

		reason := fmt.Sprintf("Penjualan #%d", saleTx.ID)
		s.appendMovement(&productID, p.Name, domain.MovementOut, line.Quantity, reason, saleTx.OperatorID, now)
	}

	saleTx.Items = items
	s.transactions[saleTx.ID] = saleTx
	committed := saleTx
	return &committed, nil
}

func (s *Store) ApplyStockDelta(_ context.Context, productID int64, delta decimal.Decimal, kind string, reason string, operatorID *int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[productID]
	if !exists || p.Deleted {
		return nil, store.ErrNotFound
	}
	if delta.IsNegative() && p.Stock.LessThan(delta.Neg()) {
		return nil, &store.InsufficientStockError{
			ProductID:   productID,
			ProductName: p.Name,
			Available:   p.Stock,
			Requested:   delta.Neg(),
		}
	}

	now := time.Now().UTC()
	p.Stock = p.Stock.Add(delta)
	p.UpdatedAt = now
	s.products[productID] = p

	s.appendMovement(&productID, p.Name, kind, delta.Abs(), reason, operatorID, now)

	updated := p
	return &updated, nil
}

func (s *Store) ListMovements(_ context.Context, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockMovement, 0, limit)
	for i := len(s.movements) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.movements[i])
	}
	return result, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (*domain.SaleTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.transactions[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := tx
	copied.Items = slices.Clone(tx.Items)
	s.fillOperatorName(&copied)
	return &copied, nil
}

func (s *Store) ListTransactions(_ context.Context, from, to time.Time, limit int) ([]domain.SaleTransaction, error) {
	if limit < 1 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := make([]domain.SaleTransaction, 0, limit)
	for _, tx := range s.transactions {
		if tx.OccurredAt.Before(from) || !tx.OccurredAt.Before(to) {
			continue
		}
		copied := tx
		copied.Items = slices.Clone(tx.Items)
		s.fillOperatorName(&copied)
		txs = append(txs, copied)
	}

	slices.SortFunc(txs, func(a, b domain.SaleTransaction) int {
		return int(b.ID - a.ID)
	})
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (s *Store) SalesTotal(_ context.Context, from, to time.Time) (decimal.Decimal, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	var count int64
	for _, tx := range s.transactions {
		if tx.OccurredAt.Before(from) || !tx.OccurredAt.Before(to) {
			continue
		}
		total = total.Add(tx.Total)
		count++
	}
	return total, count, nil
}

func (s *Store) Profit(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profit := decimal.Zero
	for _, tx := range s.transactions {
		if tx.OccurredAt.Before(from) || !tx.OccurredAt.Before(to) {
			continue
		}
		for _, item := range tx.Items {
			profit = profit.Add(item.UnitPrice.Sub(item.CostSnapshot).Mul(item.Quantity))
		}
	}
	return profit, nil
}

func (s *Store) LowStock(_ context.Context, limit int) ([]domain.LowStockItem, error) {
	if limit < 1 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.LowStockItem, 0, limit)
	for _, p := range s.products {
		if p.Deleted || p.Stock.GreaterThan(p.MinStock) {
			continue
		}
		items = append(items, domain.LowStockItem{
			ProductID: p.ID,
			Name:      p.Name,
			Stock:     p.Stock,
			MinStock:  p.MinStock,
			Unit:      p.Unit,
		})
	}

	slices.SortFunc(items, func(a, b domain.LowStockItem) int {
		return a.Stock.Cmp(b.Stock)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) SalesByDay(_ context.Context, from, to time.Time) ([]domain.DailySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := make(map[string]*domain.DailySales)
	for _, tx := range s.transactions {
		if tx.OccurredAt.Before(from) || !tx.OccurredAt.Before(to) {
			continue
		}
		day := tx.OccurredAt.UTC().Format("2006-01-02")
		entry, ok := byDay[day]
		if !ok {
			entry = &domain.DailySales{Date: day, Total: decimal.Zero}
			byDay[day] = entry
		}
		entry.Total = entry.Total.Add(tx.Total)
		entry.Count++
	}

	days := make([]domain.DailySales, 0, len(byDay))
	for _, entry := range byDay {
		days = append(days, *entry)
	}
	slices.SortFunc(days, func(a, b domain.DailySales) int {
		return strings.Compare(a.Date, b.Date)
	})
	return days, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, account := range s.users {
		users = append(users, account.User)
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.users {
		if account.Username == username {
			copied := account
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, account domain.UserAccount) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == account.Username {
			return nil, store.ErrUsernameTaken
		}
	}

	s.nextUserID++
	account.ID = s.nextUserID
	account.CreatedAt = time.Now().UTC()
	s.users[account.ID] = account

	created := account.User
	return &created, nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, account domain.UserAccount) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.users[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && other.Username == account.Username {
			return nil, store.ErrUsernameTaken
		}
	}

	existing.Username = account.Username
	existing.FullName = account.FullName
	existing.Role = account.Role
	if account.PasswordHash != "" {
		existing.PasswordHash = account.PasswordHash
	}
	s.users[id] = existing

	updated := existing.User
	return &updated, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// appendMovement assumes the caller holds the write lock.
func (s *Store) appendMovement(productID *int64, name string, kind string, qty decimal.Decimal, reason string, operatorID *int64, at time.Time) {
	s.nextMovementID++
	s.movements = append(s.movements, domain.StockMovement{
		ID:           s.nextMovementID,
		ProductID:    productID,
		NameSnapshot: name,
		Kind:         kind,
		Quantity:     qty,
		Reason:       reason,
		OperatorID:   operatorID,
		OccurredAt:   at,
	})
}

// fillOperatorName assumes the caller holds at least the read lock.
func (s *Store) fillOperatorName(tx *domain.SaleTransaction) {
	if tx.OperatorID == nil {
		return
	}
	if account, exists := s.users[*tx.OperatorID]; exists {
		tx.OperatorName = account.FullName
	}
}
