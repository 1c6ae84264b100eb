package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"kasirtoko/backend/internal/cache"
	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const (
	dashboardCacheKey = "report:dashboard"
	dashboardCacheTTL = 30 * time.Second
)

type Service struct {
	repo    store.Repository
	reports cache.ReportCache
}

func New(repo store.Repository, reports cache.ReportCache) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	return &Service{repo: repo, reports: reports}
}

func (s *Service) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, strings.TrimSpace(search))
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}

func (s *Service) CreateProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error) {
	if err := validateProductInput(&input); err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, input, s.operatorID(ctx))
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateDashboard(ctx)
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, input domain.ProductInput) (domain.Product, error) {
	if err := validateProductInput(&input); err != nil {
		return domain.Product{}, err
	}

	updated, err := s.repo.UpdateProduct(ctx, id, input, s.operatorID(ctx))
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateDashboard(ctx)
	return *updated, nil
}

// DeleteProduct removes the catalog row outright; sale history and the
// movement log keep rendering from their snapshots.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

// ArchiveProduct hides the product from listings and low-stock reports
// without touching its history or stock.
func (s *Service) ArchiveProduct(ctx context.Context, id int64) error {
	if err := s.repo.SoftDeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

// AdjustStock records a manual stock correction. A positive delta is an
// inbound restock, a negative one an adjustment; either way the movement
// entry carries the magnitude.
func (s *Service) AdjustStock(ctx context.Context, productID int64, req domain.StockDeltaRequest) (domain.Product, error) {
	if req.Delta.IsZero() {
		return domain.Product{}, fmt.Errorf("%w: delta must be non-zero", store.ErrValidation)
	}

	kind := domain.MovementIn
	if req.Delta.IsNegative() {
		kind = domain.MovementAdjustment
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Penyesuaian Manual"
	}

	updated, err := s.repo.ApplyStockDelta(ctx, productID, req.Delta, kind, reason, s.operatorID(ctx))
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateDashboard(ctx)
	return *updated, nil
}

// Checkout validates the cart and delegates to the storage layer, which
// commits the header, line items, stock decrements, and movement entries
// as one atomic unit. The total rounds up to whole currency units; line
// subtotals stay exact. Duplicate product ids are kept as independent
// lines in submitted order.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	if len(req.Lines) == 0 {
		return domain.CheckoutResponse{}, fmt.Errorf("%w: empty cart", store.ErrValidation)
	}

	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}
	if !isSupportedPaymentMethod(req.PaymentMethod) {
		return domain.CheckoutResponse{}, fmt.Errorf("%w: unsupported payment method %q", store.ErrValidation, req.PaymentMethod)
	}

	total := decimal.Zero
	for i, line := range req.Lines {
		if line.ProductID < 1 {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: line %d has no product", store.ErrValidation, i+1)
		}
		if !line.Quantity.IsPositive() {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: line %d quantity must be positive", store.ErrValidation, i+1)
		}
		if line.UnitPrice.IsNegative() {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: line %d unit price must not be negative", store.ErrValidation, i+1)
		}
		total = total.Add(line.Quantity.Mul(line.UnitPrice))
	}
	total = total.Ceil()

	tx := domain.SaleTransaction{
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		OperatorID:    s.operatorID(ctx),
	}

	if req.PaymentMethod == domain.PaymentCash {
		if req.Tendered == nil {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: cash payment requires tendered amount", store.ErrValidation)
		}
		if req.Tendered.LessThan(total) {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: tendered %s is less than total %s", store.ErrValidation, req.Tendered.String(), total.String())
		}
		change := req.Tendered.Sub(total)
		tx.Tendered = req.Tendered
		tx.Change = &change
	}

	committed, err := s.repo.CommitSale(ctx, tx, req.Lines)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	s.invalidateDashboard(ctx)

	return domain.CheckoutResponse{
		TransactionID: committed.ID,
		Total:         committed.Total,
		Change:        committed.Change,
		OccurredAt:    committed.OccurredAt.Format(time.RFC3339),
		ItemCount:     len(committed.Items),
	}, nil
}

func (s *Service) GetTransaction(ctx context.Context, id int64) (domain.SaleTransaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return domain.SaleTransaction{}, err
	}
	return *tx, nil
}

func (s *Service) ListTransactions(ctx context.Context, limit int) ([]domain.SaleTransaction, error) {
	now := time.Now().UTC()
	return s.repo.ListTransactions(ctx, time.Time{}, now.Add(24*time.Hour), limit)
}

func (s *Service) ListMovements(ctx context.Context, limit int) ([]domain.StockMovement, error) {
	return s.repo.ListMovements(ctx, limit)
}

// Dashboard assembles the snapshot view: today's sales and profit,
// month-to-date sales, the low-stock shortlist, and recent movements.
// The result is cached briefly and dropped on any mutation.
func (s *Service) Dashboard(ctx context.Context) (domain.DashboardReport, error) {
	if cached, ok, err := s.reports.Get(ctx, dashboardCacheKey); err != nil {
		log.Printf("[service] WARN: dashboard cache read failed: %v", err)
	} else if ok {
		return *cached, nil
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	tomorrow := dayStart.Add(24 * time.Hour)

	todaySales, todayCount, err := s.repo.SalesTotal(ctx, dayStart, tomorrow)
	if err != nil {
		return domain.DashboardReport{}, err
	}
	monthSales, _, err := s.repo.SalesTotal(ctx, monthStart, tomorrow)
	if err != nil {
		return domain.DashboardReport{}, err
	}
	todayProfit, err := s.repo.Profit(ctx, dayStart, tomorrow)
	if err != nil {
		return domain.DashboardReport{}, err
	}
	lowStock, err := s.repo.LowStock(ctx, 5)
	if err != nil {
		return domain.DashboardReport{}, err
	}
	movements, err := s.repo.ListMovements(ctx, 10)
	if err != nil {
		return domain.DashboardReport{}, err
	}

	report := domain.DashboardReport{
		TodaySales:      todaySales,
		TodayProfit:     todayProfit,
		MonthSales:      monthSales,
		TodayCount:      todayCount,
		LowStock:        lowStock,
		RecentMovements: movements,
		GeneratedAt:     now.Format(time.RFC3339),
	}

	if err := s.reports.Set(ctx, dashboardCacheKey, &report, dashboardCacheTTL); err != nil {
		log.Printf("[service] WARN: dashboard cache write failed: %v", err)
	}
	return report, nil
}

// PeriodReport aggregates sales, profit, and per-day breakdowns over a
// selector: daily (today), weekly (since Monday), monthly (since the
// 1st), or custom with explicit start/end dates (end inclusive).
func (s *Service) PeriodReport(ctx context.Context, period, startDate, endDate string) (domain.PeriodReport, error) {
	from, to, err := resolvePeriod(period, startDate, endDate)
	if err != nil {
		return domain.PeriodReport{}, err
	}

	totalSales, count, err := s.repo.SalesTotal(ctx, from, to)
	if err != nil {
		return domain.PeriodReport{}, err
	}
	totalProfit, err := s.repo.Profit(ctx, from, to)
	if err != nil {
		return domain.PeriodReport{}, err
	}
	byDay, err := s.repo.SalesByDay(ctx, from, to)
	if err != nil {
		return domain.PeriodReport{}, err
	}
	transactions, err := s.repo.ListTransactions(ctx, from, to, 200)
	if err != nil {
		return domain.PeriodReport{}, err
	}

	return domain.PeriodReport{
		Period:       strings.ToLower(strings.TrimSpace(period)),
		Start:        from.Format("2006-01-02"),
		End:          to.Add(-24 * time.Hour).Format("2006-01-02"),
		TotalSales:   totalSales,
		TotalProfit:  totalProfit,
		Count:        count,
		ByDay:        byDay,
		Transactions: transactions,
	}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) CreateUser(ctx context.Context, input domain.UserInput) (domain.User, error) {
	account, err := buildUserAccount(input, true)
	if err != nil {
		return domain.User{}, err
	}

	created, err := s.repo.CreateUser(ctx, account)
	if err != nil {
		return domain.User{}, err
	}
	return *created, nil
}

func (s *Service) UpdateUser(ctx context.Context, id int64, input domain.UserInput) (domain.User, error) {
	account, err := buildUserAccount(input, false)
	if err != nil {
		return domain.User{}, err
	}

	updated, err := s.repo.UpdateUser(ctx, id, account)
	if err != nil {
		return domain.User{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if actor, ok := ActorFromContext(ctx); ok && actor.ID == id {
		return fmt.Errorf("%w: cannot delete own account", store.ErrValidation)
	}
	return s.repo.DeleteUser(ctx, id)
}

func (s *Service) operatorID(ctx context.Context) *int64 {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.ID < 1 {
		return nil
	}
	id := actor.ID
	return &id
}

func (s *Service) invalidateDashboard(ctx context.Context) {
	if err := s.reports.Del(ctx, dashboardCacheKey); err != nil {
		log.Printf("[service] WARN: dashboard cache invalidation failed: %v", err)
	}
}

func validateProductInput(input *domain.ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Unit = strings.TrimSpace(input.Unit)
	input.ImagePath = strings.TrimSpace(input.ImagePath)

	if input.Name == "" {
		return fmt.Errorf("%w: name is required", store.ErrValidation)
	}
	if input.Unit == "" {
		input.Unit = "pcs"
	}
	if input.PurchaseCost.IsNegative() || input.SalePrice.IsNegative() {
		return fmt.Errorf("%w: prices must not be negative", store.ErrValidation)
	}
	if input.Stock.IsNegative() || input.MinStock.IsNegative() {
		return fmt.Errorf("%w: stock must not be negative", store.ErrValidation)
	}
	return nil
}

func buildUserAccount(input domain.UserInput, passwordRequired bool) (domain.UserAccount, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.FullName = strings.TrimSpace(input.FullName)
	input.Role = strings.ToLower(strings.TrimSpace(input.Role))

	if input.Username == "" {
		return domain.UserAccount{}, fmt.Errorf("%w: username is required", store.ErrValidation)
	}
	if input.Role != domain.RoleAdmin && input.Role != domain.RoleCashier {
		return domain.UserAccount{}, fmt.Errorf("%w: unknown role %q", store.ErrValidation, input.Role)
	}
	if passwordRequired && input.Password == "" {
		return domain.UserAccount{}, fmt.Errorf("%w: password is required", store.ErrValidation)
	}
	if input.FullName == "" {
		input.FullName = input.Username
	}

	account := domain.UserAccount{
		User: domain.User{
			Username: input.Username,
			FullName: input.FullName,
			Role:     input.Role,
		},
	}
	if input.Password != "" {
		if len(input.Password) < 6 {
			return domain.UserAccount{}, fmt.Errorf("%w: password must be at least 6 characters", store.ErrValidation)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.UserAccount{}, err
		}
		account.PasswordHash = string(hash)
	}
	return account, nil
}

func isSupportedPaymentMethod(method string) bool {
	switch method {
	case domain.PaymentCash, domain.PaymentQRIS, domain.PaymentTransfer:
		return true
	default:
		return false
	}
}

// resolvePeriod maps a selector to a half-open UTC interval [from, to).
func resolvePeriod(period, startDate, endDate string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch strings.ToLower(strings.TrimSpace(period)) {
	case "daily":
		return dayStart, dayStart.Add(24 * time.Hour), nil
	case "weekly":
		weekday := int(dayStart.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		weekStart := dayStart.AddDate(0, 0, -(weekday - 1))
		return weekStart, dayStart.Add(24 * time.Hour), nil
	case "monthly":
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return monthStart, dayStart.Add(24 * time.Hour), nil
	case "custom":
		from, err := time.Parse("2006-01-02", strings.TrimSpace(startDate))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start date", store.ErrValidation)
		}
		end, err := time.Parse("2006-01-02", strings.TrimSpace(endDate))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end date", store.ErrValidation)
		}
		to := end.UTC().Add(24 * time.Hour)
		if !from.Before(to) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start date after end date", store.ErrValidation)
		}
		return from.UTC(), to, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown period %q", store.ErrValidation, period)
	}
}
