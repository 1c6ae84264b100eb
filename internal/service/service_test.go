package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/store"
	"kasirtoko/backend/internal/store/memory"
)

// Seeded catalog used below: product 1 is Beras 5kg (stock 40), product 2
// is Minyak Goreng 1L (stock 60), product 5 is Mie Instan Goreng (stock
// 200), product 10 is Cabai Rawit (stock 6.25).

func newTestService() *Service {
	return New(memory.NewSeeded(), nil)
}

func adminContext() context.Context {
	return WithActor(context.Background(), domain.Actor{
		ID:       1,
		Username: "admin",
		Role:     domain.RoleAdmin,
	})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCheckoutCommitsSaleAndDecrementsStock(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	tendered := dec("150000")
	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: "cash",
		Tendered:      &tendered,
		Lines: []domain.CartLine{
			{ProductID: 1, Quantity: dec("2"), UnitPrice: dec("50000")},
			{ProductID: 2, Quantity: dec("1"), UnitPrice: dec("30000")},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !resp.Total.Equal(dec("130000")) {
		t.Fatalf("expected total 130000, got %s", resp.Total)
	}
	if resp.Change == nil || !resp.Change.Equal(dec("20000")) {
		t.Fatalf("expected change 20000, got %v", resp.Change)
	}
	if resp.ItemCount != 2 {
		t.Fatalf("expected 2 line items, got %d", resp.ItemCount)
	}

	beras, err := svc.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if !beras.Stock.Equal(dec("38")) {
		t.Fatalf("expected beras stock 38 after sale, got %s", beras.Stock)
	}
	minyak, err := svc.GetProduct(ctx, 2)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if !minyak.Stock.Equal(dec("59")) {
		t.Fatalf("expected minyak stock 59 after sale, got %s", minyak.Stock)
	}

	movements, err := svc.ListMovements(ctx, 10)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	for _, m := range movements {
		if m.Kind != domain.MovementOut {
			t.Fatalf("expected out movement, got %s", m.Kind)
		}
		if m.Reason != "Penjualan #1" {
			t.Fatalf("unexpected movement reason: %s", m.Reason)
		}
	}

	saved, err := svc.GetTransaction(ctx, resp.TransactionID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if saved.OperatorID == nil || *saved.OperatorID != 1 {
		t.Fatalf("expected operator id 1, got %v", saved.OperatorID)
	}
	if saved.OperatorName != "Administrator" {
		t.Fatalf("unexpected operator name: %s", saved.OperatorName)
	}
}

func TestCheckoutRollsBackWholeCartOnShortfall(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: "qris",
		Lines: []domain.CartLine{
			{ProductID: 1, Quantity: dec("2"), UnitPrice: dec("65000")},
			{ProductID: 10, Quantity: dec("100"), UnitPrice: dec("52000")},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	var shortfall *store.InsufficientStockError
	if !errors.As(err, &shortfall) {
		t.Fatalf("expected structured shortfall detail, got %v", err)
	}
	if shortfall.ProductID != 10 || shortfall.ProductName != "Cabai Rawit" {
		t.Fatalf("unexpected shortfall product: %+v", shortfall)
	}
	if !shortfall.Available.Equal(dec("6.25")) || !shortfall.Requested.Equal(dec("100")) {
		t.Fatalf("unexpected shortfall amounts: %+v", shortfall)
	}

	beras, err := svc.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if !beras.Stock.Equal(dec("40")) {
		t.Fatalf("expected beras stock untouched at 40, got %s", beras.Stock)
	}

	movements, err := svc.ListMovements(ctx, 10)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if len(movements) != 0 {
		t.Fatalf("expected no movements after rollback, got %d", len(movements))
	}
	transactions, err := svc.ListTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(transactions) != 0 {
		t.Fatalf("expected no transactions after rollback, got %d", len(transactions))
	}
}

func TestCheckoutDuplicateLinesValidatedCumulatively(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	// Cabai Rawit has 6.25 in stock. Two lines of 4 pass individually
	// but not together.
	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: "qris",
		Lines: []domain.CartLine{
			{ProductID: 10, Quantity: dec("4"), UnitPrice: dec("52000")},
			{ProductID: 10, Quantity: dec("4"), UnitPrice: dec("52000")},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected cumulative shortfall, got %v", err)
	}

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: "qris",
		Lines: []domain.CartLine{
			{ProductID: 10, Quantity: dec("3"), UnitPrice: dec("52000")},
			{ProductID: 10, Quantity: dec("3"), UnitPrice: dec("52000")},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if resp.ItemCount != 2 {
		t.Fatalf("expected duplicate lines kept separate, got %d items", resp.ItemCount)
	}

	cabai, err := svc.GetProduct(ctx, 10)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if !cabai.Stock.Equal(dec("0.25")) {
		t.Fatalf("expected cabai stock 0.25, got %s", cabai.Stock)
	}
}

func TestCheckoutCeilsTotalButKeepsExactSubtotals(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: "transfer",
		Lines: []domain.CartLine{
			{ProductID: 9, Quantity: dec("1.5"), UnitPrice: dec("3333")},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !resp.Total.Equal(dec("5000")) {
		t.Fatalf("expected total rounded up to 5000, got %s", resp.Total)
	}

	saved, err := svc.GetTransaction(ctx, resp.TransactionID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if len(saved.Items) != 1 {
		t.Fatalf("expected one line item, got %d", len(saved.Items))
	}
	if !saved.Items[0].Subtotal.Equal(dec("4999.5")) {
		t.Fatalf("expected exact subtotal 4999.5, got %s", saved.Items[0].Subtotal)
	}
}

func TestCheckoutCashValidation(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()
	lines := []domain.CartLine{
		{ProductID: 5, Quantity: dec("2"), UnitPrice: dec("3500")},
	}

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", Lines: lines})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error without tendered amount, got %v", err)
	}

	low := dec("5000")
	_, err = svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", Tendered: &low, Lines: lines})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for insufficient tender, got %v", err)
	}

	mie, err := svc.GetProduct(ctx, 5)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if !mie.Stock.Equal(dec("200")) {
		t.Fatalf("expected stock untouched after rejected cash sale, got %s", mie.Stock)
	}

	_, err = svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "voucher", Lines: lines})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for unknown payment method, got %v", err)
	}

	_, err = svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash"})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
}

func TestCheckoutConcurrentSalesNeverOversell(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	// Mie Instan starts at 200. Twenty workers try to take 15 each;
	// at most 13 can succeed.
	const workers = 20
	qty := dec("15")

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(ctx, domain.CheckoutRequest{
				PaymentMethod: "qris",
				Lines: []domain.CartLine{
					{ProductID: 5, Quantity: qty, UnitPrice: dec("3500")},
				},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, store.ErrInsufficientStock) {
			t.Fatalf("unexpected checkout error: %v", err)
		}
	}

	mie, err := svc.GetProduct(ctx, 5)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	sold := qty.Mul(decimal.NewFromInt(int64(succeeded)))
	if sold.GreaterThan(dec("200")) {
		t.Fatalf("oversold: %d sales of 15 from stock 200", succeeded)
	}
	if !mie.Stock.Equal(dec("200").Sub(sold)) {
		t.Fatalf("expected stock %s, got %s", dec("200").Sub(sold), mie.Stock)
	}
	if mie.Stock.IsNegative() {
		t.Fatalf("stock went negative: %s", mie.Stock)
	}
}

func TestDeleteProductKeepsHistorySnapshots(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: "qris",
		Lines: []domain.CartLine{
			{ProductID: 1, Quantity: dec("1"), UnitPrice: dec("65000")},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if err := svc.DeleteProduct(ctx, 1); err != nil {
		t.Fatalf("delete product failed: %v", err)
	}
	if _, err := svc.GetProduct(ctx, 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected deleted product to be gone, got %v", err)
	}

	saved, err := svc.GetTransaction(ctx, resp.TransactionID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if saved.Items[0].ProductID != nil {
		t.Fatalf("expected product link cleared, got %v", *saved.Items[0].ProductID)
	}
	if saved.Items[0].NameSnapshot != "Beras 5kg" {
		t.Fatalf("expected name snapshot preserved, got %s", saved.Items[0].NameSnapshot)
	}

	movements, err := svc.ListMovements(ctx, 10)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	if movements[0].ProductID != nil {
		t.Fatalf("expected movement product link cleared")
	}
	if movements[0].NameSnapshot != "Beras 5kg" {
		t.Fatalf("expected movement snapshot preserved, got %s", movements[0].NameSnapshot)
	}
}

func TestArchiveProductHidesFromListings(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	if err := svc.ArchiveProduct(ctx, 5); err != nil {
		t.Fatalf("archive product failed: %v", err)
	}

	if _, err := svc.GetProduct(ctx, 5); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected archived product hidden, got %v", err)
	}
	products, err := svc.ListProducts(ctx, "")
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	for _, p := range products {
		if p.ID == 5 {
			t.Fatalf("expected archived product absent from listing")
		}
	}
	if len(products) != 9 {
		t.Fatalf("expected 9 visible products, got %d", len(products))
	}
}

func TestAdjustStockKindsAndDefaultReason(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	updated, err := svc.AdjustStock(ctx, 5, domain.StockDeltaRequest{Delta: dec("24"), Reason: "Restock supplier"})
	if err != nil {
		t.Fatalf("adjust stock failed: %v", err)
	}
	if !updated.Stock.Equal(dec("224")) {
		t.Fatalf("expected stock 224 after restock, got %s", updated.Stock)
	}

	updated, err = svc.AdjustStock(ctx, 5, domain.StockDeltaRequest{Delta: dec("-4")})
	if err != nil {
		t.Fatalf("adjust stock failed: %v", err)
	}
	if !updated.Stock.Equal(dec("220")) {
		t.Fatalf("expected stock 220 after correction, got %s", updated.Stock)
	}

	_, err = svc.AdjustStock(ctx, 5, domain.StockDeltaRequest{Delta: decimal.Zero})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for zero delta, got %v", err)
	}

	_, err = svc.AdjustStock(ctx, 5, domain.StockDeltaRequest{Delta: dec("-1000")})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected shortfall for oversized decrement, got %v", err)
	}

	movements, err := svc.ListMovements(ctx, 10)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	if movements[0].Kind != domain.MovementAdjustment || movements[0].Reason != "Penyesuaian Manual" {
		t.Fatalf("unexpected adjustment movement: %+v", movements[0])
	}
	if !movements[0].Quantity.Equal(dec("4")) {
		t.Fatalf("expected movement magnitude 4, got %s", movements[0].Quantity)
	}
	if movements[1].Kind != domain.MovementIn || movements[1].Reason != "Restock supplier" {
		t.Fatalf("unexpected restock movement: %+v", movements[1])
	}
}

func TestUpdateProductLogsStockDiff(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	_, err := svc.UpdateProduct(ctx, 2, domain.ProductInput{
		Name:         "Minyak Goreng 1L",
		PurchaseCost: dec("16500"),
		SalePrice:    dec("19500"),
		Stock:        dec("55"),
		MinStock:     dec("12"),
		Unit:         "btl",
	})
	if err != nil {
		t.Fatalf("update product failed: %v", err)
	}

	movements, err := svc.ListMovements(ctx, 5)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	if movements[0].Kind != domain.MovementAdjustment || movements[0].Reason != "Edit Manual" {
		t.Fatalf("unexpected edit movement: %+v", movements[0])
	}
	if !movements[0].Quantity.Equal(dec("5")) {
		t.Fatalf("expected movement magnitude 5, got %s", movements[0].Quantity)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	_, err := svc.CreateProduct(ctx, domain.ProductInput{Name: "   "})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}

	_, err = svc.CreateProduct(ctx, domain.ProductInput{
		Name:      "Garam Dapur",
		SalePrice: dec("-5"),
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}

	created, err := svc.CreateProduct(ctx, domain.ProductInput{
		Name:         "Garam Dapur",
		PurchaseCost: dec("2000"),
		SalePrice:    dec("3000"),
		Stock:        dec("30"),
		MinStock:     dec("5"),
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if created.Unit != "pcs" {
		t.Fatalf("expected default unit pcs, got %s", created.Unit)
	}

	movements, err := svc.ListMovements(ctx, 5)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if len(movements) != 1 || movements[0].Reason != "Stok Awal" {
		t.Fatalf("expected initial stock movement, got %+v", movements)
	}
}

func TestDashboardReflectsTodaySales(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: "qris",
		Lines: []domain.CartLine{
			{ProductID: 1, Quantity: dec("1"), UnitPrice: dec("65000")},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	report, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if !report.TodaySales.Equal(dec("65000")) {
		t.Fatalf("expected today sales 65000, got %s", report.TodaySales)
	}
	if report.TodayCount != 1 {
		t.Fatalf("expected 1 sale today, got %d", report.TodayCount)
	}
	if !report.TodayProfit.Equal(dec("7000")) {
		t.Fatalf("expected today profit 7000, got %s", report.TodayProfit)
	}
	if len(report.RecentMovements) != 1 {
		t.Fatalf("expected 1 recent movement, got %d", len(report.RecentMovements))
	}
}

func TestPeriodReportDaily(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: "qris",
		Lines: []domain.CartLine{
			{ProductID: 5, Quantity: dec("10"), UnitPrice: dec("3500")},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	report, err := svc.PeriodReport(ctx, "daily", "", "")
	if err != nil {
		t.Fatalf("period report failed: %v", err)
	}
	if !report.TotalSales.Equal(dec("35000")) {
		t.Fatalf("expected total sales 35000, got %s", report.TotalSales)
	}
	if report.Count != 1 {
		t.Fatalf("expected 1 transaction, got %d", report.Count)
	}
	if len(report.ByDay) != 1 {
		t.Fatalf("expected single day bucket, got %d", len(report.ByDay))
	}
	if len(report.Transactions) != 1 {
		t.Fatalf("expected transaction detail in report, got %d", len(report.Transactions))
	}
}

func TestResolvePeriodSelectors(t *testing.T) {
	cases := []struct {
		name      string
		period    string
		startDate string
		endDate   string
		wantErr   bool
	}{
		{name: "daily", period: "daily"},
		{name: "weekly", period: "weekly"},
		{name: "monthly", period: "Monthly"},
		{name: "custom", period: "custom", startDate: "2026-08-01", endDate: "2026-08-15"},
		{name: "custom same day", period: "custom", startDate: "2026-08-15", endDate: "2026-08-15"},
		{name: "custom reversed", period: "custom", startDate: "2026-08-20", endDate: "2026-08-10", wantErr: true},
		{name: "custom bad date", period: "custom", startDate: "15-08-2026", endDate: "2026-08-20", wantErr: true},
		{name: "unknown", period: "yearly", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			from, to, err := resolvePeriod(tc.period, tc.startDate, tc.endDate)
			if tc.wantErr {
				if !errors.Is(err, store.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if !from.Before(to) {
				t.Fatalf("expected from %s before to %s", from, to)
			}
		})
	}
}

func TestResolvePeriodCustomEndInclusive(t *testing.T) {
	from, to, err := resolvePeriod("custom", "2026-08-01", "2026-08-15")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if from.Format("2006-01-02") != "2026-08-01" {
		t.Fatalf("unexpected from: %s", from)
	}
	// The end date itself is part of the range.
	if to.Format("2006-01-02") != "2026-08-16" {
		t.Fatalf("unexpected to: %s", to)
	}
}

func TestUserManagement(t *testing.T) {
	svc := newTestService()
	ctx := adminContext()

	_, err := svc.CreateUser(ctx, domain.UserInput{Username: "budi", Password: "123", Role: "cashier"})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}

	_, err = svc.CreateUser(ctx, domain.UserInput{Username: "budi", Password: "rahasia1", Role: "manager"})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}

	created, err := svc.CreateUser(ctx, domain.UserInput{Username: "Budi", Password: "rahasia1", Role: "cashier"})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if created.Username != "budi" {
		t.Fatalf("expected lowercased username, got %s", created.Username)
	}
	if created.FullName != "budi" {
		t.Fatalf("expected full name fallback to username, got %s", created.FullName)
	}

	_, err = svc.CreateUser(ctx, domain.UserInput{Username: "budi", Password: "rahasia2", Role: "cashier"})
	if !errors.Is(err, store.ErrUsernameTaken) {
		t.Fatalf("expected username conflict, got %v", err)
	}

	updated, err := svc.UpdateUser(ctx, created.ID, domain.UserInput{
		Username: "budi",
		FullName: "Budi Santoso",
		Role:     "admin",
	})
	if err != nil {
		t.Fatalf("update user failed: %v", err)
	}
	if updated.FullName != "Budi Santoso" || updated.Role != domain.RoleAdmin {
		t.Fatalf("unexpected updated user: %+v", updated)
	}

	if err := svc.DeleteUser(ctx, 1); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected self-delete to be rejected, got %v", err)
	}
	if err := svc.DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("delete user failed: %v", err)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected seeded users only, got %d", len(users))
	}
}
