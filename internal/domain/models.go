package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	PurchaseCost decimal.Decimal `json:"purchase_cost"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	Stock        decimal.Decimal `json:"stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	Unit         string          `json:"unit"`
	ImagePath    string          `json:"image_path,omitempty"`
	Deleted      bool            `json:"deleted"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ProductInput struct {
	Name         string          `json:"name"`
	PurchaseCost decimal.Decimal `json:"purchase_cost"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	Stock        decimal.Decimal `json:"stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	Unit         string          `json:"unit"`
	ImagePath    string          `json:"image_path,omitempty"`
}

type SaleTransaction struct {
	ID            int64            `json:"id"`
	OccurredAt    time.Time        `json:"occurred_at"`
	Total         decimal.Decimal  `json:"total"`
	Tendered      *decimal.Decimal `json:"tendered,omitempty"`
	Change        *decimal.Decimal `json:"change,omitempty"`
	PaymentMethod string           `json:"payment_method"`
	OperatorID    *int64           `json:"operator_id,omitempty"`
	OperatorName  string           `json:"operator_name,omitempty"`
	Items         []SaleLineItem   `json:"items,omitempty"`
}

// SaleLineItem keeps a weak reference to its product: ProductID goes nil
// when the product row is removed, while NameSnapshot and CostSnapshot
// stay frozen at their sale-time values.
type SaleLineItem struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	ProductID     *int64          `json:"product_id,omitempty"`
	NameSnapshot  string          `json:"name_snapshot"`
	CostSnapshot  decimal.Decimal `json:"cost_snapshot"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// StockMovement is append-only. Quantity is always a positive magnitude;
// direction is carried by Kind.
type StockMovement struct {
	ID           int64           `json:"id"`
	ProductID    *int64          `json:"product_id,omitempty"`
	NameSnapshot string          `json:"name_snapshot"`
	Kind         string          `json:"kind"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reason       string          `json:"reason"`
	OperatorID   *int64          `json:"operator_id,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is the persistence model carrying the password hash.
type UserAccount struct {
	User
	PasswordHash string
}

type UserInput struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	ID       int64
	Username string
	Role     string
}

type CartLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CheckoutRequest struct {
	PaymentMethod string           `json:"payment_method"`
	Tendered      *decimal.Decimal `json:"tendered,omitempty"`
	Lines         []CartLine       `json:"lines"`
}

type CheckoutResponse struct {
	TransactionID int64            `json:"transaction_id"`
	Total         decimal.Decimal  `json:"total"`
	Change        *decimal.Decimal `json:"change,omitempty"`
	OccurredAt    string           `json:"occurred_at"`
	ItemCount     int              `json:"item_count"`
}

type StockDeltaRequest struct {
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason"`
}

type LowStockItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Stock     decimal.Decimal `json:"stock"`
	MinStock  decimal.Decimal `json:"min_stock"`
	Unit      string          `json:"unit"`
}

type DashboardReport struct {
	TodaySales      decimal.Decimal `json:"today_sales"`
	TodayProfit     decimal.Decimal `json:"today_profit"`
	MonthSales      decimal.Decimal `json:"month_sales"`
	TodayCount      int64           `json:"today_count"`
	LowStock        []LowStockItem  `json:"low_stock"`
	RecentMovements []StockMovement `json:"recent_movements"`
	GeneratedAt     string          `json:"generated_at"`
}

type DailySales struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

type PeriodReport struct {
	Period       string            `json:"period"`
	Start        string            `json:"start"`
	End          string            `json:"end"`
	TotalSales   decimal.Decimal   `json:"total_sales"`
	TotalProfit  decimal.Decimal   `json:"total_profit"`
	Count        int64             `json:"count"`
	ByDay        []DailySales      `json:"by_day"`
	Transactions []SaleTransaction `json:"transactions"`
}

const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
)

const (
	PaymentCash     = "cash"
	PaymentQRIS     = "qris"
	PaymentTransfer = "transfer"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// DeletedProductName labels history rows whose product has been removed
// and whose snapshot is somehow empty.
const DeletedProductName = "Item Terhapus"
