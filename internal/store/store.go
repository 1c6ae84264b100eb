package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kasirtoko/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUsernameTaken     = errors.New("username already taken")
)

// InsufficientStockError reports the shortfall for one cart line. It
// matches ErrInsufficientStock under errors.Is so callers can branch on
// the sentinel and still recover the detail with errors.As.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): available %s, requested %s",
		e.ProductID, e.ProductName, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type Repository interface {
	ListProducts(ctx context.Context, search string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, input domain.ProductInput, operatorID *int64) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, input domain.ProductInput, operatorID *int64) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SoftDeleteProduct(ctx context.Context, id int64) error

	CommitSale(ctx context.Context, tx domain.SaleTransaction, lines []domain.CartLine) (*domain.SaleTransaction, error)
	ApplyStockDelta(ctx context.Context, productID int64, delta decimal.Decimal, kind string, reason string, operatorID *int64) (*domain.Product, error)

	ListMovements(ctx context.Context, limit int) ([]domain.StockMovement, error)

	GetTransaction(ctx context.Context, id int64) (*domain.SaleTransaction, error)
	ListTransactions(ctx context.Context, from, to time.Time, limit int) ([]domain.SaleTransaction, error)

	SalesTotal(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error)
	Profit(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	LowStock(ctx context.Context, limit int) ([]domain.LowStockItem, error)
	SalesByDay(ctx context.Context, from, to time.Time) ([]domain.DailySales, error)

	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	CreateUser(ctx context.Context, account domain.UserAccount) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, account domain.UserAccount) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}
