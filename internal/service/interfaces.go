package service

import (
	"context"

	"nutrijus/internal/domain"
)

type ProductRepository interface {
	ListProducts() ([]domain.Product, error)
	CreateProduct(p *domain.Product) error
	UpdateProductByID(id string, p domain.Product) (domain.Product, error)
	DeleteProductAt(index int) (domain.Product, error)
	DeleteProductByID(id string) (domain.Product, error)
}

type OrderRepository interface {
	ListOrders() ([]domain.Order, error)
	CreateOrder(o *domain.Order) error
	CreateOrders(batch []domain.Order) error
	UpdateOrderAt(index int, o domain.Order) (domain.Order, error)
	UpdateOrderByID(id string, o domain.Order) (domain.Order, error)
	DeleteOrderAt(index int) (domain.Order, error)
	DeleteOrderByID(id string) (domain.Order, error)
	ReplaceOrders(orders []domain.Order) error
}

type UserRepository interface {
	ListUsers() ([]domain.User, error)
	CreateUser(u *domain.User) error
	UpdateUserByID(id string, u domain.User) (domain.User, error)
	DeleteUserByID(id string) (domain.User, error)
}

type CartStorage interface {
	Get(ctx context.Context, id string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
	Delete(ctx context.Context, id string) error
}

type SessionStorage interface {
	Create(ctx context.Context, userID string) (string, error)
	Validate(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// Notifier sends an outbound message to a phone number. Delivery failures
// are logged by callers and never fail the triggering operation.
type Notifier interface {
	Send(ctx context.Context, to, message string) error
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
}

type QRCache interface {
	Get(ctx context.Context, orderID string) ([]byte, error)
	Set(ctx context.Context, orderID string, png []byte) error
}
