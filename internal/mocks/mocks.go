// Package mocks provides testify mocks for the service layer interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"nutrijus/internal/domain"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type ProductRepository struct {
	mock.Mock
}

func NewProductRepository(t testingT) *ProductRepository {
	m := &ProductRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ProductRepository) ListProducts() ([]domain.Product, error) {
	args := m.Called()
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *ProductRepository) CreateProduct(p *domain.Product) error {
	return m.Called(p).Error(0)
}

func (m *ProductRepository) UpdateProductByID(id string, p domain.Product) (domain.Product, error) {
	args := m.Called(id, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *ProductRepository) DeleteProductAt(index int) (domain.Product, error) {
	args := m.Called(index)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *ProductRepository) DeleteProductByID(id string) (domain.Product, error) {
	args := m.Called(id)
	return args.Get(0).(domain.Product), args.Error(1)
}

type OrderRepository struct {
	mock.Mock
}

func NewOrderRepository(t testingT) *OrderRepository {
	m := &OrderRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *OrderRepository) ListOrders() ([]domain.Order, error) {
	args := m.Called()
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *OrderRepository) CreateOrder(o *domain.Order) error {
	return m.Called(o).Error(0)
}

func (m *OrderRepository) CreateOrders(batch []domain.Order) error {
	return m.Called(batch).Error(0)
}

func (m *OrderRepository) UpdateOrderAt(index int, o domain.Order) (domain.Order, error) {
	args := m.Called(index, o)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *OrderRepository) UpdateOrderByID(id string, o domain.Order) (domain.Order, error) {
	args := m.Called(id, o)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *OrderRepository) DeleteOrderAt(index int) (domain.Order, error) {
	args := m.Called(index)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *OrderRepository) DeleteOrderByID(id string) (domain.Order, error) {
	args := m.Called(id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *OrderRepository) ReplaceOrders(orders []domain.Order) error {
	return m.Called(orders).Error(0)
}

type UserRepository struct {
	mock.Mock
}

func NewUserRepository(t testingT) *UserRepository {
	m := &UserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *UserRepository) ListUsers() ([]domain.User, error) {
	args := m.Called()
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *UserRepository) CreateUser(u *domain.User) error {
	return m.Called(u).Error(0)
}

func (m *UserRepository) UpdateUserByID(id string, u domain.User) (domain.User, error) {
	args := m.Called(id, u)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *UserRepository) DeleteUserByID(id string) (domain.User, error) {
	args := m.Called(id)
	return args.Get(0).(domain.User), args.Error(1)
}

type CartStorage struct {
	mock.Mock
}

func NewCartStorage(t testingT) *CartStorage {
	m := &CartStorage{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *CartStorage) Get(ctx context.Context, id string) (domain.Cart, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *CartStorage) Save(ctx context.Context, cart domain.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *CartStorage) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type SessionStorage struct {
	mock.Mock
}

func NewSessionStorage(t testingT) *SessionStorage {
	m := &SessionStorage{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SessionStorage) Create(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *SessionStorage) Validate(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *SessionStorage) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type Notifier struct {
	mock.Mock
}

func NewNotifier(t testingT) *Notifier {
	m := &Notifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Notifier) Send(ctx context.Context, to, message string) error {
	return m.Called(ctx, to, message).Error(0)
}

type EventPublisher struct {
	mock.Mock
}

func NewEventPublisher(t testingT) *EventPublisher {
	m := &EventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EventPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}

type QRCache struct {
	mock.Mock
}

func NewQRCache(t testingT) *QRCache {
	m := &QRCache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *QRCache) Get(ctx context.Context, orderID string) ([]byte, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *QRCache) Set(ctx context.Context, orderID string, png []byte) error {
	return m.Called(ctx, orderID, png).Error(0)
}
