package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"nutrijus/internal/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// collection is one persisted JSON array. Every write rewrites the whole
// file; the mutex serializes read-modify-write cycles so concurrent admin
// operations cannot drop each other's changes.
type collection[T any] struct {
	path string
	id   func(*T) *string
	mu   sync.Mutex
}

func newCollection[T any](path string, id func(*T) *string) *collection[T] {
	return &collection[T]{path: path, id: id}
}

func (c *collection[T]) load() []T {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return []T{}
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("[store] %s is not valid JSON, treating as empty: %v", filepath.Base(c.path), err)
		return []T{}
	}
	return records
}

func (c *collection[T]) save(records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// nextID returns a millisecond-timestamp string not used by any existing
// record.
func (c *collection[T]) nextID(records []T) string {
	taken := make(map[string]bool, len(records))
	for i := range records {
		taken[*c.id(&records[i])] = true
	}
	ms := time.Now().UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if !taken[id] {
			return id
		}
		ms++
	}
}

func (c *collection[T]) list() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(), nil
}

func (c *collection[T]) create(record *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := c.load()
	if *c.id(record) == "" {
		*c.id(record) = c.nextID(records)
	}
	records = append([]T{*record}, records...)
	return c.save(records)
}

func (c *collection[T]) createMany(batch []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := c.load()
	for i := range batch {
		if *c.id(&batch[i]) == "" {
			*c.id(&batch[i]) = c.nextID(append(records, batch[:i]...))
		}
	}
	return c.save(append(batch, records...))
}

func (c *collection[T]) updateByID(id string, record T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := c.load()
	for i := range records {
		if *c.id(&records[i]) == id {
			*c.id(&record) = id
			records[i] = record
			if err := c.save(records); err != nil {
				return record, err
			}
			return record, nil
		}
	}
	var zero T
	return zero, ErrNotFound
}

func (c *collection[T]) updateAt(index int, record T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := c.load()
	if index < 0 || index >= len(records) {
		var zero T
		return zero, ErrNotFound
	}
	records[index] = record
	if err := c.save(records); err != nil {
		var zero T
		return zero, err
	}
	return record, nil
}

func (c *collection[T]) deleteAt(index int) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := c.load()
	if index < 0 || index >= len(records) {
		var zero T
		return zero, ErrNotFound
	}
	deleted := records[index]
	records = append(records[:index], records[index+1:]...)
	if err := c.save(records); err != nil {
		var zero T
		return zero, err
	}
	return deleted, nil
}

func (c *collection[T]) deleteByID(id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := c.load()
	for i := range records {
		if *c.id(&records[i]) == id {
			deleted := records[i]
			records = append(records[:i], records[i+1:]...)
			if err := c.save(records); err != nil {
				var zero T
				return zero, err
			}
			return deleted, nil
		}
	}
	var zero T
	return zero, ErrNotFound
}

func (c *collection[T]) replaceAll(records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(records)
}

// JSONStore keeps the three collections as flat JSON array files under a
// data directory: products.json, orders.json, users.json.
type JSONStore struct {
	products *collection[domain.Product]
	orders   *collection[domain.Order]
	users    *collection[domain.User]
}

func NewJSONStore(dataDir string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONStore{
		products: newCollection(filepath.Join(dataDir, "products.json"), func(p *domain.Product) *string { return &p.ID }),
		orders:   newCollection(filepath.Join(dataDir, "orders.json"), func(o *domain.Order) *string { return &o.ID }),
		users:    newCollection(filepath.Join(dataDir, "users.json"), func(u *domain.User) *string { return &u.ID }),
	}, nil
}

func (s *JSONStore) ListProducts() ([]domain.Product, error) { return s.products.list() }
func (s *JSONStore) CreateProduct(p *domain.Product) error   { return s.products.create(p) }
func (s *JSONStore) UpdateProductByID(id string, p domain.Product) (domain.Product, error) {
	return s.products.updateByID(id, p)
}
func (s *JSONStore) DeleteProductAt(index int) (domain.Product, error) {
	return s.products.deleteAt(index)
}
func (s *JSONStore) DeleteProductByID(id string) (domain.Product, error) {
	return s.products.deleteByID(id)
}

func (s *JSONStore) ListOrders() ([]domain.Order, error)    { return s.orders.list() }
func (s *JSONStore) CreateOrder(o *domain.Order) error      { return s.orders.create(o) }
func (s *JSONStore) CreateOrders(batch []domain.Order) error { return s.orders.createMany(batch) }
func (s *JSONStore) UpdateOrderAt(index int, o domain.Order) (domain.Order, error) {
	return s.orders.updateAt(index, o)
}
func (s *JSONStore) UpdateOrderByID(id string, o domain.Order) (domain.Order, error) {
	return s.orders.updateByID(id, o)
}
func (s *JSONStore) DeleteOrderAt(index int) (domain.Order, error) { return s.orders.deleteAt(index) }
func (s *JSONStore) DeleteOrderByID(id string) (domain.Order, error) {
	return s.orders.deleteByID(id)
}
func (s *JSONStore) ReplaceOrders(orders []domain.Order) error { return s.orders.replaceAll(orders) }

func (s *JSONStore) ListUsers() ([]domain.User, error) { return s.users.list() }
func (s *JSONStore) CreateUser(u *domain.User) error   { return s.users.create(u) }
func (s *JSONStore) UpdateUserByID(id string, u domain.User) (domain.User, error) {
	return s.users.updateByID(id, u)
}
func (s *JSONStore) DeleteUserByID(id string) (domain.User, error) { return s.users.deleteByID(id) }
