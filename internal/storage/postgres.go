package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"nutrijus/internal/domain"
)

// PostgresRepository is the SQL-backed alternative to the JSON file store,
// selected with STORAGE_BACKEND=postgres. Collections keep their flat-record
// shape: nested pieces (ingredients, nutrition, order items, customer info)
// are stored as JSONB.
type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

func (r *PostgresRepository) EnsureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			weight TEXT NOT NULL DEFAULT '',
			price INTEGER NOT NULL DEFAULT 0,
			production_cost INTEGER NOT NULL DEFAULT 0,
			image TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			ingredients JSONB NOT NULL DEFAULT '[]',
			nutrition JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			items JSONB NOT NULL DEFAULT '[]',
			total INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT '',
			order_date TEXT NOT NULL DEFAULT '',
			customer JSONB NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'pending',
			delivery TEXT NOT NULL DEFAULT '',
			payment TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			tel TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT '',
			password TEXT NOT NULL,
			protected BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.DB.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}

func timestampID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func (r *PostgresRepository) ListProducts() ([]domain.Product, error) {
	rows, err := r.DB.Query(`
		SELECT id, name, weight, price, production_cost, image, description, ingredients, nutrition
		FROM products ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		var ingredients, nutrition []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Weight, &p.Price, &p.ProductionCost,
			&p.Image, &p.Description, &ingredients, &nutrition); err != nil {
			continue
		}
		json.Unmarshal(ingredients, &p.Ingredients)
		json.Unmarshal(nutrition, &p.Nutrition)
		products = append(products, p)
	}
	return products, nil
}

func (r *PostgresRepository) CreateProduct(p *domain.Product) error {
	if p.ID == "" {
		p.ID = timestampID()
	}
	ingredients, _ := json.Marshal(p.Ingredients)
	nutrition, _ := json.Marshal(p.Nutrition)
	for {
		_, err := r.DB.Exec(`
			INSERT INTO products (id, name, weight, price, production_cost, image, description, ingredients, nutrition)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.ID, p.Name, p.Weight, p.Price, p.ProductionCost, p.Image, p.Description, ingredients, nutrition)
		if err != nil && isUniqueViolation(err) {
			ms, _ := strconv.ParseInt(p.ID, 10, 64)
			p.ID = strconv.FormatInt(ms+1, 10)
			continue
		}
		return err
	}
}

func (r *PostgresRepository) UpdateProductByID(id string, p domain.Product) (domain.Product, error) {
	p.ID = id
	ingredients, _ := json.Marshal(p.Ingredients)
	nutrition, _ := json.Marshal(p.Nutrition)
	result, err := r.DB.Exec(`
		UPDATE products SET name=$1, weight=$2, price=$3, production_cost=$4, image=$5, description=$6, ingredients=$7, nutrition=$8
		WHERE id=$9`,
		p.Name, p.Weight, p.Price, p.ProductionCost, p.Image, p.Description, ingredients, nutrition, id)
	if err != nil {
		return domain.Product{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (r *PostgresRepository) DeleteProductAt(index int) (domain.Product, error) {
	products, err := r.ListProducts()
	if err != nil {
		return domain.Product{}, err
	}
	if index < 0 || index >= len(products) {
		return domain.Product{}, ErrNotFound
	}
	return r.DeleteProductByID(products[index].ID)
}

func (r *PostgresRepository) DeleteProductByID(id string) (domain.Product, error) {
	products, err := r.ListProducts()
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			if _, err := r.DB.Exec("DELETE FROM products WHERE id=$1", id); err != nil {
				return domain.Product{}, err
			}
			return p, nil
		}
	}
	return domain.Product{}, ErrNotFound
}

func (r *PostgresRepository) scanOrders(rows *sql.Rows) []domain.Order {
	orders := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		var items, customer []byte
		if err := rows.Scan(&o.ID, &items, &o.Total, &o.CreatedAt, &o.Date,
			&customer, &o.Status, &o.Delivery, &o.Payment); err != nil {
			continue
		}
		json.Unmarshal(items, &o.Items)
		json.Unmarshal(customer, &o.CustomerInfo)
		orders = append(orders, o)
	}
	return orders
}

func (r *PostgresRepository) ListOrders() ([]domain.Order, error) {
	rows, err := r.DB.Query(`
		SELECT id, items, total, created_at, order_date, customer, status, delivery, payment
		FROM orders ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanOrders(rows), nil
}

func (r *PostgresRepository) CreateOrder(o *domain.Order) error {
	if o.ID == "" {
		o.ID = timestampID()
	}
	items, _ := json.Marshal(o.Items)
	customer, _ := json.Marshal(o.CustomerInfo)
	for {
		_, err := r.DB.Exec(`
			INSERT INTO orders (id, items, total, created_at, order_date, customer, status, delivery, payment)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			o.ID, items, o.Total, o.CreatedAt, o.Date, customer, o.Status, o.Delivery, o.Payment)
		if err != nil && isUniqueViolation(err) {
			ms, _ := strconv.ParseInt(o.ID, 10, 64)
			o.ID = strconv.FormatInt(ms+1, 10)
			continue
		}
		return err
	}
}

func (r *PostgresRepository) CreateOrders(batch []domain.Order) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for i := range batch {
		o := &batch[i]
		if o.ID == "" {
			o.ID = timestampID() + "-" + strconv.Itoa(i)
		}
		items, _ := json.Marshal(o.Items)
		customer, _ := json.Marshal(o.CustomerInfo)
		if _, err := tx.Exec(`
			INSERT INTO orders (id, items, total, created_at, order_date, customer, status, delivery, payment)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			o.ID, items, o.Total, o.CreatedAt, o.Date, customer, o.Status, o.Delivery, o.Payment); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PostgresRepository) UpdateOrderByID(id string, o domain.Order) (domain.Order, error) {
	o.ID = id
	items, _ := json.Marshal(o.Items)
	customer, _ := json.Marshal(o.CustomerInfo)
	result, err := r.DB.Exec(`
		UPDATE orders SET items=$1, total=$2, created_at=$3, order_date=$4, customer=$5, status=$6, delivery=$7, payment=$8
		WHERE id=$9`,
		items, o.Total, o.CreatedAt, o.Date, customer, o.Status, o.Delivery, o.Payment, id)
	if err != nil {
		return domain.Order{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

func (r *PostgresRepository) UpdateOrderAt(index int, o domain.Order) (domain.Order, error) {
	orders, err := r.ListOrders()
	if err != nil {
		return domain.Order{}, err
	}
	if index < 0 || index >= len(orders) {
		return domain.Order{}, ErrNotFound
	}
	return r.UpdateOrderByID(orders[index].ID, o)
}

func (r *PostgresRepository) DeleteOrderAt(index int) (domain.Order, error) {
	orders, err := r.ListOrders()
	if err != nil {
		return domain.Order{}, err
	}
	if index < 0 || index >= len(orders) {
		return domain.Order{}, ErrNotFound
	}
	return r.DeleteOrderByID(orders[index].ID)
}

func (r *PostgresRepository) DeleteOrderByID(id string) (domain.Order, error) {
	orders, err := r.ListOrders()
	if err != nil {
		return domain.Order{}, err
	}
	for _, o := range orders {
		if o.ID == id {
			if _, err := r.DB.Exec("DELETE FROM orders WHERE id=$1", id); err != nil {
				return domain.Order{}, err
			}
			return o, nil
		}
	}
	return domain.Order{}, ErrNotFound
}

func (r *PostgresRepository) ReplaceOrders(orders []domain.Order) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM orders"); err != nil {
		return err
	}
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		items, _ := json.Marshal(o.Items)
		customer, _ := json.Marshal(o.CustomerInfo)
		if _, err := tx.Exec(`
			INSERT INTO orders (id, items, total, created_at, order_date, customer, status, delivery, payment)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			o.ID, items, o.Total, o.CreatedAt, o.Date, customer, o.Status, o.Delivery, o.Payment); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PostgresRepository) ListUsers() ([]domain.User, error) {
	rows, err := r.DB.Query(`
		SELECT id, name, tel, status, password, protected
		FROM users ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Tel, &u.Status, &u.Password, &u.Protected); err != nil {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *PostgresRepository) CreateUser(u *domain.User) error {
	if u.ID == "" {
		u.ID = timestampID()
	}
	for {
		_, err := r.DB.Exec(`
			INSERT INTO users (id, name, tel, status, password, protected)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			u.ID, u.Name, u.Tel, u.Status, u.Password, u.Protected)
		if err != nil && isUniqueViolation(err) {
			pqErr := err.(*pq.Error)
			if pqErr.Constraint == "users_pkey" {
				ms, _ := strconv.ParseInt(u.ID, 10, 64)
				u.ID = strconv.FormatInt(ms+1, 10)
				continue
			}
			// Raced duplicate tel past the service-level check.
			return fmt.Errorf("tel %s: %w", u.Tel, ErrDuplicate)
		}
		return err
	}
}

func (r *PostgresRepository) UpdateUserByID(id string, u domain.User) (domain.User, error) {
	u.ID = id
	result, err := r.DB.Exec(`
		UPDATE users SET name=$1, tel=$2, status=$3, password=$4, protected=$5
		WHERE id=$6`,
		u.Name, u.Tel, u.Status, u.Password, u.Protected, id)
	if err != nil {
		return domain.User{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (r *PostgresRepository) DeleteUserByID(id string) (domain.User, error) {
	users, err := r.ListUsers()
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			if _, err := r.DB.Exec("DELETE FROM users WHERE id=$1", id); err != nil {
				return domain.User{}, err
			}
			return u, nil
		}
	}
	return domain.User{}, ErrNotFound
}
