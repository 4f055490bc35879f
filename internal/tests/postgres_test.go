package tests

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrijus/internal/domain"
	"nutrijus/internal/storage"
)

func newPostgresRepo(t *testing.T) (*storage.PostgresRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return storage.NewPostgresRepository(db), mock
}

func TestPostgresRepository_ListProducts(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	rows := sqlmock.NewRows([]string{
		"id", "name", "weight", "price", "production_cost", "image", "description", "ingredients", "nutrition",
	}).AddRow("p1", "Ginger Blast", "33cl", 1500, 600, "", "",
		[]byte(`[{"name":"ginger"}]`), []byte(`[]`))

	mock.ExpectQuery("SELECT id, name, weight, price, production_cost").WillReturnRows(rows)

	products, err := repo.ListProducts()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Ginger Blast", products[0].Name)
	assert.Equal(t, "ginger", products[0].Ingredients[0].Name)
}

func TestPostgresRepository_CreateProduct_RetriesOnIDCollision(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec("INSERT INTO products").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectExec("INSERT INTO products").
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := domain.Product{ID: "1000", Name: "Beet Boost", Price: 1200}
	require.NoError(t, repo.CreateProduct(&p))
	assert.Equal(t, "1001", p.ID, "a taken id bumps to the next millisecond")
}

func TestPostgresRepository_UpdateOrderByID_NotFound(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec("UPDATE orders SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateOrderByID("ghost", domain.Order{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPostgresRepository_CreateOrders_Transactional(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateOrders([]domain.Order{{ID: "1"}, {ID: "2"}})
	assert.NoError(t, err)
}

func TestPostgresRepository_CreateOrders_RollsBackOnFailure(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO orders").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateOrders([]domain.Order{{ID: "1"}, {ID: "2"}})
	assert.Error(t, err)
}

func TestPostgresRepository_CreateUser_RacedDuplicateTel(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_tel_key"})

	u := domain.User{ID: "1", Name: "Dup", Tel: "699000000", Password: "hash"}
	err := repo.CreateUser(&u)
	assert.ErrorIs(t, err, storage.ErrDuplicate, "a tel collision is a duplicate, not a retry")
}

func TestPostgresRepository_DeleteUserByID(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	rows := sqlmock.NewRows([]string{"id", "name", "tel", "status", "password", "protected"}).
		AddRow("u1", "Admin", "699000000", "admin", "hash", false)
	mock.ExpectQuery("SELECT id, name, tel, status, password, protected").WillReturnRows(rows)
	mock.ExpectExec("DELETE FROM users WHERE id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeleteUserByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "Admin", deleted.Name)
}

func TestPostgresRepository_ReplaceOrders(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM orders").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceOrders([]domain.Order{{ID: "a"}, {ID: "b"}})
	assert.NoError(t, err)
}
