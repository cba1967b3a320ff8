package main

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/shop-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "shop", Password: "pw", Name: "shop"}

	assert.Equal(t, "postgres://shop:pw@db:5432/shop?sslmode=disable&x-migrations-table=migrations",
		buildMigrateDSN(cfg, "migrations"))
	assert.Equal(t, "postgres://shop:pw@db:5432/shop?sslmode=disable", buildQueryDSN(cfg))
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://shop:***@db:5432/shop", redactDSN("postgres://shop:pw@db:5432/shop", "pw"))
	assert.Equal(t, "postgres://shop:@db:5432/shop", redactDSN("postgres://shop:@db:5432/shop", ""))
}

func TestListTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("carts").AddRow("users"))

	tables, err := listTables(db)
	assert.NoError(t, err)
	assert.Equal(t, []string{"carts", "users"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}
