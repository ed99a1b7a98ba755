// Package testutil seeds catalog and cart rows for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	productrepo "github.com/fekuna/omnipos-marketplace-service/internal/product/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// SeedProduct inserts a product priced at price with the given commission
// rate. vendorID "" makes it platform-owned.
func SeedProduct(t testing.TB, db *sqlx.DB, name, price, vendorID, rate string) *model.Product {
	t.Helper()

	now := time.Now().UTC()
	id := uuid.New().String()
	p := &model.Product{
		BaseModel:      model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		Name:           name,
		Slug:           "seed-" + id,
		Image:          "https://cdn.example.com/" + id + ".png",
		Price:          model.MustFixed(price),
		CommissionRate: model.MustFixed(rate),
	}
	if vendorID != "" {
		p.VendorID = &vendorID
	}

	inserted, err := productrepo.NewPGRepository(db).Create(context.Background(), p)
	require.NoError(t, err)
	require.True(t, inserted)
	return p
}

// SeedCart inserts an unpaid cart with one line per product/quantity pair.
func SeedCart(t testing.TB, db *sqlx.DB, code string, lines map[*model.Product]int) *model.Cart {
	t.Helper()

	now := time.Now().UTC()
	c := &model.Cart{ID: uuid.New().String(), Code: code, CreatedAt: now, ModifiedAt: now}
	_, err := db.NamedExec(`INSERT INTO carts (id, cart_code, paid, user_id, created_at, modified_at)
		VALUES (:id, :cart_code, :paid, :user_id, :created_at, :modified_at)`, c)
	require.NoError(t, err)

	for p, qty := range lines {
		_, err := db.Exec(db.Rebind(`INSERT INTO cart_lines (id, cart_id, product_id, quantity) VALUES (?, ?, ?, ?)`),
			uuid.New().String(), c.ID, p.ID, qty)
		require.NoError(t, err)
	}
	return c
}
