package repos_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"oakline/internal/domain"
	"oakline/internal/repos"
)

func seededDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStockRepo_ConditionalDecrement(t *testing.T) {
	db := seededDB(t)
	stock := repos.NewStockRepo(db)
	loc := domain.StockLocator{Kind: domain.KindProduct, ItemID: "tbl-oak-01",
		ColorID: "col-natural", SizeName: "6-seat"}

	left, err := stock.Decrement(db, loc, 2)
	if err != nil {
		t.Fatal(err)
	}
	if left != 1 {
		t.Fatalf("left = %d", left)
	}

	// the counter never goes below zero; the failed attempt reports the
	// availability it saw
	_, err = stock.Decrement(db, loc, 2)
	var is *domain.InsufficientStockError
	if !errors.As(err, &is) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if is.Available != 1 || is.Requested != 2 {
		t.Fatalf("available=%d requested=%d", is.Available, is.Requested)
	}
	if n, _ := stock.Available(db, loc); n != 1 {
		t.Fatalf("stock moved on a refused decrement: %d", n)
	}
}

func TestStockRepo_IncrementUnknownCounter(t *testing.T) {
	db := seededDB(t)
	stock := repos.NewStockRepo(db)

	var nf *domain.NotFoundError
	_, err := stock.Increment(db, domain.StockLocator{Kind: domain.KindProduct, ItemID: "ghost"}, 1)
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestStockRepo_ConsumeMaterialFloor(t *testing.T) {
	db := seededDB(t)
	stock := repos.NewStockRepo(db)

	short, err := stock.ConsumeMaterial(db, "mat-varnish", 15)
	if err != nil {
		t.Fatal(err)
	}
	if short != 0 {
		t.Fatalf("short = %d", short)
	}

	short, err = stock.ConsumeMaterial(db, "mat-varnish", 30)
	if err != nil {
		t.Fatal(err)
	}
	if short != 5 {
		t.Fatalf("short = %d, want the uncovered remainder", short)
	}
	loc := domain.StockLocator{Kind: domain.KindMaterial, ItemID: "mat-varnish"}
	if n, _ := stock.Available(db, loc); n != 0 {
		t.Fatalf("stock = %d, want floored at zero", n)
	}
}

func TestStockRepo_RecomputeProduct(t *testing.T) {
	db := seededDB(t)
	stock := repos.NewStockRepo(db)

	db.MustExec(`UPDATE color_sizes SET stock=10 WHERE color_id='col-walnut' AND name='6-seat'`)
	if err := stock.RecomputeProduct(db, "tbl-oak-01"); err != nil {
		t.Fatal(err)
	}
	var n int
	if err := db.Get(&n, `SELECT stock FROM products WHERE id='tbl-oak-01'`); err != nil {
		t.Fatal(err)
	}
	if n != 15 { // 10 + 2 + 3
		t.Fatalf("aggregate = %d", n)
	}

	// plain products are left alone
	if err := stock.RecomputeProduct(db, "chr-std-01"); err != nil {
		t.Fatal(err)
	}
	if err := db.Get(&n, `SELECT stock FROM products WHERE id='chr-std-01'`); err != nil {
		t.Fatal(err)
	}
	if n != 24 {
		t.Fatalf("plain product stock = %d", n)
	}
}
