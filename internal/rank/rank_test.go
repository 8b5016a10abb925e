package rank

import (
	"testing"

	"finder/internal/domain"
)

func TestPrioritizeTotalOrder(t *testing.T) {
	a := domain.Product{Name: "x", Price: 0, URL: "https://shop.example.com/productstore/shop-all"}
	b := domain.Product{Name: "y", Price: 0, URL: "https://shop.example.com/productstore/cat/sku123"}
	c := domain.Product{Name: "z", Price: 5, URL: "https://shop.example.com/productstore/cat/sku456"}

	got := Prioritize([]domain.Product{a, b, c})

	want := []string{"z", "y", "x"}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("position %d = %q, want %q (full order %+v)", i, got[i].Name, name, got)
		}
	}
}

func TestPrioritizeLongerNameBreaksTies(t *testing.T) {
	short := domain.Product{Name: "Soap", Price: 5, URL: "https://shop.example.com/productstore/cat/sku1"}
	long := domain.Product{Name: "Citrus Soap Bar 250g", Price: 5, URL: "https://shop.example.com/productstore/cat/sku2"}

	got := Prioritize([]domain.Product{short, long})
	if got[0].Name != long.Name {
		t.Errorf("longer name should rank first, got %q", got[0].Name)
	}
}

func TestPrioritizeIsStable(t *testing.T) {
	products := []domain.Product{
		{Name: "aaaa", Price: 3, URL: "https://shop.example.com/productstore/cat/sku1"},
		{Name: "bbbb", Price: 9, URL: "https://shop.example.com/productstore/cat/sku2"},
		{Name: "cccc", Price: 1, URL: "https://shop.example.com/productstore/cat/sku3"},
	}

	got := Prioritize(products)
	for i, want := range []string{"aaaa", "bbbb", "cccc"} {
		if got[i].Name != want {
			t.Fatalf("equal-key candidates must keep input order, got %+v", got)
		}
	}
}

func TestPrioritizeDoesNotMutateInput(t *testing.T) {
	in := []domain.Product{
		{Name: "x", URL: "https://shop.example.com/productstore/shop-all"},
		{Name: "y", Price: 2, URL: "https://shop.example.com/productstore/cat/sku9"},
	}
	_ = Prioritize(in)
	if in[0].Name != "x" {
		t.Error("input slice order changed")
	}
}
