package extract

import (
	"fmt"
	"testing"
)

const pageURL = "https://shop.example.com/productstore/item/citrus-soap"

func ldPage(blocks ...string) string {
	page := "<html><head>"
	for _, b := range blocks {
		page += fmt.Sprintf(`<script type="application/ld+json">%s</script>`, b)
	}
	return page + "</head><body></body></html>"
}

func TestProductsNormalizesDetailPage(t *testing.T) {
	page := ldPage(`{
		"@context": "https://schema.org",
		"@type": "Product",
		"name": "Citrus Soap",
		"description": "A bright cold-process bar.",
		"image": ["/img/citrus.jpg", "/img/citrus-2.jpg"],
		"url": "/productstore/soaps/citrus-soap-77",
		"offers": {"@type": "Offer", "price": "$6.99"}
	}`)

	products := Products(page, pageURL)
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1", len(products))
	}

	p := products[0]
	if p.Name != "Citrus Soap" {
		t.Errorf("Name = %q, want Citrus Soap", p.Name)
	}
	if p.Price != 6.99 {
		t.Errorf("Price = %v, want 6.99", p.Price)
	}
	if p.URL != "https://shop.example.com/productstore/soaps/citrus-soap-77" {
		t.Errorf("URL = %q, want absolute detail URL", p.URL)
	}
	if p.ImageURL != "https://shop.example.com/img/citrus.jpg" {
		t.Errorf("ImageURL = %q, want first image resolved", p.ImageURL)
	}
}

func TestProductsRejections(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{
			name:  "missing name",
			block: `{"@type": "Product", "offers": {"price": "9.99"}}`,
		},
		{
			name:  "neither price nor detail URL",
			block: `{"@type": "Product", "name": "Soaps", "url": "/productstore/shop-all"}`,
		},
		{
			name:  "non-product type",
			block: `{"@type": "BreadcrumbList", "name": "Trail", "offers": {"price": "9.99"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Products(ldPage(tt.block), pageURL); len(got) != 0 {
				t.Errorf("got %d products, want 0", len(got))
			}
		})
	}
}

func TestProductsSkipsMalformedBlocksIndividually(t *testing.T) {
	page := ldPage(
		`{"@type": "Product", "name": "Broken`,
		`{"@type": "Product", "name": "Survivor", "offers": {"price": "3.50"}}`,
	)

	products := Products(page, pageURL)
	if len(products) != 1 || products[0].Name != "Survivor" {
		t.Fatalf("malformed block should be skipped, got %+v", products)
	}
}

func TestProductsUnwrapsItemList(t *testing.T) {
	page := ldPage(`{
		"@type": "ItemList",
		"itemListElement": [
			{"@type": "ListItem", "position": 1, "item":
				{"@type": "Product", "name": "Citrus Soap", "url": "/productstore/soaps/citrus-77", "offers": {"price": "6.99"}}},
			{"@type": "ListItem", "position": 2, "item":
				{"@type": "Product", "name": "Lavender Soap", "offers": [{"priceSpecification": {"price": "4,50"}}]}}
		]
	}`)

	products := Products(page, pageURL)
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[1].Price != 4.5 {
		t.Errorf("nested price specification: Price = %v, want 4.5", products[1].Price)
	}
}

func TestProductsUnwrapsGraph(t *testing.T) {
	page := ldPage(`{
		"@context": "https://schema.org",
		"@graph": [
			{"@type": "WebPage", "name": "Store"},
			{"@type": ["Thing", "Product"], "name": "Graph Soap", "offers": {"price": 2}}
		]
	}`)

	products := Products(page, pageURL)
	if len(products) != 1 || products[0].Name != "Graph Soap" {
		t.Fatalf("@graph should be unwrapped, got %+v", products)
	}
}

func TestProductsDeduplicates(t *testing.T) {
	block := `{"@type": "Product", "name": "Citrus Soap", "url": "/productstore/soaps/citrus-77", "offers": {"price": "6.99"}}`
	upper := `{"@type": "Product", "name": "Citrus Soap", "url": "/PRODUCTSTORE/soaps/citrus-77", "offers": {"price": "6.99"}}`

	products := Products(ldPage(block, upper), pageURL)
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1 after URL dedupe", len(products))
	}

	unnamedDupes := ldPage(
		`{"@type": "Product", "name": "Citrus Soap", "offers": {"price": "6.99"}}`,
		`{"@type": "Product", "name": "citrus soap", "offers": {"price": "7.99"}}`,
	)
	products = Products(unnamedDupes, pageURL)
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1 after name dedupe", len(products))
	}
	if products[0].Price != 6.99 {
		t.Errorf("first occurrence should win, got price %v", products[0].Price)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{"$6.99", 6.99},
		{"6,99", 6.99},
		{"1,299.00", 1299},
		{"1,299", 1299},
		{"USD 12.50", 12.5},
		{12.5, 12.5},
		{"", 0},
		{"free", 0},
		{nil, 0},
		{-3.0, 0},
	}

	for _, tt := range tests {
		if got := ParsePrice(tt.in); got != tt.want {
			t.Errorf("ParsePrice(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
