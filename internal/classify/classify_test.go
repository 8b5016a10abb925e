package classify

import "testing"

func TestDetailLikely(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{
			name: "stop-term-only residual is a listing",
			url:  "https://shop.example.com/productstore/shop-all",
			want: false,
		},
		{
			name: "single residual segment is too shallow",
			url:  "https://shop.example.com/productstore/bestsellers",
			want: false,
		},
		{
			name: "digit rule accepts SKU-bearing two-segment path",
			url:  "https://shop.example.com/productstore/cat/sku123",
			want: true,
		},
		{
			name: "keyword rule accepts item segment",
			url:  "https://shop.example.com/shop/fragrances/item-4012",
			want: true,
		},
		{
			name: "depth rule accepts three residual segments",
			url:  "https://shop.example.com/products/soaps/citrus/soap-bar",
			want: true,
		},
		{
			name: "two stop segments are still a listing",
			url:  "https://shop.example.com/products/sale/new",
			want: false,
		},
		{
			name: "two plain segments without digits stay ambiguous",
			url:  "https://shop.example.com/products/soaps/lavender",
			want: false,
		},
		{
			name: "no section marker",
			url:  "https://shop.example.com/blog/posts/hello-world",
			want: false,
		},
		{
			name: "query string is ignored",
			url:  "https://shop.example.com/productstore/cat/sku123?ref=home",
			want: true,
		},
		{
			name: "empty path",
			url:  "https://shop.example.com/",
			want: false,
		},
		{
			name: "unparseable url",
			url:  "://not-a-url",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetailLikely(tt.url); got != tt.want {
				t.Errorf("DetailLikely(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestDetailLikelyIsPure(t *testing.T) {
	u := "https://shop.example.com/productstore/cat/sku123"
	first := DetailLikely(u)
	for i := 0; i < 10; i++ {
		if DetailLikely(u) != first {
			t.Fatal("identical path must always yield an identical decision")
		}
	}
}

func TestStopName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"category label", "Shop All", true},
		{"single stop term", "sale", true},
		{"hyphenated stop terms", "new-arrivals", true},
		{"real product name", "Citrus Soap Bar", false},
		{"mixed stop and product tokens", "All Citrus", false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StopName(tt.in); got != tt.want {
				t.Errorf("StopName(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
