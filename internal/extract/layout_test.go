package extract

import "testing"

func TestLayoutProducts(t *testing.T) {
	page := `<html><body>
		<ul>
			<li>
				<a href="/productstore/soaps/lavender-bar-250" title="Lavender Bar">
					<img src="/img/lavender.jpg" alt="Lavender Bar">
				</a>
				<span class="price">$4.50</span>
			</li>
			<li>
				<a href="/productstore/soaps/citrus-soap-77">Citrus Soap</a>
			</li>
			<li>
				<a href="/productstore/shop-all">Shop All</a>
				<span>$9.99</span>
			</li>
			<li>
				<a href="/productstore/cat/all-2">Shop All</a>
			</li>
			<li>
				<a href="/blog/posts/soap-making">How soap is made</a>
			</li>
		</ul>
	</body></html>`

	products := LayoutProducts(page, "https://shop.example.com/productstore/search?q=soap")
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2: %+v", len(products), products)
	}

	first := products[0]
	if first.Name != "Lavender Bar" {
		t.Errorf("Name = %q, want title attribute to win", first.Name)
	}
	if first.Price != 4.5 {
		t.Errorf("Price = %v, want 4.50 from enclosing block", first.Price)
	}
	if first.URL != "https://shop.example.com/productstore/soaps/lavender-bar-250" {
		t.Errorf("URL = %q, want resolved absolute target", first.URL)
	}
	if first.ImageURL != "https://shop.example.com/img/lavender.jpg" {
		t.Errorf("ImageURL = %q, want resolved image", first.ImageURL)
	}

	second := products[1]
	if second.Name != "Citrus Soap" {
		t.Errorf("Name = %q, want link text", second.Name)
	}
	if second.Price != 0 {
		t.Errorf("Price = %v, want 0 when no currency text nearby", second.Price)
	}
}

func TestLayoutProductsUsesImageAlt(t *testing.T) {
	page := `<html><body>
		<div>
			<a href="/productstore/soaps/rose-bar-12"><img src="/img/rose.jpg" alt="Rose Bar"></a>
		</div>
	</body></html>`

	products := LayoutProducts(page, "https://shop.example.com/")
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1", len(products))
	}
	if products[0].Name != "Rose Bar" {
		t.Errorf("Name = %q, want image alt text", products[0].Name)
	}
}
