// seed.go - Built-in starter catalog, used when no catalog has been
// persisted yet (first run, or storage wiped).
package pos

import "github.com/shopspring/decimal"

func seedProduct(id, name string, price, cost int64, description, category string, stock int) Product {
	p := Product{
		ID:          id,
		Name:        name,
		Price:       decimal.NewFromInt(price),
		Description: description,
		Category:    category,
		Stock:       IntPtr(stock),
	}
	if cost > 0 {
		p.CostPrice = DecimalPtr(decimal.NewFromInt(cost))
	}
	return p
}

// SeedCatalog returns the default warung catalog. Prices in Rupiah,
// cost prices are the HPP used for profit reporting.
func SeedCatalog() []Product {
	return []Product{
		seedProduct("1", "Makaroni Original 0", 14000, 7000, "Berat 200 gram, Makaroni Original Level 0", "Makaroni", 30),
		seedProduct("2", "Makaroni Original 1", 17000, 8500, "Berat 200 gram, Makaroni Original Level 1", "Makaroni", 15),
		seedProduct("3", "Makaroni Original 2", 18000, 9000, "Berat 200 gram, Makaroni Original Level 2", "Makaroni", 25),
		seedProduct("4", "Makaroni Original 3", 19000, 9500, "Berat 200 gram, Makaroni Original Level 3", "Makaroni", 50),
		seedProduct("5", "Es Jeruk", 8000, 4000, "Es jeruk peras asli", "Minuman", 30),
		seedProduct("6", "Kopi Hitam", 7000, 3000, "Kopi hitam robusta pilihan", "Minuman", 40),
		seedProduct("7", "Pisang Goreng", 8000, 4000, "Pisang goreng crispy dengan gula halus", "Snack", 20),
		seedProduct("8", "Tahu Isi", 6000, 3000, "Tahu isi sayuran dengan bumbu kacang", "Snack", 30),
	}
}

// Categories returns the distinct category labels present in the
// catalog, in first-seen order. Products without a category fall under
// "Lainnya".
func Categories(products []Product) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range products {
		c := p.Category
		if c == "" {
			c = "Lainnya"
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
