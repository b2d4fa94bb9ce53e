package knowledge

import (
	"fmt"
	"sort"
	"strings"
)

// Product 为商品目录中的一件商品。
type Product struct {
	ProductID     string
	Name          string
	Brand         string
	Category      string
	Price         float64
	Description   string
	InStock       bool
	StockQuantity int
	Rating        float64
	ReviewsCount  int
}

// productCatalog 为 TechGear Electronics 的内置商品目录。
var productCatalog = []Product{
	{
		ProductID: "LAPTOP-001", Name: "ProBook X15 Laptop", Brand: "TechGear",
		Category: "Laptops & Computers", Price: 1299.99,
		Description: "15.6-inch ultrabook with 16GB RAM, 512GB SSD, and all-day battery life. Ideal for work and travel.",
		InStock:     true, StockQuantity: 42, Rating: 4.6, ReviewsCount: 318,
	},
	{
		ProductID: "LAPTOP-002", Name: "GameForce 17 Gaming Laptop", Brand: "TechGear",
		Category: "Laptops & Computers", Price: 1899.99,
		Description: "17-inch gaming laptop with dedicated graphics, 144Hz display, and RGB keyboard.",
		InStock:     true, StockQuantity: 8, Rating: 4.4, ReviewsCount: 157,
	},
	{
		ProductID: "PHONE-001", Name: "Nova S Smartphone", Brand: "TechGear",
		Category: "Phones & Accessories", Price: 799.99,
		Description: "6.4-inch OLED smartphone with triple camera and 5G connectivity.",
		InStock:     false, StockQuantity: 0, Rating: 4.5, ReviewsCount: 892,
	},
	{
		ProductID: "ACC-001", Name: "Nova S Phone Case", Brand: "TechGear",
		Category: "Phones & Accessories", Price: 29.99,
		Description: "Shock-absorbing clear case for the Nova S with raised edges for screen protection.",
		InStock:     true, StockQuantity: 230, Rating: 4.2, ReviewsCount: 64,
	},
	{
		ProductID: "AUDIO-001", Name: "AeroBuds Pro Wireless Earbuds", Brand: "TechGear",
		Category: "Audio & Headphones", Price: 149.99,
		Description: "Wireless earbuds with active noise cancellation and 24-hour battery with case.",
		InStock:     true, StockQuantity: 75, Rating: 4.7, ReviewsCount: 521,
	},
	{
		ProductID: "AUDIO-002", Name: "StudioMax Over-Ear Headphones", Brand: "TechGear",
		Category: "Audio & Headphones", Price: 249.99,
		Description: "Over-ear wireless headphones with studio-grade sound and plush memory foam cushions.",
		InStock:     true, StockQuantity: 19, Rating: 4.8, ReviewsCount: 203,
	},
	{
		ProductID: "HOME-001", Name: "SmartHub Home Controller", Brand: "TechGear",
		Category: "Smart Home", Price: 99.99,
		Description: "Central smart home hub compatible with lights, locks, and thermostats from major brands.",
		InStock:     true, StockQuantity: 54, Rating: 4.3, ReviewsCount: 148,
	},
	{
		ProductID: "ACC-002", Name: "Precision Wireless Mouse", Brand: "TechGear",
		Category: "Computer Accessories", Price: 49.99,
		Description: "Ergonomic wireless mouse with adjustable DPI and silent click switches.",
		InStock:     true, StockQuantity: 140, Rating: 4.5, ReviewsCount: 377,
	},
}

// SearchProducts 按关键字在商品目录中检索。
//
// 打分规则：整串查询命中名称 +10、描述 +5、类别 +3、品牌 +3；
// 查询中长度大于 3 的词，命中名称 +2、命中描述 +1。
// category 非空时按类别子串过滤。
func SearchProducts(query string, category string, maxResults int) []Product {
	if maxResults <= 0 {
		maxResults = defaultTopK
	}

	queryLower := strings.ToLower(query)
	words := strings.Fields(queryLower)

	type scored struct {
		score   int
		product Product
	}
	var matches []scored

	for _, p := range productCatalog {
		if category != "" && !strings.Contains(strings.ToLower(p.Category), strings.ToLower(category)) {
			continue
		}

		nameLower := strings.ToLower(p.Name)
		descLower := strings.ToLower(p.Description)

		score := 0
		if strings.Contains(nameLower, queryLower) {
			score += 10
		}
		if strings.Contains(descLower, queryLower) {
			score += 5
		}
		if strings.Contains(strings.ToLower(p.Category), queryLower) {
			score += 3
		}
		if strings.Contains(strings.ToLower(p.Brand), queryLower) {
			score += 3
		}
		for _, word := range words {
			if len(word) <= 3 {
				continue
			}
			if strings.Contains(nameLower, word) {
				score += 2
			}
			if strings.Contains(descLower, word) {
				score += 1
			}
		}

		if score > 0 {
			matches = append(matches, scored{score: score, product: p})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	out := make([]Product, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.product)
	}
	return out
}

// GetProduct 按商品 ID 精确查找；未找到返回 nil。
func GetProduct(productID string) *Product {
	for i := range productCatalog {
		if productCatalog[i].ProductID == productID {
			return &productCatalog[i]
		}
	}
	return nil
}

// FormatProducts 把检索结果拼装为提示词上下文。
func FormatProducts(products []Product) string {
	if len(products) == 0 {
		return "No matching products found."
	}
	var b strings.Builder
	for i, p := range products {
		stock := "In Stock"
		if !p.InStock {
			stock = "Out of Stock"
		}
		fmt.Fprintf(&b, "%d. %s (ID: %s) - $%.2f, %s, rating %.1f/5.0. %s\n",
			i+1, p.Name, p.ProductID, p.Price, stock, p.Rating, p.Description)
	}
	return strings.TrimSpace(b.String())
}
