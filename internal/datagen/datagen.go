// Package datagen produces small synthetic datasets for demo sessions.
package datagen

import (
	"fmt"
	"math/rand"
	"time"

	"queryjam/internal/models"
)

var (
	firstNames = []string{"Alice", "Bob", "Carol", "David", "Elena", "Frank", "Grace", "Henry", "Iris", "Jack", "Kara", "Liam", "Mona", "Noah", "Olga", "Pete"}
	lastNames  = []string{"Adams", "Baker", "Chen", "Diaz", "Evans", "Ford", "Garcia", "Huang", "Ito", "Jones", "Kim", "Lopez", "Meyer", "Novak", "Olsen", "Park"}
	cities     = []string{"New York", "London", "Berlin", "Tokyo", "Sydney", "Toronto", "Madrid", "Singapore", "Austin", "Oslo"}
	categories = []string{"Electronics", "Clothing", "Books", "Home", "Sports"}
	payments   = []string{"Credit Card", "PayPal", "Cash"}
)

// Generate returns sample documents and their column descriptions for the
// named kind: users, products, or sales.
func Generate(kind string) ([]map[string]any, []models.Column, error) {
	switch kind {
	case "users":
		return Users(100), columnsOf("id", "number", "name", "string", "email", "string",
			"age", "number", "city", "string", "signup_date", "string", "is_active", "boolean"), nil
	case "products":
		return Products(50), columnsOf("id", "number", "name", "string", "category", "string",
			"price", "number", "stock", "number", "rating", "number"), nil
	case "sales":
		return Sales(200), columnsOf("id", "number", "user_id", "number", "product_id", "number",
			"quantity", "number", "total_amount", "number", "sale_date", "string", "payment_method", "string"), nil
	}
	return nil, nil, fmt.Errorf("unknown dataset kind %q, use users, products, or sales", kind)
}

// Users generates synthetic user records.
func Users(count int) []map[string]any {
	docs := make([]map[string]any, count)
	for i := range docs {
		docs[i] = map[string]any{
			"id":          float64(i + 1),
			"name":        pick(firstNames) + " " + pick(lastNames),
			"email":       fmt.Sprintf("user%d@example.com", i+1),
			"age":         float64(18 + rand.Intn(63)),
			"city":        pick(cities),
			"signup_date": pastDate(),
			"is_active":   rand.Float64() > 0.2,
		}
	}
	return docs
}

// Products generates synthetic product records.
func Products(count int) []map[string]any {
	docs := make([]map[string]any, count)
	for i := range docs {
		docs[i] = map[string]any{
			"id":       float64(i + 1),
			"name":     fmt.Sprintf("Product %d", i+1),
			"category": pick(categories),
			"price":    float64(10 + rand.Intn(500)),
			"stock":    float64(rand.Intn(100)),
			"rating":   float64(int((rand.Float64()*4+1)*10)) / 10,
		}
	}
	return docs
}

// Sales generates synthetic sale records referencing user and product ids.
func Sales(count int) []map[string]any {
	docs := make([]map[string]any, count)
	for i := range docs {
		docs[i] = map[string]any{
			"id":             float64(i + 1),
			"user_id":        float64(1 + rand.Intn(100)),
			"product_id":     float64(1 + rand.Intn(50)),
			"quantity":       float64(1 + rand.Intn(5)),
			"total_amount":   float64(10 + rand.Intn(500)),
			"sale_date":      pastDate(),
			"payment_method": pick(payments),
		}
	}
	return docs
}

func pick(options []string) string {
	return options[rand.Intn(len(options))]
}

func pastDate() string {
	days := rand.Intn(365) + 1
	return time.Now().AddDate(0, 0, -days).Format("2006-01-02")
}

func columnsOf(pairs ...string) []models.Column {
	cols := make([]models.Column, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		cols = append(cols, models.Column{Name: pairs[i], Type: pairs[i+1]})
	}
	return cols
}
