package models

import "github.com/shopspring/decimal"

// Category groups menu items, e.g. "Desserts".
type Category struct {
	ID    string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Slug  string `json:"slug" gorm:"uniqueIndex;type:varchar(255)"`
	Title string `json:"title" gorm:"index;type:varchar(255)"`
}

// MenuItem is a dish on the menu. Price is the current catalog price; carts
// and orders snapshot it.
type MenuItem struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title      string          `json:"title" gorm:"index;type:varchar(255)"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(10,2);index"`
	Featured   bool            `json:"featured" gorm:"index"`
	CategoryID string          `json:"category_id" gorm:"type:varchar(36);index"`
	Category   *Category       `json:"category,omitempty"`
}
