package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one pending purchase intent of a user.
type CartLine struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string          `json:"user_id" gorm:"type:varchar(36);index"`
	MenuItemID string          `json:"menuitem_id" gorm:"type:varchar(36);index"`
	MenuItem   *MenuItem       `json:"menuitem,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2)"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(10,2)"`
	CreatedAt  time.Time       `json:"created_at"`
}

// LinePrice is quantity × unit price.
func LinePrice(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
