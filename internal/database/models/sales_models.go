package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
	SaleReturned  SaleStatus = "returned"
)

type Customer struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Email     string `gorm:"type:varchar(128);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(128);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Sale struct {
	ID             int64      `gorm:"primaryKey;autoIncrement"`
	ReceiptNumber  string     `gorm:"type:varchar(64);uniqueIndex;not null"`
	CustomerID     *int64     `gorm:"index"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentMethod  string     `gorm:"type:varchar(32);not null"`
	Status         SaleStatus `gorm:"type:varchar(16);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items    []SaleItem `gorm:"foreignKey:SaleID"`
	Customer *Customer  `gorm:"foreignKey:CustomerID"`
}

type SaleItem struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	SaleID      int64 `gorm:"index;not null"`
	StockItemID int64 `gorm:"not null"`
	Quantity    int32 `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt   time.Time

	StockItem *StockItem `gorm:"foreignKey:StockItemID"`
}
