package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExchangeKind string

const (
	KindReturn   ExchangeKind = "return"
	KindExchange ExchangeKind = "exchange"
)

type ExchangeStatus string

const (
	ExchangePending   ExchangeStatus = "pending"
	ExchangeApproved  ExchangeStatus = "approved"
	ExchangeRejected  ExchangeStatus = "rejected"
	ExchangeCompleted ExchangeStatus = "completed"
	ExchangeCancelled ExchangeStatus = "cancelled"
)

// ExchangeReturn records a reversal of a prior sale. Stock is untouched until
// the record transitions to completed.
type ExchangeReturn struct {
	ID            int64          `gorm:"primaryKey;autoIncrement"`
	Kind          ExchangeKind   `gorm:"type:varchar(16);not null"`
	SaleID        int64          `gorm:"index;not null"`
	Status        ExchangeStatus `gorm:"type:varchar(16);not null"`
	ApprovalNotes *string        `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []ExchangeReturnItem `gorm:"foreignKey:ExchangeReturnID"`
	Sale  *Sale                `gorm:"foreignKey:SaleID"`
}

type ExchangeReturnItem struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	ExchangeReturnID int64  `gorm:"index;not null"`
	StockItemID      int64  `gorm:"not null"`
	Quantity         int32  `gorm:"not null"`
	NewStockItemID   *int64 // exchange only
	NewQuantity      *int32
	CreatedAt        time.Time
}

type PurchaseOrderStatus string

const (
	PurchaseOrderPending   PurchaseOrderStatus = "pending"
	PurchaseOrderReceived  PurchaseOrderStatus = "received"
	PurchaseOrderCancelled PurchaseOrderStatus = "cancelled"
)

type PurchaseOrder struct {
	ID           int64               `gorm:"primaryKey;autoIncrement"`
	SupplierName string              `gorm:"type:varchar(128);not null"`
	Status       PurchaseOrderStatus `gorm:"type:varchar(16);not null"`
	ReceivedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID"`
}

type PurchaseOrderItem struct {
	ID              int64 `gorm:"primaryKey;autoIncrement"`
	PurchaseOrderID int64 `gorm:"index;not null"`
	StockItemID     int64 `gorm:"not null"`
	Quantity        int32 `gorm:"not null"`
	UnitCost        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt       time.Time
}
