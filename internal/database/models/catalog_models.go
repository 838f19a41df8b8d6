package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementReason attributes every stock mutation to exactly one workflow.
type MovementReason string

const (
	MovementSaleCommit         MovementReason = "sale_commit"
	MovementSaleCancel         MovementReason = "sale_cancel"
	MovementReservationHold    MovementReason = "reservation_hold"
	MovementReservationRelease MovementReason = "reservation_release"
	MovementExchangeRestore    MovementReason = "exchange_restore"
	MovementExchangeIssue      MovementReason = "exchange_issue"
	MovementPurchaseReceipt    MovementReason = "purchase_receipt"
)

type ReferenceKind string

const (
	RefSale          ReferenceKind = "sale"
	RefReservation   ReferenceKind = "reservation"
	RefExchange      ReferenceKind = "exchange_return"
	RefPurchaseOrder ReferenceKind = "purchase_order"
)

type Category struct {
	ID          int32   `gorm:"primaryKey;autoIncrement"`
	Name        string  `gorm:"type:varchar(128);uniqueIndex;not null"`
	Description *string `gorm:"type:varchar(255)"`
	IsActive    bool    `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StockItem is one sellable variant (product + size + color). Quantity is the
// single authoritative counter; it is never negative and never mutated outside
// a ledger operation.
type StockItem struct {
	ID         int64   `gorm:"primaryKey;autoIncrement"`
	SKU        string  `gorm:"type:varchar(64);uniqueIndex;not null"`
	Name       string  `gorm:"type:varchar(128);not null"`
	Size       string  `gorm:"type:varchar(16);not null"`
	Color      string  `gorm:"type:varchar(32);not null"`
	CategoryID *int32  `gorm:"index"`
	Quantity   int32   `gorm:"not null;default:0"`
	MinStock   int32   `gorm:"not null;default:0"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	UnitCost   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsActive   bool    `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
}

// StockMovement is the audit trail. One row per successful ledger mutation,
// written in the same transaction as the quantity change.
type StockMovement struct {
	ID            int64          `gorm:"primaryKey;autoIncrement"`
	StockItemID   int64          `gorm:"index;not null"`
	Delta         int32          `gorm:"not null"`
	Resulting     int32          `gorm:"not null"`
	Reason        MovementReason `gorm:"type:varchar(32);not null"`
	ReferenceKind ReferenceKind  `gorm:"type:varchar(32);not null"`
	ReferenceID   string         `gorm:"type:varchar(64);not null"`
	Notes         *string        `gorm:"type:text"`
	CreatedAt     time.Time
}
