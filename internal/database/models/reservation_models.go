package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

// Active reports whether the reservation still holds stock. Only active
// reservations may transition; all other statuses are terminal.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// Reservation is a soft hold implemented as a real stock decrement at
// creation, so a reserved unit can never be sold twice.
type Reservation struct {
	ID            int64             `gorm:"primaryKey;autoIncrement"`
	CustomerName  string            `gorm:"type:varchar(128);not null"`
	CustomerEmail string            `gorm:"type:varchar(128);not null"`
	DepositAmount decimal.Decimal   `gorm:"type:numeric(12,2);not null"`
	PaymentMethod string            `gorm:"type:varchar(32);not null"`
	ExpiresAt     time.Time         `gorm:"not null"`
	Status        ReservationStatus `gorm:"type:varchar(16);not null"`
	SaleID        *int64            `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []ReservationItem `gorm:"foreignKey:ReservationID"`
}

type ReservationItem struct {
	ID            int64 `gorm:"primaryKey;autoIncrement"`
	ReservationID int64 `gorm:"index;not null"`
	StockItemID   int64 `gorm:"not null"`
	Quantity      int32 `gorm:"not null"`
	CreatedAt     time.Time
}
