// Package customers is the thin collaborator the sale processor forwards
// customer identity to. It is deliberately outside the stock transaction:
// a failed upsert must never roll back a committed sale.
package customers

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"boutique-system/internal/database/models"
)

type Upserter interface {
	Upsert(ctx context.Context, email, name string) (int64, error)
}

type GormUpserter struct {
	db *gorm.DB
}

func NewGormUpserter(db *gorm.DB) *GormUpserter {
	return &GormUpserter{db: db}
}

func (u *GormUpserter) Upsert(ctx context.Context, email, name string) (int64, error) {
	var customer models.Customer
	err := u.db.WithContext(ctx).Where("email = ?", email).First(&customer).Error
	switch {
	case err == nil:
		if customer.Name != name && name != "" {
			customer.Name = name
			if err := u.db.WithContext(ctx).Save(&customer).Error; err != nil {
				return 0, err
			}
		}
		return customer.ID, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		customer = models.Customer{Email: email, Name: name}
		if err := u.db.WithContext(ctx).Create(&customer).Error; err != nil {
			return 0, err
		}
		return customer.ID, nil
	default:
		return 0, err
	}
}
