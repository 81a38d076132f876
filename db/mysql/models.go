package mysql

import (
	"time"

	"github.com/vocdoni/saas-checkout/db"
)

type paymentModel struct {
	ID                 uint      `gorm:"primaryKey"`
	ProcessorPaymentID string    `gorm:"type:varchar(191);not null;uniqueIndex"`
	Amount             int64     `gorm:"not null"`
	Status             string    `gorm:"type:varchar(64);not null"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (paymentModel) TableName() string { return "payments" }

func (m *paymentModel) toPayment() *db.Payment {
	return &db.Payment{
		ProcessorPaymentID: m.ProcessorPaymentID,
		Amount:             m.Amount,
		Status:             m.Status,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

type subscriptionModel struct {
	ID                      uint       `gorm:"primaryKey"`
	ProcessorSubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex"`
	CustomerID              string     `gorm:"type:varchar(191);not null;index"`
	Status                  string     `gorm:"type:varchar(64);not null"`
	CurrentPeriodEnd        *time.Time `gorm:"default:null"`
	CreatedAt               time.Time  `gorm:"autoCreateTime"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime"`
}

func (subscriptionModel) TableName() string { return "subscriptions" }

func (m *subscriptionModel) toSubscription() *db.Subscription {
	return &db.Subscription{
		ProcessorSubscriptionID: m.ProcessorSubscriptionID,
		CustomerID:              m.CustomerID,
		Status:                  m.Status,
		CurrentPeriodEnd:        m.CurrentPeriodEnd,
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
}
