package mysql

import (
	"errors"
	"fmt"

	"github.com/vocdoni/saas-checkout/db"
	"gorm.io/gorm"
)

// CreatePayment inserts a new payment row.
func (s *Storage) CreatePayment(payment *db.Payment) error {
	if err := payment.Validate(); err != nil {
		return err
	}
	row := &paymentModel{
		ProcessorPaymentID: payment.ProcessorPaymentID,
		Amount:             payment.Amount,
		Status:             payment.Status,
	}
	if err := s.gorm.Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("payment %s: %w", payment.ProcessorPaymentID, db.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create payment %s: %w", payment.ProcessorPaymentID, err)
	}
	payment.CreatedAt = row.CreatedAt
	payment.UpdatedAt = row.UpdatedAt
	return nil
}

// Payment returns the payment with the given processor id.
func (s *Storage) Payment(processorPaymentID string) (*db.Payment, error) {
	row := &paymentModel{}
	err := s.gorm.Where("processor_payment_id = ?", processorPaymentID).First(row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment %s: %w", processorPaymentID, err)
	}
	return row.toPayment(), nil
}

// CreateSubscription inserts a new subscription row.
func (s *Storage) CreateSubscription(subscription *db.Subscription) error {
	if err := subscription.Validate(); err != nil {
		return err
	}
	row := &subscriptionModel{
		ProcessorSubscriptionID: subscription.ProcessorSubscriptionID,
		CustomerID:              subscription.CustomerID,
		Status:                  subscription.Status,
		CurrentPeriodEnd:        subscription.CurrentPeriodEnd,
	}
	if err := s.gorm.Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("subscription %s: %w", subscription.ProcessorSubscriptionID, db.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create subscription %s: %w", subscription.ProcessorSubscriptionID, err)
	}
	subscription.CreatedAt = row.CreatedAt
	subscription.UpdatedAt = row.UpdatedAt
	return nil
}

// Subscription returns the subscription with the given processor id.
func (s *Storage) Subscription(processorSubscriptionID string) (*db.Subscription, error) {
	row := &subscriptionModel{}
	err := s.gorm.Where("processor_subscription_id = ?", processorSubscriptionID).First(row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription %s: %w", processorSubscriptionID, err)
	}
	return row.toSubscription(), nil
}

// SetSubscriptionStatus updates the status column of the matching row. The
// row is looked up first: MySQL reports no affected rows when the status is
// already the requested one.
func (s *Storage) SetSubscriptionStatus(processorSubscriptionID, status string) error {
	if processorSubscriptionID == "" || status == "" {
		return db.ErrInvalidData
	}
	return s.gorm.Transaction(func(tx *gorm.DB) error {
		row := &subscriptionModel{}
		err := tx.Select("id").Where("processor_subscription_id = ?", processorSubscriptionID).First(row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return db.ErrNotFound
			}
			return fmt.Errorf("failed to get subscription %s: %w", processorSubscriptionID, err)
		}
		if err := tx.Model(row).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update subscription %s: %w", processorSubscriptionID, err)
		}
		return nil
	})
}
