package repositories

import (
	"errors"
	"time"

	"github.com/padosi-app/backend/internal/models"
	"gorm.io/gorm"
)

// WalletRepository is the token ledger. All balance mutations go through it;
// no other component touches the balance column. Debits happen only at
// settlement, so a withdrawal abandoned while pending never moves tokens.
type WalletRepository interface {
	Credit(userID uint, amount int, reference string) error
	BeginWithdrawal(userID uint, withdrawal *models.Withdrawal) error
	SettleWithdrawal(withdrawal *models.Withdrawal) error
	GetPendingWithdrawal(userID uint) (*models.Withdrawal, error)
	GetWithdrawals(userID uint) ([]models.Withdrawal, error)
	GetTransactions(userID uint, limit int) ([]models.WalletTransaction, error)
}

// PostgresWalletRepository implements WalletRepository for PostgreSQL
type PostgresWalletRepository struct {
	db *gorm.DB
}

// NewPostgresWalletRepository creates a new PostgresWalletRepository
func NewPostgresWalletRepository(db *gorm.DB) *PostgresWalletRepository {
	return &PostgresWalletRepository{db: db}
}

// Credit adds gifted tokens to a wallet and records the transaction. The
// amount must come from the fixed gift menu.
func (r *PostgresWalletRepository) Credit(userID uint, amount int, reference string) error {
	if !models.ValidGiftAmount(amount) {
		return ErrInvalidGiftAmount
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("token_balance", gorm.Expr("token_balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(&models.WalletTransaction{
			UserID:    userID,
			Amount:    amount,
			Type:      models.TransactionGiftReceived,
			Reference: reference,
		}).Error
	})
}

// BeginWithdrawal admits a withdrawal request: balance must be at or above
// the threshold and no other withdrawal may be pending. The guarded flag
// flip makes concurrent requests lose cleanly. No tokens move here.
func (r *PostgresWalletRepository) BeginWithdrawal(userID uint, withdrawal *models.Withdrawal) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND pending_withdrawal = false AND token_balance >= ?",
				userID, models.WithdrawalThreshold).
			Update("pending_withdrawal", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var user models.User
			if err := tx.First(&user, userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if user.PendingWithdrawal {
				return ErrWithdrawalInProgress
			}
			return ErrInsufficientBalance
		}

		withdrawal.UserID = userID
		withdrawal.Amount = models.WithdrawalThreshold
		withdrawal.Status = models.WithdrawalPending
		return tx.Create(withdrawal).Error
	})
}

// SettleWithdrawal applies the debit for a pending withdrawal, exactly once.
// The conditional update re-checks the balance so the ledger can never go
// negative; a miss marks the withdrawal FAILED with no debit either way.
func (r *PostgresWalletRepository) SettleWithdrawal(withdrawal *models.Withdrawal) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND token_balance >= ?", withdrawal.UserID, withdrawal.Amount).
			UpdateColumns(map[string]interface{}{
				"token_balance":      gorm.Expr("token_balance - ?", withdrawal.Amount),
				"pending_withdrawal": false,
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", withdrawal.UserID).
				Update("pending_withdrawal", false).Error; err != nil {
				return err
			}
			withdrawal.Status = models.WithdrawalFailed
			return tx.Model(withdrawal).Update("status", models.WithdrawalFailed).Error
		}

		now := time.Now()
		withdrawal.Status = models.WithdrawalSettled
		withdrawal.SettledAt = &now
		if err := tx.Model(withdrawal).Updates(map[string]interface{}{
			"status":     models.WithdrawalSettled,
			"settled_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.WalletTransaction{
			UserID:    withdrawal.UserID,
			Amount:    -withdrawal.Amount,
			Type:      models.TransactionWithdrawal,
			Reference: withdrawal.Reference,
		}).Error
	})
}

// GetPendingWithdrawal returns the outstanding withdrawal, if any.
func (r *PostgresWalletRepository) GetPendingWithdrawal(userID uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.Where("user_id = ? AND status = ?", userID, models.WithdrawalPending).
		Order("created_at DESC").First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

// GetWithdrawals returns a user's withdrawal history, newest first.
func (r *PostgresWalletRepository) GetWithdrawals(userID uint) ([]models.Withdrawal, error) {
	var ws []models.Withdrawal
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&ws).Error
	return ws, err
}

// GetTransactions returns recent ledger entries, newest first.
func (r *PostgresWalletRepository) GetTransactions(userID uint, limit int) ([]models.WalletTransaction, error) {
	var txs []models.WalletTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&txs).Error
	return txs, err
}
