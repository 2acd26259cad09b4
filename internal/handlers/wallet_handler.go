package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/padosi-app/backend/internal/models"
	"github.com/padosi-app/backend/internal/repositories"
)

// WalletHandler exposes the token ledger: wallet snapshot, withdrawal
// initiation and history. Settlement is asynchronous: the debit happens only
// after the simulated payout delay, never at request time.
type WalletHandler struct {
	walletRepository       repositories.WalletRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	settlementDelay        time.Duration
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(
	walletRepo repositories.WalletRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	settlementDelay time.Duration,
) *WalletHandler {
	return &WalletHandler{
		walletRepository:       walletRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		settlementDelay:        settlementDelay,
	}
}

// RegisterWalletRoutes registers wallet routes
func (h *WalletHandler) RegisterWalletRoutes(g *echo.Group) {
	g.GET("/wallet", h.GetWallet)
	g.POST("/wallet/withdraw", h.Withdraw)
	g.GET("/wallet/withdrawals", h.GetWithdrawals)
}

// GetWallet returns the wallet snapshot: balance, threshold gate, pending
// withdrawal and recent transactions.
func (h *WalletHandler) GetWallet(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	pending, err := h.walletRepository.GetPendingWithdrawal(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	transactions, err := h.walletRepository.GetTransactions(currentUserID, 20)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, models.WalletSnapshot{
		Balance:      user.TokenBalance,
		Threshold:    models.WithdrawalThreshold,
		CanWithdraw:  user.TokenBalance >= models.WithdrawalThreshold && !user.PendingWithdrawal,
		Pending:      pending,
		Transactions: transactions,
	})
}

// Withdraw initiates a cash-out of exactly the threshold amount. The request
// is admitted synchronously (balance gate, single-pending gate) and settled
// asynchronously after the payout delay.
func (h *WalletHandler) Withdraw(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.WithdrawRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	withdrawal := &models.Withdrawal{
		Reference:   uuid.NewString(),
		Method:      req.Method,
		Destination: req.Destination,
	}

	if err := h.walletRepository.BeginWithdrawal(currentUserID, withdrawal); err != nil {
		switch {
		case errors.Is(err, repositories.ErrInsufficientBalance):
			return echo.NewHTTPError(http.StatusPaymentRequired,
				fmt.Sprintf("Balance must be at least %d tokens to withdraw", models.WithdrawalThreshold))
		case errors.Is(err, repositories.ErrWithdrawalInProgress):
			return echo.NewHTTPError(http.StatusConflict, "A withdrawal is already being processed")
		case errors.Is(err, repositories.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	go h.settle(withdrawal)

	return c.JSON(http.StatusAccepted, withdrawal)
}

// settle waits out the simulated payout latency and applies the debit. A
// real implementation would await a payment-gateway callback here.
func (h *WalletHandler) settle(withdrawal *models.Withdrawal) {
	time.Sleep(h.settlementDelay)

	if err := h.walletRepository.SettleWithdrawal(withdrawal); err != nil {
		log.Printf("Failed to settle withdrawal %s: %v", withdrawal.Reference, err)
		return
	}

	if withdrawal.Status != models.WithdrawalSettled {
		log.Printf("Withdrawal %s failed at settlement", withdrawal.Reference)
		return
	}

	n := &models.Notification{
		RecipientID: withdrawal.UserID,
		Type:        models.NotificationWithdrawalSettled,
		Title:       "Withdrawal complete",
		Message: fmt.Sprintf("%d tokens sent via %s. Ref: %s",
			withdrawal.Amount, withdrawal.Method, withdrawal.Reference[:8]),
		RelatedID: withdrawal.Reference,
	}
	if err := h.notificationRepository.CreateNotification(n); err != nil {
		log.Printf("Failed to create WITHDRAWAL_SETTLED notification: %v", err)
	}
}

// GetWithdrawals returns the viewer's withdrawal history, newest first
func (h *WalletHandler) GetWithdrawals(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	withdrawals, err := h.walletRepository.GetWithdrawals(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, withdrawals)
}
