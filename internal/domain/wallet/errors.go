package wallet

import "github.com/mcash/mcash-api/internal/pkg/apperr"

var (
	ErrInvalidAmount       = apperr.New(apperr.ValidationFailed, "amount must be greater than zero")
	ErrAmountTooLarge      = apperr.New(apperr.ValidationFailed, "amount exceeds the single operation maximum")
	ErrSelfTransfer        = apperr.New(apperr.ValidationFailed, "cannot send money to yourself")
	ErrWalletNotFound      = apperr.New(apperr.NotFound, "wallet not found")
	ErrReceiverNotFound    = apperr.New(apperr.NotFound, "receiver not found")
	ErrUserNotFound        = apperr.New(apperr.NotFound, "user not found")
	ErrAgentNotFound       = apperr.New(apperr.NotFound, "agent not found")
	ErrWalletBlocked       = apperr.New(apperr.WalletBlocked, "wallet is blocked")
	ErrCounterpartyBlocked = apperr.New(apperr.WalletBlocked, "counterparty wallet is blocked")
	ErrInsufficientFunds   = apperr.New(apperr.InsufficientBalance, "insufficient balance")
	ErrAgentInsufficient   = apperr.New(apperr.InsufficientBalance, "agent has insufficient balance")
	ErrCashOutInsufficient = apperr.New(apperr.InsufficientBalance, "insufficient balance to cover cash-out and fees")
	ErrNotApprovedAgent    = apperr.New(apperr.NotApprovedAgent, "the provided user is not an approved agent")
	ErrWalletExists        = apperr.New(apperr.AlreadyExists, "wallet already exists for this user")
)
