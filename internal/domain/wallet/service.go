package wallet

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mcash/mcash-api/internal/domain/access"
	"github.com/mcash/mcash-api/internal/domain/transaction"
	"github.com/mcash/mcash-api/internal/domain/user"
	"github.com/mcash/mcash-api/internal/pkg/apperr"
	"github.com/mcash/mcash-api/internal/pkg/logger"
	"github.com/mcash/mcash-api/internal/pkg/money"
)

// Fee policy.
var (
	CashInCommissionRate = decimal.RequireFromString("0.01")
	CashOutFeeRate       = decimal.RequireFromString("0.015")
)

// EventWalletUpdated is published to every owner whose wallet changed.
const EventWalletUpdated = "wallet.updated"

// Operation names used in logs and metrics.
const (
	OpDeposit   = "deposit"
	OpWithdraw  = "withdraw"
	OpSendMoney = "send_money"
	OpCashIn    = "cash_in"
	OpCashOut   = "cash_out"
)

// Result is the committed outcome of an engine operation.
type Result struct {
	Wallet       *Wallet                   `json:"wallet"`
	Counterparty *Wallet                   `json:"-"`
	Transactions []transaction.Transaction `json:"transactions"`
}

// UpdateEvent is the payload of EventWalletUpdated.
type UpdateEvent struct {
	Operation    string                    `json:"operation"`
	Wallet       *Wallet                   `json:"wallet"`
	Transactions []transaction.Transaction `json:"transactions"`
}

// ListPage is one page of the admin wallet listing.
type ListPage struct {
	Wallets []WalletWithOwner
	Total   int
	Page    int
	Limit   int
}

// Service is the transfer engine.
type Service struct {
	store     Store
	directory Directory
	publisher Publisher
	metrics   Metrics
	loc       *time.Location
	now       func() time.Time
}

// NewService wires the engine. A nil publisher or metrics sink disables that
// concern; a nil location means UTC.
func NewService(store Store, directory Directory, publisher Publisher, metrics Metrics, loc *time.Location) *Service {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:     store,
		directory: directory,
		publisher: publisher,
		metrics:   metrics,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// Deposit credits the actor's own wallet.
func (s *Service) Deposit(ctx context.Context, actor access.Actor, amount money.Amount) (*Result, error) {
	return s.run(ctx, OpDeposit, actor, access.PermDeposit, amount, func(ctx context.Context, l Ledger, now time.Time) (*Result, error) {
		w, err := l.LockWallet(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if w.IsBlocked {
			return nil, ErrWalletBlocked
		}

		if w.DailyLimits.Deposit, err = w.DailyLimits.Deposit.Consume(now, amount); err != nil {
			return nil, err
		}
		if err := credit(w, amount); err != nil {
			return nil, err
		}

		if err := l.SaveWallet(ctx, w); err != nil {
			return nil, err
		}

		t := transaction.Transaction{
			SenderID:    actor.ID,
			ReceiverID:  actor.ID,
			Amount:      amount,
			Type:        transaction.TypeDeposit,
			Description: "Money added to wallet",
		}
		if err := l.InsertTransaction(ctx, &t); err != nil {
			return nil, err
		}

		return &Result{Wallet: w, Transactions: []transaction.Transaction{t}}, nil
	})
}

// Withdraw debits the actor's own wallet.
func (s *Service) Withdraw(ctx context.Context, actor access.Actor, amount money.Amount) (*Result, error) {
	return s.run(ctx, OpWithdraw, actor, access.PermWithdraw, amount, func(ctx context.Context, l Ledger, now time.Time) (*Result, error) {
		w, err := l.LockWallet(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if w.IsBlocked {
			return nil, ErrWalletBlocked
		}
		if w.Balance < amount {
			return nil, ErrInsufficientFunds
		}

		if w.DailyLimits.Withdrawal, err = w.DailyLimits.Withdrawal.Consume(now, amount); err != nil {
			return nil, err
		}
		w.Balance -= amount

		if err := l.SaveWallet(ctx, w); err != nil {
			return nil, err
		}

		t := transaction.Transaction{
			SenderID:    actor.ID,
			ReceiverID:  actor.ID,
			Amount:      amount,
			Type:        transaction.TypeWithdraw,
			Description: "Money withdrawn from wallet",
		}
		if err := l.InsertTransaction(ctx, &t); err != nil {
			return nil, err
		}

		return &Result{Wallet: w, Transactions: []transaction.Transaction{t}}, nil
	})
}

// SendMoney moves amount from the actor to the owner of receiverPhone.
func (s *Service) SendMoney(ctx context.Context, actor access.Actor, receiverPhone string, amount money.Amount) (*Result, error) {
	receiverPhone = user.NormalizePhone(receiverPhone)

	return s.run(ctx, OpSendMoney, actor, access.PermSend, amount, func(ctx context.Context, l Ledger, now time.Time) (*Result, error) {
		receiver, err := s.directory.GetByPhone(ctx, receiverPhone)
		if err != nil {
			return nil, err
		}
		if receiver != nil && receiver.ID == actor.ID {
			return nil, ErrSelfTransfer
		}

		sender, recv, err := s.lockParties(ctx, l, actor.ID, receiver)
		if err != nil {
			return nil, err
		}

		if sender == nil {
			return nil, ErrWalletNotFound
		}
		if sender.IsBlocked {
			return nil, ErrWalletBlocked
		}
		if receiver == nil {
			return nil, ErrReceiverNotFound
		}
		if recv == nil {
			return nil, ErrWalletNotFound
		}
		if recv.IsBlocked {
			return nil, ErrCounterpartyBlocked
		}
		if sender.Balance < amount {
			return nil, ErrInsufficientFunds
		}

		if sender.DailyLimits.SendMoney, err = sender.DailyLimits.SendMoney.Consume(now, amount); err != nil {
			return nil, err
		}
		sender.Balance -= amount
		if err := credit(recv, amount); err != nil {
			return nil, err
		}

		if err := saveAll(ctx, l, sender, recv); err != nil {
			return nil, err
		}

		t := transaction.Transaction{
			SenderID:    actor.ID,
			ReceiverID:  receiver.ID,
			Amount:      amount,
			Type:        transaction.TypeSendMoney,
			Description: "Money sent to " + receiverPhone,
		}
		if err := l.InsertTransaction(ctx, &t); err != nil {
			return nil, err
		}

		return &Result{Wallet: sender, Counterparty: recv, Transactions: []transaction.Transaction{t}}, nil
	})
}

// CashIn lets an agent hand cash to a user: the agent's float pays the user
// and the agent is credited a commission in the same step.
func (s *Service) CashIn(ctx context.Context, actor access.Actor, userPhone string, amount money.Amount) (*Result, error) {
	userPhone = user.NormalizePhone(userPhone)

	return s.run(ctx, OpCashIn, actor, access.PermCashIn, amount, func(ctx context.Context, l Ledger, now time.Time) (*Result, error) {
		target, err := s.directory.GetByPhone(ctx, userPhone)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, ErrUserNotFound
		}
		if target.ID == actor.ID {
			return nil, ErrSelfTransfer
		}

		agent, uw, err := l.LockPair(ctx, actor.ID, target.ID)
		if err != nil {
			return nil, err
		}

		if uw == nil {
			return nil, ErrWalletNotFound
		}
		if uw.IsBlocked {
			return nil, ErrCounterpartyBlocked
		}
		if agent == nil {
			return nil, ErrWalletNotFound
		}
		if agent.IsBlocked {
			return nil, ErrWalletBlocked
		}
		if agent.Balance < amount {
			return nil, ErrAgentInsufficient
		}

		commission := amount.Percent(CashInCommissionRate)
		agent.Balance -= amount
		if err := credit(agent, commission); err != nil {
			return nil, err
		}
		if err := credit(uw, amount); err != nil {
			return nil, err
		}

		if err := saveAll(ctx, l, agent, uw); err != nil {
			return nil, err
		}

		entries := []transaction.Transaction{
			{
				SenderID:    actor.ID,
				ReceiverID:  target.ID,
				Amount:      amount,
				Commission:  commission,
				Type:        transaction.TypeCashIn,
				Description: "Cash-in for " + userPhone,
			},
			{
				SenderID:    actor.ID,
				ReceiverID:  actor.ID,
				Amount:      commission,
				Type:        transaction.TypeCommission,
				Description: "Cash-in commission earned",
			},
		}
		if err := insertAll(ctx, l, entries); err != nil {
			return nil, err
		}

		return &Result{Wallet: agent, Counterparty: uw, Transactions: entries}, nil
	})
}

// CashOut lets a user take cash from an approved agent. The user pays the
// amount plus the cash-out fee; the agent receives both.
func (s *Service) CashOut(ctx context.Context, actor access.Actor, agentPhone string, amount money.Amount) (*Result, error) {
	agentPhone = user.NormalizePhone(agentPhone)

	return s.run(ctx, OpCashOut, actor, access.PermCashOut, amount, func(ctx context.Context, l Ledger, now time.Time) (*Result, error) {
		fee := amount.Percent(CashOutFeeRate)
		totalDebit := amount + fee

		agentUser, err := s.directory.GetByPhone(ctx, agentPhone)
		if err != nil {
			return nil, err
		}
		if agentUser != nil && agentUser.ID == actor.ID {
			return nil, ErrSelfTransfer
		}

		uw, aw, err := s.lockParties(ctx, l, actor.ID, agentUser)
		if err != nil {
			return nil, err
		}

		if uw == nil {
			return nil, ErrWalletNotFound
		}
		if uw.IsBlocked {
			return nil, ErrWalletBlocked
		}
		if uw.Balance < totalDebit {
			return nil, ErrCashOutInsufficient
		}
		if agentUser == nil {
			return nil, ErrAgentNotFound
		}
		if !agentUser.IsApprovedAgent() {
			return nil, ErrNotApprovedAgent
		}
		if aw == nil {
			return nil, ErrWalletNotFound
		}
		if aw.IsBlocked {
			return nil, ErrCounterpartyBlocked
		}

		uw.Balance -= totalDebit
		if err := credit(aw, totalDebit); err != nil {
			return nil, err
		}

		if err := saveAll(ctx, l, uw, aw); err != nil {
			return nil, err
		}

		entries := []transaction.Transaction{
			{
				SenderID:    actor.ID,
				ReceiverID:  agentUser.ID,
				Amount:      amount,
				Fee:         fee,
				Type:        transaction.TypeCashOut,
				Description: "User-initiated cash-out to agent " + agentPhone + ".",
			},
			{
				SenderID:    actor.ID,
				ReceiverID:  agentUser.ID,
				Amount:      fee,
				Type:        transaction.TypeCommission,
				Description: "Cash-out commission earned from user " + actor.ID.String(),
			},
		}
		if err := insertAll(ctx, l, entries); err != nil {
			return nil, err
		}

		return &Result{Wallet: uw, Counterparty: aw, Transactions: entries}, nil
	})
}

// lockParties locks the actor's wallet and, when the counterparty resolved,
// the counterparty's wallet in canonical order.
func (s *Service) lockParties(ctx context.Context, l Ledger, actorID uuid.UUID, other *user.User) (*Wallet, *Wallet, error) {
	if other != nil {
		return l.LockPair(ctx, actorID, other.ID)
	}

	w, err := l.LockWallet(ctx, actorID)
	if errors.Is(err, ErrWalletNotFound) {
		return nil, nil, nil
	}
	return w, nil, err
}

func credit(w *Wallet, amount money.Amount) error {
	balance, err := w.Balance.Add(amount)
	if err != nil {
		return err
	}
	w.Balance = balance
	return nil
}

func saveAll(ctx context.Context, l Ledger, wallets ...*Wallet) error {
	for _, w := range wallets {
		if err := l.SaveWallet(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func insertAll(ctx context.Context, l Ledger, entries []transaction.Transaction) error {
	for i := range entries {
		if err := l.InsertTransaction(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

type operation func(ctx context.Context, l Ledger, now time.Time) (*Result, error)

// run is the common envelope of every money movement: authorize, validate,
// execute fn in one unit of work, then record and publish the outcome.
func (s *Service) run(ctx context.Context, op string, actor access.Actor, perm access.Permission, amount money.Amount, fn operation) (*Result, error) {
	if err := access.Authorize(actor.Role, perm); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > MaxOperationAmount {
		return nil, ErrAmountTooLarge
	}

	start := time.Now()
	now := s.clock()

	var res *Result
	err := s.store.Do(ctx, func(ctx context.Context, l Ledger) error {
		r, err := fn(ctx, l, now)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		s.metrics.ObserveOperation(op, outcome(err), time.Since(start))
		s.logFailure(ctx, op, actor, amount, err)
		return nil, err
	}

	s.metrics.ObserveOperation(op, "ok", time.Since(start))
	var fees money.Amount
	for _, t := range res.Transactions {
		fees += t.Fee + t.Commission
	}
	s.metrics.AddVolume(op, amount.Cents(), fees.Cents())

	refs := make([]string, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		refs = append(refs, t.Reference)
	}
	logger.LogInfo(ctx, "wallet operation committed",
		"operation", op,
		"user_id", actor.ID.String(),
		"amount", amount.String(),
		"reference", strings.Join(refs, ","),
	)

	s.publish(ctx, op, res)
	return res, nil
}

func (s *Service) logFailure(ctx context.Context, op string, actor access.Actor, amount money.Amount, err error) {
	switch apperr.KindOf(err) {
	case apperr.Internal:
		logger.LogError(ctx, err, "wallet operation failed", "operation", op, "user_id", actor.ID.String())
	case apperr.Conflict:
		logger.LogWarn(ctx, "wallet operation conflicted", "operation", op, "user_id", actor.ID.String(), "error", err.Error())
	default:
		logger.LogDebug(ctx, "wallet operation rejected",
			"operation", op,
			"user_id", actor.ID.String(),
			"amount", amount.String(),
			"reason", err.Error(),
		)
	}
}

// publish notifies the owners of every touched wallet. Failures are logged only.
func (s *Service) publish(ctx context.Context, op string, res *Result) {
	for _, w := range []*Wallet{res.Wallet, res.Counterparty} {
		if w == nil {
			continue
		}
		evt := UpdateEvent{Operation: op, Wallet: w, Transactions: res.Transactions}
		if err := s.publisher.Publish(ctx, w.UserID, EventWalletUpdated, evt); err != nil {
			logger.LogWarn(ctx, "failed to publish wallet event", "user_id", w.UserID.String(), "error", err.Error())
		}
	}
}

func outcome(err error) string {
	return strings.ToLower(string(apperr.KindOf(err)))
}

// GetMyWallet returns the actor's own wallet.
func (s *Service) GetMyWallet(ctx context.Context, actor access.Actor) (*Wallet, error) {
	if err := access.Authorize(actor.Role, access.PermViewWallet); err != nil {
		return nil, err
	}

	w, err := s.store.GetByUserID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWalletNotFound
	}
	return w, nil
}

// ListWallets is the administrator listing with owner details.
func (s *Service) ListWallets(ctx context.Context, actor access.Actor, page, limit int) (*ListPage, error) {
	if err := access.Authorize(actor.Role, access.PermManageWallets); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	wallets, total, err := s.store.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return &ListPage{Wallets: wallets, Total: total, Page: page, Limit: limit}, nil
}

// BlockWallet freezes a user's wallet.
func (s *Service) BlockWallet(ctx context.Context, actor access.Actor, userID uuid.UUID) (*Wallet, error) {
	return s.setBlocked(ctx, actor, userID, true)
}

// UnblockWallet lifts a freeze.
func (s *Service) UnblockWallet(ctx context.Context, actor access.Actor, userID uuid.UUID) (*Wallet, error) {
	return s.setBlocked(ctx, actor, userID, false)
}

func (s *Service) setBlocked(ctx context.Context, actor access.Actor, userID uuid.UUID, blocked bool) (*Wallet, error) {
	if err := access.Authorize(actor.Role, access.PermManageWallets); err != nil {
		return nil, err
	}

	w, err := s.store.SetBlocked(ctx, userID, blocked)
	if err != nil {
		return nil, err
	}

	logger.LogInfo(ctx, "wallet block state changed",
		"user_id", userID.String(),
		"blocked", blocked,
		"admin_id", actor.ID.String(),
	)

	if err := s.publisher.Publish(ctx, userID, EventWalletUpdated, UpdateEvent{Wallet: w}); err != nil {
		logger.LogWarn(ctx, "failed to publish wallet event", "user_id", userID.String(), "error", err.Error())
	}
	return w, nil
}
