package wallet

import "github.com/mcash/mcash-api/internal/pkg/money"

type DepositRequest struct {
	Amount money.Amount `json:"amount" validate:"required,money_min=10,money_max=50000"`
}

type WithdrawRequest struct {
	Amount money.Amount `json:"amount" validate:"required,money_min=10,money_max=25000"`
}

type SendMoneyRequest struct {
	ReceiverPhone string       `json:"receiver_phone" validate:"required,bdphone"`
	Amount        money.Amount `json:"amount" validate:"required,money_min=10,money_max=25000"`
}

type CashInRequest struct {
	UserPhone string       `json:"user_phone" validate:"required,bdphone"`
	Amount    money.Amount `json:"amount" validate:"required,money_min=50,money_max=100000"`
}

type CashOutRequest struct {
	AgentPhone string       `json:"agent_phone" validate:"required,bdphone"`
	Amount     money.Amount `json:"amount" validate:"required,money_min=10,money_max=100000"`
}
