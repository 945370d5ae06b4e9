package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Schema is the ledger's table layout. Production databases are migrated
// out of band; ApplySchema exists for local setups and integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id           UUID PRIMARY KEY,
	name         VARCHAR(50)  NOT NULL,
	phone        VARCHAR(20)  NOT NULL,
	password_hash TEXT        NOT NULL,
	role         VARCHAR(20)  NOT NULL,
	status       VARCHAR(20)  NOT NULL DEFAULT 'ACTIVE',
	is_verified  BOOLEAN      NOT NULL DEFAULT FALSE,
	is_approved  BOOLEAN      NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ  NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ  NOT NULL DEFAULT now(),
	CONSTRAINT users_phone_key UNIQUE (phone)
);

CREATE TABLE IF NOT EXISTS wallets (
	id                  UUID PRIMARY KEY,
	user_id             UUID        NOT NULL REFERENCES users(id),
	balance             BIGINT      NOT NULL,
	is_blocked          BOOLEAN     NOT NULL DEFAULT FALSE,
	deposit_used        BIGINT      NOT NULL DEFAULT 0,
	deposit_cap         BIGINT      NOT NULL,
	deposit_reset_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	withdrawal_used     BIGINT      NOT NULL DEFAULT 0,
	withdrawal_cap      BIGINT      NOT NULL,
	withdrawal_reset_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	send_used           BIGINT      NOT NULL DEFAULT 0,
	send_cap            BIGINT      NOT NULL,
	send_reset_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT wallets_user_id_key UNIQUE (user_id),
	CONSTRAINT wallets_balance_check CHECK (balance >= 0)
);

CREATE TABLE IF NOT EXISTS transactions (
	id          UUID PRIMARY KEY,
	reference   VARCHAR(40)  NOT NULL,
	sender_id   UUID         NOT NULL REFERENCES users(id),
	receiver_id UUID         NOT NULL REFERENCES users(id),
	amount      BIGINT       NOT NULL,
	fee         BIGINT       NOT NULL DEFAULT 0,
	commission  BIGINT       NOT NULL DEFAULT 0,
	type        VARCHAR(20)  NOT NULL,
	status      VARCHAR(20)  NOT NULL,
	description VARCHAR(200) NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
	CONSTRAINT transactions_reference_key UNIQUE (reference),
	CONSTRAINT transactions_amount_check CHECK (amount > 0 OR (type = 'COMMISSION' AND amount >= 0))
);

CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions (sender_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_receiver ON transactions (receiver_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions (type, created_at DESC);
`

// ApplySchema creates missing tables and indexes.
func ApplySchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
