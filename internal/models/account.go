package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OwnerType tells whether an account belongs to a user or to the platform itself.
type OwnerType string

const (
	OwnerUser     OwnerType = "USER"
	OwnerPlatform OwnerType = "PLATFORM"
)

// AmountScale is the number of decimal places kept for balances and entry amounts.
const AmountScale = 4

// PlatformOwnerID is the owner id stored on every platform wallet.
var PlatformOwnerID = uuid.Nil

// User account names
const (
	AccountWithdrawable = "Withdrawable"
	AccountEscrow       = "Escrow"
	AccountDiamonds     = "Diamonds"
	AccountSubscription = "Subscription"
)

// Platform wallet names
const (
	WalletCorporate   = "Corporate"
	WalletPrize       = "Prize"
	WalletPayPal      = "PayPal"
	WalletChargify    = "Chargify"
	WalletTrustly     = "Trustly"
	WalletSkrill      = "Skrill"
	WalletPaymentwall = "Paymentwall"
	WalletUnipaas     = "Unipaas"
)

// DefaultUserAccounts are opened for every user on onboarding.
var DefaultUserAccounts = []string{
	AccountWithdrawable,
	AccountEscrow,
	AccountDiamonds,
	AccountSubscription,
}

// ProviderWallets mirror money held by external payment providers and may go negative.
var ProviderWallets = []string{
	WalletPayPal,
	WalletChargify,
	WalletTrustly,
	WalletSkrill,
	WalletPaymentwall,
	WalletUnipaas,
}

// IsProviderWallet reports whether name is one of the payment provider platform wallets.
func IsProviderWallet(name string) bool {
	for _, w := range ProviderWallets {
		if w == name {
			return true
		}
	}
	return false
}

// WalletAccount represents a named balance bucket in the database
type WalletAccount struct {
	ID            uuid.UUID       `json:"id" db:"id"`                         // Account identifier
	OwnerType     OwnerType       `json:"owner_type" db:"owner_type"`         // USER or PLATFORM
	OwnerID       uuid.UUID       `json:"owner_id" db:"owner_id"`             // User id, uuid.Nil for platform wallets
	Name          string          `json:"name" db:"name"`                     // Semantic bucket, e.g. Withdrawable or PayPal
	CurrencyCode  string          `json:"currency_code" db:"currency_code"`   // ISO currency code
	Balance       decimal.Decimal `json:"balance" db:"balance"`               // Current balance
	AllowNegative bool            `json:"allow_negative" db:"allow_negative"` // Whether debits may push the balance below zero
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// CanAbsorb reports whether applying delta keeps the account within its balance invariant.
func (a *WalletAccount) CanAbsorb(delta decimal.Decimal) bool {
	return a.AllowNegative || !a.Balance.Add(delta).IsNegative()
}
