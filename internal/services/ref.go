package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

type refKind uint8

const (
	refUser refKind = iota + 1
	refPlatform
	refAccount
)

// AccountRef names a transfer leg's account without loading it.
// It is resolved to a concrete account when the transfer is committed.
type AccountRef struct {
	kind      refKind
	userID    uuid.UUID
	name      string
	accountID uuid.UUID
}

// UserAccount refers to the user's account with the given name in the transfer currency.
func UserAccount(userID uuid.UUID, name string) AccountRef {
	return AccountRef{kind: refUser, userID: userID, name: name}
}

// PlatformWallet refers to the platform wallet with the given name in the transfer currency.
func PlatformWallet(name string) AccountRef {
	return AccountRef{kind: refPlatform, name: name}
}

// AccountByID refers to a concrete account.
func AccountByID(id uuid.UUID) AccountRef {
	return AccountRef{kind: refAccount, accountID: id}
}

func (r AccountRef) String() string {
	switch r.kind {
	case refUser:
		return fmt.Sprintf("user %s/%s", r.userID, r.name)
	case refPlatform:
		return fmt.Sprintf("platform/%s", r.name)
	case refAccount:
		return fmt.Sprintf("account %s", r.accountID)
	default:
		return "empty account reference"
	}
}

// problem describes what is wrong with the reference, or returns "".
func (r AccountRef) problem() string {
	switch r.kind {
	case refUser:
		if r.userID == uuid.Nil {
			return "user account reference without user id"
		}
		if r.name == "" {
			return "user account reference without account name"
		}
	case refPlatform:
		if r.name == "" {
			return "platform wallet reference without wallet name"
		}
	case refAccount:
		if r.accountID == uuid.Nil {
			return "account reference without account id"
		}
	default:
		return "empty account reference"
	}
	return ""
}

// owner returns the owner type and id the reference resolves under.
func (r AccountRef) owner() (models.OwnerType, uuid.UUID) {
	if r.kind == refPlatform {
		return models.OwnerPlatform, models.PlatformOwnerID
	}
	return models.OwnerUser, r.userID
}
