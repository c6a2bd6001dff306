package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

const prizeRequester = "leaderboard-prizes"

// PrizeService pays leaderboard prizes out of the platform Prize wallet.
type PrizeService struct {
	ledger  *Ledger
	locker  Locker
	lockTTL time.Duration
}

func NewPrizeService(ledger *Ledger, locker Locker, lockTTL time.Duration) *PrizeService {
	return &PrizeService{ledger: ledger, locker: locker, lockTTL: lockTTL}
}

// PayOut credits a prize to the user's Withdrawable account. leaderboardRef is kept
// as the external reference of the transfer.
func (s *PrizeService) PayOut(
	ctx context.Context,
	userID uuid.UUID,
	amount decimal.Decimal,
	currency, leaderboardRef string,
) (*models.WalletEntry, error) {
	entry, err := WithLock(ctx, s.locker, UserLockKey(userID), s.lockTTL, func(ctx context.Context) (*models.WalletEntry, error) {
		return s.ledger.Transfer(amount, currency).
			Purpose(models.PurposePayOut).
			RequestedBy(models.RequesterSystem, prizeRequester).
			ExternalRef(leaderboardRef).
			Memo("leaderboard prize").
			FromPlatform(models.WalletPrize).
			ToUser(userID, models.AccountWithdrawable).
			Commit(ctx)
	})
	if err != nil {
		logger.Log.Errorw("prize payout failed", "user_id", userID, "leaderboard", leaderboardRef, "error", err)
		return nil, err
	}

	logger.Log.Infow("prize paid out", "user_id", userID, "leaderboard", leaderboardRef, "amount", amount, "currency", currency)
	return entry, nil
}
