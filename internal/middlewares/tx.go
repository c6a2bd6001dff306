package middlewares

import (
	"database/sql"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/transaction"
)

// ReadOnlyTxMiddleware runs the request inside one read-only repeatable-read
// transaction, so every query of a read endpoint sees the same snapshot.
// It must only wrap routes that never write.
func ReadOnlyTxMiddleware(db *sqlx.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tx, err := db.BeginTxx(r.Context(), &sql.TxOptions{
				Isolation: sql.LevelRepeatableRead,
				ReadOnly:  true,
			})
			if err != nil {
				logger.Log.Errorw("failed to begin read-only transaction", "error", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			defer func() {
				if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
					logger.Log.Errorw("failed to close read-only transaction", "error", err)
				}
			}()

			next.ServeHTTP(w, r.WithContext(transaction.WithTx(r.Context(), tx)))
		})
	}
}
