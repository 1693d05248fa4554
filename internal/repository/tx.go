package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	ledgerDomain "github.com/tourhub/service-booking/internal/domain/ledger"
)

type txKey struct{}

// txState is the transaction carried by ctx together with the ledger entries
// currently locked by it.
type txState struct {
	tx      *gorm.DB
	ledgers map[uuid.UUID]*ledgerDomain.Entry
}

// inTx runs fn inside a transaction, joining the one already carried by ctx
// if there is one.
func inTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if st := stateFromContext(ctx); st != nil {
		return fn(ctx, st.tx.WithContext(ctx))
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := &txState{tx: tx, ledgers: make(map[uuid.UUID]*ledgerDomain.Entry)}
		return fn(context.WithValue(ctx, txKey{}, st), tx)
	})
}

func stateFromContext(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

func txFromContext(ctx context.Context) *gorm.DB {
	if st := stateFromContext(ctx); st != nil {
		return st.tx
	}
	return nil
}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
