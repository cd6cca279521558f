package fms

import (
	"sync"
	"time"

	"github.com/ericlagergren/decimal"

	"github.com/qgatssdev/nika/model"
)

type walletKey struct {
	userID uint64
	token  model.TokenType
}

// walletEntry is replaced on every change and never mutated in place
type walletEntry struct {
	id        uint64
	balance   *decimal.Big
	claimed   *decimal.Big
	createdAt time.Time
	updatedAt time.Time
}

type sequences struct {
	user       uint64
	referral   uint64
	wallet     uint64
	commission uint64
	claim      uint64
}

// state is a snapshot of the whole ledger. A transaction works on a shallow copy
// and publishes it on commit; stored values are replaced instead of being updated.
type state struct {
	users       map[uint64]*model.User
	emails      map[string]uint64
	codes       map[string]uint64
	referrals   []*model.Referral
	referees    map[uint64]struct{}
	wallets     map[walletKey]*walletEntry
	commissions []*model.Commission
	claims      []*model.Claim
	seq         sequences
}

// FundsEngine is an in-memory implementation of the ledger store.
// Transactions are serialized and see a private copy of the state until they commit.
type FundsEngine struct {
	txLock    *sync.Mutex
	stateLock *sync.RWMutex
	state     *state
	now       func() time.Time
}

// ledgerTx binds store operations to a transaction snapshot
type ledgerTx struct {
	engine *FundsEngine
	state  *state
}
