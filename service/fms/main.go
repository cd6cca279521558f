package fms

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qgatssdev/nika/model"
	"github.com/qgatssdev/nika/queries"
)

var _ queries.Store = (*FundsEngine)(nil)
var _ queries.Store = (*ledgerTx)(nil)

// Init creates an empty in-memory ledger
func Init() *FundsEngine {
	return &FundsEngine{
		txLock:    &sync.Mutex{},
		stateLock: &sync.RWMutex{},
		state:     newState(),
		now:       time.Now,
	}
}

func newState() *state {
	return &state{
		users:    map[uint64]*model.User{},
		emails:   map[string]uint64{},
		codes:    map[string]uint64{},
		referees: map[uint64]struct{}{},
		wallets:  map[walletKey]*walletEntry{},
	}
}

func (s *state) clone() *state {
	next := &state{
		users:       make(map[uint64]*model.User, len(s.users)),
		emails:      make(map[string]uint64, len(s.emails)),
		codes:       make(map[string]uint64, len(s.codes)),
		referees:    make(map[uint64]struct{}, len(s.referees)),
		wallets:     make(map[walletKey]*walletEntry, len(s.wallets)),
		referrals:   append(s.referrals[:0:0], s.referrals...),
		commissions: append(s.commissions[:0:0], s.commissions...),
		claims:      append(s.claims[:0:0], s.claims...),
		seq:         s.seq,
	}
	for k, v := range s.users {
		next.users[k] = v
	}
	for k, v := range s.emails {
		next.emails[k] = v
	}
	for k, v := range s.codes {
		next.codes[k] = v
	}
	for k, v := range s.referees {
		next.referees[k] = v
	}
	for k, v := range s.wallets {
		next.wallets[k] = v
	}
	return next
}

// Transaction runs fn on a private copy of the ledger and publishes it only when fn succeeds
func (fe *FundsEngine) Transaction(ctx context.Context, fn func(tx queries.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fe.txLock.Lock()
	defer fe.txLock.Unlock()

	fe.stateLock.RLock()
	work := fe.state.clone()
	fe.stateLock.RUnlock()

	if err := fn(&ledgerTx{engine: fe, state: work}); err != nil {
		log.Debug().Err(err).Str("section", "FMS").Msg("Transaction rolled back")
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fe.stateLock.Lock()
	fe.state = work
	fe.stateLock.Unlock()
	return nil
}

// Transaction on an open transaction joins it
func (tx *ledgerTx) Transaction(ctx context.Context, fn func(tx queries.Store) error) error {
	return fn(tx)
}

// view runs a read on the committed state
func view[T any](fe *FundsEngine, fn func(tx *ledgerTx) (T, error)) (T, error) {
	fe.stateLock.RLock()
	defer fe.stateLock.RUnlock()
	return fn(&ledgerTx{engine: fe, state: fe.state})
}

// update runs a single write as its own transaction
func update[T any](ctx context.Context, fe *FundsEngine, fn func(tx *ledgerTx) (T, error)) (T, error) {
	var out T
	err := fe.Transaction(ctx, func(tx queries.Store) error {
		var err error
		out, err = fn(tx.(*ledgerTx))
		return err
	})
	return out, err
}
