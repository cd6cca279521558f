package service

import (
	"context"
	"errors"
	"sync"

	"github.com/ericlagergren/decimal"

	cache "github.com/qgatssdev/nika/cache/user_referrals"
	"github.com/qgatssdev/nika/config"
	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/model"
	"github.com/qgatssdev/nika/queries"
	"github.com/qgatssdev/nika/service/fms"
)

var errForced = errors.New("forced failure")

func testConfig() config.Config {
	return config.Config{
		Fee:            config.FeeConfig{DefaultRate: 0.01, DefaultCashback: 0.10},
		ReferralConfig: config.ReferralsConfig{L1: 0.30, L2: 0.03, L3: 0.02},
		Tokens:         []string{"USDT", "USDC", "ETH", "SOL", "BTC"},
	}
}

type publishedEvent struct {
	eventType string
	key       string
	payload   interface{}
	ctxErr    error
	deadline  bool
}

// recordingPublisher keeps every published event in memory
type recordingPublisher struct {
	lock   sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	_, deadline := ctx.Deadline()
	p.events = append(p.events, publishedEvent{eventType: eventType, key: key, payload: payload, ctxErr: ctx.Err(), deadline: deadline})
	return nil
}

func (p *recordingPublisher) Close() error {
	return nil
}

func (p *recordingPublisher) types() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	types := []string{}
	for _, event := range p.events {
		types = append(types, event.eventType)
	}
	return types
}

// failingStore fails the n-th call of a store method made inside a transaction
type failingStore struct {
	queries.Store
	method string
	failAt int
	calls  *int
}

func newFailingStore(store queries.Store, method string, failAt int) *failingStore {
	calls := 0
	return &failingStore{Store: store, method: method, failAt: failAt, calls: &calls}
}

func (s *failingStore) Transaction(ctx context.Context, fn func(tx queries.Store) error) error {
	return s.Store.Transaction(ctx, func(tx queries.Store) error {
		return fn(&failingStore{Store: tx, method: s.method, failAt: s.failAt, calls: s.calls})
	})
}

func (s *failingStore) fail(method string) bool {
	if method != s.method {
		return false
	}
	*s.calls++
	return *s.calls == s.failAt
}

func (s *failingStore) IncrementWallet(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error {
	if s.fail("IncrementWallet") {
		return errForced
	}
	return s.Store.IncrementWallet(ctx, userID, token, amount)
}

func (s *failingStore) CreateCommission(ctx context.Context, commission *model.Commission) error {
	if s.fail("CreateCommission") {
		return errForced
	}
	return s.Store.CreateCommission(ctx, commission)
}

func (s *failingStore) SettleClaim(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error {
	if s.fail("SettleClaim") {
		return errForced
	}
	return s.Store.SettleClaim(ctx, userID, token, amount)
}

func (s *failingStore) LockReferrerChain(ctx context.Context, userID uint64, depth int) ([]*model.User, error) {
	if s.fail("LockReferrerChain") {
		return nil, model.Conflict("concurrent update, retry")
	}
	return s.Store.LockReferrerChain(ctx, userID, depth)
}

func (s *failingStore) SeedWallets(ctx context.Context, userID uint64, tokens []model.TokenType) error {
	if s.fail("SeedWallets") {
		return errForced
	}
	return s.Store.SeedWallets(ctx, userID, tokens)
}

// cancelingStore cancels the request context as soon as a transaction commits
type cancelingStore struct {
	queries.Store
	cancel context.CancelFunc
}

func (s *cancelingStore) Transaction(ctx context.Context, fn func(tx queries.Store) error) error {
	err := s.Store.Transaction(ctx, fn)
	s.cancel()
	return err
}

type fixture struct {
	ctx       context.Context
	store     *fms.FundsEngine
	publisher *recordingPublisher
	service   *Service
}

func newFixture() *fixture {
	cache.SetAll(nil)
	store := fms.Init()
	publisher := &recordingPublisher{}
	return &fixture{
		ctx:       context.TODO(),
		store:     store,
		publisher: publisher,
		service:   NewService(testConfig(), store, publisher),
	}
}

// signup creates a user, optionally under the owner of code, and returns it
func (f *fixture) signup(email, code string) *model.User {
	result, err := f.service.Signup(f.ctx, &model.SignupRequest{
		Email:        email,
		Password:     "password123",
		FirstName:    "Test",
		LastName:     "User",
		ReferralCode: code,
	})
	if err != nil {
		panic(err)
	}
	return result.User
}

// chain signs up n users, each referred by the previous one
func (f *fixture) chain(n int) []*model.User {
	users := []*model.User{}
	code := ""
	for i := 0; i < n; i++ {
		user := f.signup("user"+string(rune('a'+i))+"@test.com", code)
		users = append(users, user)
		code = *user.ReferralCode
	}
	return users
}

func (f *fixture) balance(userID uint64, token model.TokenType) string {
	wallets, err := f.store.GetWallets(f.ctx, userID)
	if err != nil {
		panic(err)
	}
	for _, wallet := range wallets {
		if wallet.TokenType == token {
			return conv.Format(wallet.Balance.V)
		}
	}
	return "missing"
}

func (f *fixture) claimed(userID uint64, token model.TokenType) string {
	wallets, _ := f.store.GetWallets(f.ctx, userID)
	for _, wallet := range wallets {
		if wallet.TokenType == token {
			return conv.Format(wallet.ClaimedAmount.V)
		}
	}
	return "missing"
}

func amount(value string) *decimal.Big {
	d, ok := conv.Parse(value)
	if !ok {
		panic("invalid amount " + value)
	}
	return d
}

func float(value float64) *float64 {
	return &value
}
