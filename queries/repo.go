package queries

import (
	"context"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/qgatssdev/nika/config"
	"github.com/qgatssdev/nika/model"
)

// Store is the persistence boundary of the referral ledger.
// A Store handed to a Transaction callback runs every call inside that transaction.
type Store interface {
	// Transaction runs fn atomically: every write made through tx is committed when fn returns nil
	// and discarded otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	GetUser(ctx context.Context, userID uint64) (*model.User, error)
	GetUserForUpdate(ctx context.Context, userID uint64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	SetReferralCode(ctx context.Context, userID uint64, code string) (bool, error)
	SetReferrer(ctx context.Context, userID, referrerID uint64) (bool, error)
	UpdateUserOverrides(ctx context.Context, userID uint64, structure *model.CustomCommissionStructure, cashbackPercent, feeTier *float64) error
	// GetReferrerChain returns the ancestors of a user, nearest first, at most depth of them
	GetReferrerChain(ctx context.Context, userID uint64, depth int) ([]*model.User, error)
	// LockReferrerChain is GetReferrerChain holding a share lock on the user and every returned ancestor
	LockReferrerChain(ctx context.Context, userID uint64, depth int) ([]*model.User, error)

	CreateReferral(ctx context.Context, referral *model.Referral) error
	ListReferrals(ctx context.Context) ([]*model.Referral, error)

	SeedWallets(ctx context.Context, userID uint64, tokens []model.TokenType) error
	GetWallets(ctx context.Context, userID uint64) ([]*model.Wallet, error)
	IncrementWallet(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error
	// DecrementWallet subtracts the amount and floors the balance at zero
	DecrementWallet(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error
	// SettleClaim moves the amount from the available balance to the claimed amount
	SettleClaim(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error

	CreateCommission(ctx context.Context, commission *model.Commission) error
	// ClaimCommissions flips every unclaimed commission of the user in the token and returns the flipped rows
	ClaimCommissions(ctx context.Context, userID uint64, token model.TokenType) ([]*model.Commission, error)
	GetClaimable(ctx context.Context, userID uint64) ([]model.ClaimableAmount, error)
	ListCommissions(ctx context.Context, userID uint64, meta model.PagingMeta) ([]model.Commission, int64, error)

	CreateClaim(ctx context.Context, claim *model.Claim) error
	ListClaims(ctx context.Context, userID uint64, meta model.PagingMeta) ([]model.Claim, int64, error)
}

// Repo structure
type Repo struct {
	Conn       *gorm.DB
	ConnReader *gorm.DB
	inTx       bool
}

var _ Store = (*Repo)(nil)

// NewRepo wraps existing connections
func NewRepo(writer, reader *gorm.DB) *Repo {
	if reader == nil {
		reader = writer
	}
	return &Repo{Conn: writer, ConnReader: reader}
}

// Open connects to the writer and reader databases of the cluster
func Open(cfg config.DatabaseClusterConfig) (*Repo, error) {
	writer, err := connect(cfg.Writer)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to the writer database")
	}
	reader := writer
	if cfg.Reader.Host != "" && cfg.Reader.DSN() != cfg.Writer.DSN() {
		reader, err = connect(cfg.Reader)
		if err != nil {
			return nil, errors.Wrap(err, "unable to connect to the reader database")
		}
	}
	log.Info().Str("section", "queries").Str("host", cfg.Writer.Host).Str("database", cfg.Writer.Name).Msg("Connected to database")
	return NewRepo(writer, reader), nil
}

func connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 NewLogger(),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Close the database connections
func (repo *Repo) Close() {
	for _, conn := range []*gorm.DB{repo.Conn, repo.ConnReader} {
		if conn == nil {
			continue
		}
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// Transaction godoc
func (repo *Repo) Transaction(ctx context.Context, fn func(tx Store) error) (err error) {
	if repo.inTx {
		return fn(repo)
	}
	tx := repo.Conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "unable to start transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err = fn(&Repo{Conn: tx, ConnReader: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			log.Error().Err(rbErr).Str("section", "queries").Msg("Unable to rollback transaction")
		}
		return err
	}
	return errors.Wrap(tx.Commit().Error, "unable to commit transaction")
}

func (repo *Repo) writer(ctx context.Context) *gorm.DB {
	return repo.Conn.WithContext(ctx)
}

// reader reads from the replica outside of a transaction and from the transaction itself inside one
func (repo *Repo) reader(ctx context.Context) *gorm.DB {
	if repo.inTx || repo.ConnReader == nil {
		return repo.Conn.WithContext(ctx)
	}
	return repo.ConnReader.WithContext(ctx)
}
