package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/silverpine/guildbank/internal/domain"
)

// transactionModel is the persisted row shape. Each denomination gets its
// own column so the table stays readable with plain SQL tooling. The id is
// AUTOINCREMENT, which SQLite guarantees never to hand out twice even after
// the newest rows are deleted.
type transactionModel struct {
	ID              int64 `gorm:"primaryKey;autoIncrement"`
	Timestamp       time.Time
	ActorID         int64
	SenderAccount   int64 `gorm:"index"`
	ReceiverAccount int64 `gorm:"index"`
	Platinum        int64
	Gold            int64
	Electrum        int64
	Silver          int64
	Copper          int64
	Description     string
	Confirmed       bool `gorm:"index"`
}

func (transactionModel) TableName() string {
	return "transactions"
}

// LedgerRepository persists the ledger in a SQLite file through GORM.
// Writes are serialized through a mutex so concurrent callers never trip
// over SQLite's single-writer locking.
type LedgerRepository struct {
	mu sync.Mutex
	db *gorm.DB
}

// Open opens or creates the SQLite database at path and migrates the
// transactions table.
func Open(path string) (*LedgerRepository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.AutoMigrate(&transactionModel{}); err != nil {
		return nil, fmt.Errorf("migrate transactions table: %w", err)
	}
	return &LedgerRepository{db: db}, nil
}

func (r *LedgerRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *LedgerRepository) Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	model := toModel(tx)
	model.ID = 0
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return toDomain(model), nil
}

func (r *LedgerRepository) GetByID(ctx context.Context, id int64) (domain.Transaction, error) {
	var model transactionModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Transaction{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("select transaction: %w", err)
	}
	return toDomain(model), nil
}

func (r *LedgerRepository) Query(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&transactionModel{})
	if filter.ReceiverAccount != nil {
		query = query.Where("receiver_account = ?", *filter.ReceiverAccount)
	}
	if filter.Confirmed != nil {
		query = query.Where("confirmed = ?", *filter.Confirmed)
	}

	var models []transactionModel
	if err := query.Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	return toDomainSlice(models), nil
}

func (r *LedgerRepository) Range(ctx context.Context, receiverAccount int64, offset, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		return nil, nil
	}

	var models []transactionModel
	err := r.db.WithContext(ctx).
		Where("receiver_account = ?", receiverAccount).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	return toDomainSlice(models), nil
}

func (r *LedgerRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&transactionModel{}).Error
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Confirm(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.db.WithContext(ctx).
		Model(&transactionModel{}).
		Where("id = ?", id).
		Update("confirmed", true)
	if res.Error != nil {
		return fmt.Errorf("update transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toModel(tx domain.Transaction) transactionModel {
	return transactionModel{
		ID:              tx.ID,
		Timestamp:       tx.Timestamp,
		ActorID:         tx.ActorID,
		SenderAccount:   tx.SenderAccount,
		ReceiverAccount: tx.ReceiverAccount,
		Platinum:        tx.Amounts[domain.Platinum],
		Gold:            tx.Amounts[domain.Gold],
		Electrum:        tx.Amounts[domain.Electrum],
		Silver:          tx.Amounts[domain.Silver],
		Copper:          tx.Amounts[domain.Copper],
		Description:     tx.Description,
		Confirmed:       tx.Confirmed,
	}
}

func toDomain(model transactionModel) domain.Transaction {
	var amounts domain.Amounts
	amounts[domain.Platinum] = model.Platinum
	amounts[domain.Gold] = model.Gold
	amounts[domain.Electrum] = model.Electrum
	amounts[domain.Silver] = model.Silver
	amounts[domain.Copper] = model.Copper

	return domain.Transaction{
		ID:              model.ID,
		Timestamp:       model.Timestamp,
		ActorID:         model.ActorID,
		SenderAccount:   model.SenderAccount,
		ReceiverAccount: model.ReceiverAccount,
		Amounts:         amounts,
		Description:     model.Description,
		Confirmed:       model.Confirmed,
	}
}

func toDomainSlice(models []transactionModel) []domain.Transaction {
	if len(models) == 0 {
		return nil
	}
	out := make([]domain.Transaction, 0, len(models))
	for _, model := range models {
		out = append(out, toDomain(model))
	}
	return out
}
