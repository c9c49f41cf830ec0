package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/infrastructure/persistence/models"
)

// GormTransactionRepository implements TransactionRepository using GORM.
// Ledger rows are append only; the repository exposes no update or delete.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Save appends a transaction to the ledger
func (r *GormTransactionRepository) Save(ctx context.Context, txn *billing.Transaction) error {
	model := models.TransactionModelFromDomain(txn)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice finds all transactions linked to an invoice
func (r *GormTransactionRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*billing.Transaction, error) {
	var txnModels []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("date ASC").
		Find(&txnModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(txnModels), nil
}

// FindByProperty finds transactions for a property, newest first
func (r *GormTransactionRepository) FindByProperty(ctx context.Context, propertyID uuid.UUID, limit, offset int) ([]*billing.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var txnModels []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("date DESC").
		Limit(limit).
		Offset(offset).
		Find(&txnModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(txnModels), nil
}

// SumForInvoice calculates the total amount recorded against an invoice
func (r *GormTransactionRepository) SumForInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("invoice_id = ?", invoiceID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// CountForInvoice counts the transactions linked to an invoice
func (r *GormTransactionRepository) CountForInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateTransactionCode generates a unique transaction code with the given
// prefix
func (r *GormTransactionRepository) GenerateTransactionCode(ctx context.Context, prefix string) (string, error) {
	// Format: PFX-YYYYMMDD-XXXXX
	date := time.Now().Format("20060102")
	full := fmt.Sprintf("%s-%s-", prefix, date)

	// Find the highest code for today
	var maxCode string
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("code").
		Where("code LIKE ?", full+"%").
		Order("code DESC").
		Limit(1).
		Pluck("code", &maxCode).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxCode != "" {
		parts := strings.Split(maxCode, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", full, nextNum), nil
}

func toDomainTransactions(txnModels []models.TransactionModel) []*billing.Transaction {
	txns := make([]*billing.Transaction, len(txnModels))
	for i := range txnModels {
		txns[i] = txnModels[i].ToDomain()
	}
	return txns
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ billing.TransactionRepository = (*GormTransactionRepository)(nil)
