package logic

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/google/uuid"
	"github.com/pqlammy/Gennerweb-sub000/internal/logger"
	"github.com/pqlammy/Gennerweb-sub000/internal/model"
	"gorm.io/gorm"
)

const (
	settlementCodeLength = 10
	settlementCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts      = 10
)

// SettlementLogic 结算业务逻辑 bundles a member's unpaid contributions into
// one batch payment announcement under a shared code.
type SettlementLogic struct {
	db      *gorm.DB
	contrib *ContributionLogic

	// newCode is swapped out by tests to force collisions.
	newCode func() (string, error)
}

// NewSettlementLogic creates the settlement business logic.
func NewSettlementLogic(db *gorm.DB, key []byte) *SettlementLogic {
	return &SettlementLogic{
		db:      db,
		contrib: NewContributionLogic(db, key),
		newCode: generateSettlementCode,
	}
}

// CreateSettlement validates that every id belongs to the requesting member
// and is still unpaid, then atomically moves all of them to the pending state
// of the chosen method under one freshly generated code. Any precondition
// failure rejects the whole batch; nothing is modified.
func (l *SettlementLogic) CreateSettlement(userID uint, ids []string, method model.PaymentMethod) (*model.Settlement, []model.Contribution, error) {
	if !method.Valid() {
		return nil, nil, &ValidationError{Field: "payment_method", Message: "payment method must be twint or cash"}
	}
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return nil, nil, &ValidationError{Field: "ids", Message: "no contribution ids given"}
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return nil, nil, &ValidationError{Field: "ids", Message: "malformed contribution id: " + id}
		}
	}

	pendingStatus, err := model.StatusFor(method, model.PhasePending)
	if err != nil {
		return nil, nil, err
	}

	var settlement model.Settlement
	err = l.db.Transaction(func(tx *gorm.DB) error {
		var records []model.Contribution
		if err := tx.Where("id IN ?", ids).Find(&records).Error; err != nil {
			return err
		}
		if missing := missingIDs(ids, records); len(missing) > 0 {
			return &BatchError{IneligibleIDs: missing, Reason: "unknown contributions"}
		}

		var ineligible []string
		total := 0.0
		for _, r := range records {
			if r.UserID != userID || r.PaymentStatus != model.PaymentStatusUnpaid {
				ineligible = append(ineligible, r.ID)
				continue
			}
			total += r.Amount
		}
		if len(ineligible) > 0 {
			return &BatchError{IneligibleIDs: ineligible, Reason: "contributions not settleable"}
		}

		code, err := l.insertSettlementRow(tx, userID, method, len(records), total)
		if err != nil {
			return err
		}

		result := tx.Model(&model.Contribution{}).
			Where("id IN ? AND user_id = ? AND payment_status = ?", ids, userID, model.PaymentStatusUnpaid).
			Updates(map[string]interface{}{
				"payment_status":  pendingStatus,
				"settlement_code": code,
				"paid":            false,
			})
		if result.Error != nil {
			return result.Error
		}
		// a concurrent writer may have raced us between the read and the
		// update; refuse to commit a half batch
		if result.RowsAffected != int64(len(ids)) {
			return &BatchError{IneligibleIDs: ids, Reason: "contributions changed concurrently"}
		}

		return tx.Where("code = ?", code).First(&settlement).Error
	})
	if err != nil {
		return nil, nil, err
	}

	var records []model.Contribution
	if err := l.db.Where("settlement_code = ?", settlement.Code).Find(&records).Error; err != nil {
		return nil, nil, err
	}
	for i := range records {
		l.contrib.decryptPII(&records[i])
	}
	return &settlement, records, nil
}

// GetByCode returns a settlement and its contributions, decrypted.
func (l *SettlementLogic) GetByCode(code string) (*model.Settlement, []model.Contribution, error) {
	var settlement model.Settlement
	if err := l.db.Where("code = ?", code).First(&settlement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	var records []model.Contribution
	if err := l.db.Where("settlement_code = ?", code).Find(&records).Error; err != nil {
		return nil, nil, err
	}
	for i := range records {
		l.contrib.decryptPII(&records[i])
	}
	return &settlement, records, nil
}

// insertSettlementRow generates codes until one inserts cleanly. The unique
// index on settlements.code catches the race between the existence check and
// the insert; the violation rolls back to a savepoint and the loop retries
// with a fresh code instead of surfacing the conflict.
func (l *SettlementLogic) insertSettlementRow(tx *gorm.DB, userID uint, method model.PaymentMethod, count int, total float64) (string, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := l.newCode()
		if err != nil {
			return "", err
		}

		var existing int64
		if err := tx.Model(&model.Settlement{}).Where("code = ?", code).Count(&existing).Error; err != nil {
			return "", err
		}
		if existing > 0 {
			logger.Debug("settlement code collision on attempt %d, regenerating", attempt)
			continue
		}

		row := &model.Settlement{
			Code:              code,
			UserID:            userID,
			PaymentMethod:     method,
			ContributionCount: count,
			TotalAmount:       total,
		}
		// nested transaction = savepoint, so a duplicate key violation does
		// not poison the outer transaction
		err = tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(row).Error
		})
		if err == nil {
			return code, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Debug("settlement code write conflict on attempt %d, regenerating", attempt)
			continue
		}
		return "", err
	}
	return "", &SettlementConflictError{Attempts: maxCodeAttempts}
}

// generateSettlementCode produces a 10-character uppercase alphanumeric code
// from a cryptographically random source.
func generateSettlementCode() (string, error) {
	code := make([]byte, settlementCodeLength)
	max := big.NewInt(int64(len(settlementCodeChars)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = settlementCodeChars[n.Int64()]
	}
	return string(code), nil
}
