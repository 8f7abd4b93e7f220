package logic

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/pqlammy/Gennerweb-sub000/internal/config"
	"github.com/pqlammy/Gennerweb-sub000/internal/crypto"
	"github.com/pqlammy/Gennerweb-sub000/internal/model"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContributionLogic 会费业务逻辑 owns contribution validation, transparent PII
// encryption and the payment status transitions.
type ContributionLogic struct {
	db  *gorm.DB
	key []byte
}

// NewContributionLogic creates the contribution business logic.
func NewContributionLogic(db *gorm.DB, key []byte) *ContributionLogic {
	return &ContributionLogic{db: db, key: key}
}

// ContributionInput is what a member submits from the form.
type ContributionInput struct {
	Amount        float64             `json:"amount"`
	FirstName     string              `json:"first_name"`
	LastName      string              `json:"last_name"`
	Email         string              `json:"email"`
	Address       string              `json:"address"`
	City          string              `json:"city"`
	PostalCode    string              `json:"postal_code"`
	Phone         string              `json:"phone"`
	GennervogtID  *uint               `json:"gennervogt_id"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
}

// ContributionUpdate is the full admin edit, including the trusted status and
// settlement fields.
type ContributionUpdate struct {
	ContributionInput
	PaymentStatus  model.PaymentStatus `json:"payment_status"`
	SettlementCode *string             `json:"settlement_code"`
}

// Create validates the input against the field policy, encrypts the PII and
// inserts the row. New contributions always start unpaid.
func (l *ContributionLogic) Create(userID uint, in *ContributionInput, policy config.FieldPolicy) (*model.Contribution, error) {
	if err := validateContribution(in, policy); err != nil {
		return nil, err
	}

	record := &model.Contribution{
		UserID:        userID,
		Amount:        in.Amount,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		Address:       in.Address,
		City:          in.City,
		PostalCode:    in.PostalCode,
		Phone:         in.Phone,
		GennervogtID:  in.GennervogtID,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: model.PaymentStatusUnpaid,
		Paid:          false,
	}
	if err := l.encryptPII(record); err != nil {
		return nil, err
	}
	if err := l.db.Create(record).Error; err != nil {
		return nil, err
	}

	l.decryptPII(record)
	return record, nil
}

// List returns every contribution, decrypted. Admin path.
func (l *ContributionLogic) List() ([]model.Contribution, error) {
	var records []model.Contribution
	if err := l.db.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		l.decryptPII(&records[i])
	}
	return records, nil
}

// ListByUser returns the contributions recorded by one member, decrypted.
func (l *ContributionLogic) ListByUser(userID uint) ([]model.Contribution, error) {
	var records []model.Contribution
	if err := l.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		l.decryptPII(&records[i])
	}
	return records, nil
}

// Get returns one contribution by id, decrypted.
func (l *ContributionLogic) Get(id string) (*model.Contribution, error) {
	var record model.Contribution
	if err := l.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l.decryptPII(&record)
	return &record, nil
}

// Update applies a full admin edit. The trusted path may set any of the five
// payment states directly; the settlement code is force-cleared whenever the
// resulting state is unpaid.
func (l *ContributionLogic) Update(id string, in *ContributionUpdate, policy config.FieldPolicy) (*model.Contribution, error) {
	if err := validateContribution(&in.ContributionInput, policy); err != nil {
		return nil, err
	}
	if !in.PaymentStatus.Valid() {
		return nil, &ValidationError{Field: "payment_status", Message: "unknown payment status"}
	}

	var record model.Contribution
	if err := l.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	record.Amount = in.Amount
	record.FirstName = in.FirstName
	record.LastName = in.LastName
	record.Email = in.Email
	record.Address = in.Address
	record.City = in.City
	record.PostalCode = in.PostalCode
	record.Phone = in.Phone
	record.GennervogtID = in.GennervogtID
	record.PaymentMethod = in.PaymentMethod
	record.PaymentStatus = in.PaymentStatus
	record.SettlementCode = in.SettlementCode
	record.Paid = in.PaymentStatus.Paid()
	if record.PaymentStatus == model.PaymentStatusUnpaid {
		record.SettlementCode = nil
	}

	if err := l.encryptPII(&record); err != nil {
		return nil, err
	}
	if err := l.db.Save(&record).Error; err != nil {
		return nil, err
	}

	l.decryptPII(&record)
	return &record, nil
}

// TogglePayment applies the one-click status cycle:
// pending -> paid of the same method, paid -> unpaid, anything else -> paid
// of the contribution's method. Reverting to unpaid clears the settlement code.
func (l *ContributionLogic) TogglePayment(id string) (*model.Contribution, error) {
	var record model.Contribution
	if err := l.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var next model.PaymentStatus
	switch record.PaymentStatus {
	case model.PaymentStatusTwintPending:
		next = model.PaymentStatusTwintPaid
	case model.PaymentStatusCashPending:
		next = model.PaymentStatusCashPaid
	case model.PaymentStatusTwintPaid, model.PaymentStatusCashPaid:
		next = model.PaymentStatusUnpaid
	default:
		status, err := model.StatusFor(record.PaymentMethod, model.PhasePaid)
		if err != nil {
			return nil, err
		}
		next = status
	}

	updates := map[string]interface{}{
		"payment_status": next,
		"paid":           next.Paid(),
	}
	if next == model.PaymentStatusUnpaid {
		updates["settlement_code"] = nil
	}
	if err := l.db.Model(&record).Updates(updates).Error; err != nil {
		return nil, err
	}

	l.decryptPII(&record)
	return &record, nil
}

// BulkMarkPaid forces every listed contribution to the paid state matching its
// own payment method, independent of its prior state. All-or-nothing.
func (l *ContributionLogic) BulkMarkPaid(ids []string) ([]model.Contribution, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "ids", Message: "no contribution ids given"}
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		var records []model.Contribution
		if err := tx.Where("id IN ?", ids).Find(&records).Error; err != nil {
			return err
		}
		if missing := missingIDs(ids, records); len(missing) > 0 {
			return &BatchError{IneligibleIDs: missing, Reason: "unknown contributions"}
		}

		for _, method := range []model.PaymentMethod{model.PaymentMethodTwint, model.PaymentMethodCash} {
			status, err := model.StatusFor(method, model.PhasePaid)
			if err != nil {
				return err
			}
			if err := tx.Model(&model.Contribution{}).
				Where("id IN ? AND payment_method = ?", ids, method).
				Updates(map[string]interface{}{"payment_status": status, "paid": true}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var records []model.Contribution
	if err := l.db.Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		l.decryptPII(&records[i])
	}
	return records, nil
}

// Delete removes one contribution. Hard delete, admin path.
func (l *ContributionLogic) Delete(id string) error {
	result := l.db.Delete(&model.Contribution{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkDelete removes several contributions at once.
func (l *ContributionLogic) BulkDelete(ids []string) (int64, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return 0, &ValidationError{Field: "ids", Message: "no contribution ids given"}
	}
	result := l.db.Delete(&model.Contribution{}, "id IN ?", ids)
	return result.RowsAffected, result.Error
}

// validateContribution checks the input against the per-deployment field
// policy. Hidden fields are coerced to empty before any other rule runs.
func validateContribution(in *ContributionInput, policy config.FieldPolicy) error {
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "amount must be a positive number"}
	}
	if !in.PaymentMethod.Valid() {
		return &ValidationError{Field: "payment_method", Message: "payment method must be twint or cash"}
	}

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.FirstName == "" {
		return &ValidationError{Field: "first_name", Message: "first name is required"}
	}
	if in.LastName == "" {
		return &ValidationError{Field: "last_name", Message: "last name is required"}
	}

	fields := []struct {
		name  string
		mode  config.FieldMode
		value *string
	}{
		{"email", policy.Email, &in.Email},
		{"address", policy.Address, &in.Address},
		{"city", policy.City, &in.City},
		{"postal_code", policy.PostalCode, &in.PostalCode},
		{"phone", policy.Phone, &in.Phone},
	}
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if f.mode == config.FieldHidden {
			*f.value = ""
			continue
		}
		if f.mode == config.FieldRequired && *f.value == "" {
			return &ValidationError{Field: f.name, Message: f.name + " is required"}
		}
	}
	if policy.Email != config.FieldHidden && in.Email != "" && !emailPattern.MatchString(in.Email) {
		return &ValidationError{Field: "email", Message: "invalid email address"}
	}
	return nil
}

func (l *ContributionLogic) encryptPII(record *model.Contribution) error {
	fields := []*string{
		&record.FirstName, &record.LastName, &record.Email,
		&record.Address, &record.City, &record.PostalCode, &record.Phone,
	}
	for _, f := range fields {
		envelope, err := crypto.Encrypt(*f, l.key)
		if err != nil {
			return err
		}
		*f = envelope
	}
	return nil
}

func (l *ContributionLogic) decryptPII(record *model.Contribution) {
	fields := []*string{
		&record.FirstName, &record.LastName, &record.Email,
		&record.Address, &record.City, &record.PostalCode, &record.Phone,
	}
	for _, f := range fields {
		*f = crypto.Decrypt(*f, l.key)
	}
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []string, records []model.Contribution) []string {
	found := make(map[string]struct{}, len(records))
	for _, r := range records {
		found[r.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
