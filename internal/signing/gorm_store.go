package signing

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"laborpay-system/internal/database/models"
)

// GormStore implements Store on the relational schema.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindReportByToken(ctx context.Context, token string) (*models.LaborReport, error) {
	var report models.LaborReport
	err := s.db.WithContext(ctx).
		Preload("Company").
		Preload("Contact").
		Where("sign_token = ?", token).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("find report by token: %w", err)
	}
	return &report, nil
}

// UpsertContactByIDNumber creates or overwrites the contact for the
// given national ID within the company. The ON CONFLICT clause rides
// on the (company_id, id_number) unique index, so two first-time
// submissions for the same person collapse into one row.
func (s *GormStore) UpsertContactByIDNumber(ctx context.Context, companyID int64, sub Submission) (int64, error) {
	contact := models.LaborContact{
		CompanyID:      companyID,
		Name:           sub.Name,
		IDNumber:       sub.IDNumber,
		Phone:          sub.Phone,
		Email:          sub.Email,
		Address:        sub.Address,
		BankName:       sub.BankName,
		BankBranch:     sub.BankBranch,
		BankAccount:    sub.BankAccount,
		IsUnionMember:  sub.IsUnionMember,
		IDCardFrontURL: sub.IDCardFrontURL,
		IDCardBackURL:  sub.IDCardBackURL,
		BankBookURL:    sub.BankBookURL,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}, {Name: "id_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "phone", "email", "address",
			"bank_name", "bank_branch", "bank_account",
			"is_union_member",
			"id_card_front_url", "id_card_back_url", "bank_book_url",
			"updated_at",
		}),
	}).Create(&contact).Error
	if err != nil {
		return 0, err
	}

	if contact.ID == 0 {
		// Some conflict paths do not report the row id back; re-read.
		var existing models.LaborContact
		err := s.db.WithContext(ctx).
			Where("company_id = ? AND id_number = ?", companyID, sub.IDNumber).
			First(&existing).Error
		if err != nil {
			return 0, err
		}
		contact.ID = existing.ID
	}
	return contact.ID, nil
}

// MarkSigned flips the report to signed only if it is still pending.
// A zero-row update means the precondition failed; the current status
// is re-read to report why.
func (s *GormStore) MarkSigned(ctx context.Context, reportID int64, fields SignedFields) error {
	res := s.db.WithContext(ctx).
		Model(&models.LaborReport{}).
		Where("id = ? AND status = ?", reportID, models.StatusPending).
		Updates(map[string]interface{}{
			"contact_id":         fields.ContactID,
			"payee_name":         fields.PayeeName,
			"payee_id_number":    fields.PayeeIDNumber,
			"payee_address":      fields.PayeeAddress,
			"payee_bank_name":    fields.PayeeBankName,
			"payee_bank_account": fields.PayeeBankAccount,
			"status":             models.StatusSigned,
			"signature_data":     fields.SignatureData,
			"signed_at":          fields.SignedAt,
			"signed_ip":          fields.SignedIP,
		})
	if res.Error != nil {
		return fmt.Errorf("mark signed: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var current models.LaborReport
	err := s.db.WithContext(ctx).Select("status").First(&current, reportID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrTokenNotFound
	case err != nil:
		return fmt.Errorf("mark signed: %w", err)
	case current.Status == models.StatusSigned:
		return ErrAlreadySigned
	case current.Status == models.StatusCancelled:
		return ErrCancelled
	}
	return ErrConflictingUpdate
}
