package signing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"laborpay-system/internal/database/models"
)

var (
	// ErrTokenNotFound means no report carries the given sign token.
	ErrTokenNotFound = errors.New("no report found for token")
	// ErrAlreadySigned means the token was valid but has been consumed.
	ErrAlreadySigned = errors.New("report already signed")
	// ErrCancelled means the report was cancelled and the link revoked.
	ErrCancelled = errors.New("report cancelled")
	// ErrConflictingUpdate means a concurrent sign attempt won the race.
	ErrConflictingUpdate = errors.New("conflicting sign update")
	// ErrValidation wraps missing/malformed submission fields, rejected
	// before any state change.
	ErrValidation = errors.New("validation failed")
)

// Store is the persistence boundary of the signing flow. MarkSigned
// must be conditional on the report still being pending so that
// concurrent sign attempts resolve to exactly one winner.
type Store interface {
	FindReportByToken(ctx context.Context, token string) (*models.LaborReport, error)
	UpsertContactByIDNumber(ctx context.Context, companyID int64, sub Submission) (int64, error)
	MarkSigned(ctx context.Context, reportID int64, fields SignedFields) error
}

// Submission is the payee's full sign payload.
type Submission struct {
	Name           string `json:"name"`
	IDNumber       string `json:"id_number"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	BankName       string `json:"bank_name"`
	BankBranch     string `json:"bank_branch"`
	BankAccount    string `json:"bank_account"`
	IsUnionMember  bool   `json:"is_union_member"`
	SignatureData  string `json:"signature_data"`
	IDCardFrontURL string `json:"id_card_front_url"`
	IDCardBackURL  string `json:"id_card_back_url"`
	BankBookURL    string `json:"bank_book_url"`
}

// SignedFields is everything the signed transition stamps onto the
// report: the payee snapshot, the contact link, signature and audit
// fields.
type SignedFields struct {
	ContactID        int64
	PayeeName        string
	PayeeIDNumber    string
	PayeeAddress     string
	PayeeBankName    string
	PayeeBankAccount string
	SignatureData    string
	SignedAt         time.Time
	SignedIP         string
}

// ResolveResult tells the client whether to render the short
// confirm-and-sign form (complete contact data on file) or the full
// data-collection form.
type ResolveResult struct {
	Report          *models.LaborReport
	HasContact      bool
	HasCompleteData bool
}

// Resolve looks up a report by its one-time token. Terminal reports
// never resolve: a consumed token fails with ErrAlreadySigned and a
// revoked one with ErrCancelled, without returning the underlying data.
func Resolve(ctx context.Context, store Store, token string) (ResolveResult, error) {
	report, err := store.FindReportByToken(ctx, token)
	if err != nil {
		return ResolveResult{}, err
	}

	switch report.Status {
	case models.StatusSigned:
		return ResolveResult{}, ErrAlreadySigned
	case models.StatusCancelled:
		return ResolveResult{}, ErrCancelled
	}

	hasContact := report.Contact != nil
	return ResolveResult{
		Report:          report,
		HasContact:      hasContact,
		HasCompleteData: hasContact && report.Contact.IsComplete(),
	}, nil
}

// Sign consumes a token: it upserts the payee's contact profile keyed
// by national ID, then flips the report to signed with the submitted
// snapshot. The re-resolve is mandatory even when the client already
// fetched the report, and the contact upsert happens before the status
// flip so a partial failure leaves the report pending and the whole
// call safely retriable with the same token.
func Sign(ctx context.Context, store Store, token string, sub Submission, signedIP string) (*models.LaborReport, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	report, err := store.FindReportByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	switch report.Status {
	case models.StatusSigned:
		return nil, ErrAlreadySigned
	case models.StatusCancelled:
		return nil, ErrCancelled
	}

	contactID, err := store.UpsertContactByIDNumber(ctx, report.CompanyID, sub)
	if err != nil {
		return nil, fmt.Errorf("upsert contact: %w", err)
	}

	signedAt := time.Now()
	err = store.MarkSigned(ctx, report.ID, SignedFields{
		ContactID:        contactID,
		PayeeName:        sub.Name,
		PayeeIDNumber:    sub.IDNumber,
		PayeeAddress:     sub.Address,
		PayeeBankName:    sub.BankName,
		PayeeBankAccount: sub.BankAccount,
		SignatureData:    sub.SignatureData,
		SignedAt:         signedAt,
		SignedIP:         signedIP,
	})
	if err != nil {
		return nil, err
	}

	report.ContactID = &contactID
	report.PayeeName = sub.Name
	report.PayeeIDNumber = sub.IDNumber
	report.PayeeAddress = sub.Address
	report.PayeeBankName = sub.BankName
	report.PayeeBankAccount = sub.BankAccount
	report.Status = models.StatusSigned
	report.SignatureData = &sub.SignatureData
	report.SignedAt = &signedAt
	report.SignedIP = &signedIP
	return report, nil
}

func validateSubmission(sub Submission) error {
	switch {
	case sub.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case sub.IDNumber == "":
		return fmt.Errorf("%w: id_number is required", ErrValidation)
	case sub.SignatureData == "":
		return fmt.Errorf("%w: signature_data is required", ErrValidation)
	}
	return nil
}
