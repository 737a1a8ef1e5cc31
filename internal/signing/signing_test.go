package signing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"laborpay-system/internal/database/models"
)

// stubStore implements Store in memory. MarkSigned performs the same
// status-guarded compare-and-swap the relational store does.
type stubStore struct {
	mu sync.Mutex

	report   *models.LaborReport
	contacts map[string]*models.LaborContact
	nextID   int64

	upsertErr error
	markErr   error

	upsertCalls int
	markCalls   int
}

func newStubStore(report *models.LaborReport) *stubStore {
	return &stubStore{
		report:   report,
		contacts: make(map[string]*models.LaborContact),
		nextID:   100,
	}
}

func (s *stubStore) FindReportByToken(ctx context.Context, token string) (*models.LaborReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil || s.report.SignToken != token {
		return nil, ErrTokenNotFound
	}
	snapshot := *s.report
	return &snapshot, nil
}

func (s *stubStore) UpsertContactByIDNumber(ctx context.Context, companyID int64, sub Submission) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}

	if existing, ok := s.contacts[sub.IDNumber]; ok {
		existing.Name = sub.Name
		existing.Phone = sub.Phone
		existing.Address = sub.Address
		existing.BankName = sub.BankName
		existing.BankAccount = sub.BankAccount
		existing.IsUnionMember = sub.IsUnionMember
		return existing.ID, nil
	}

	s.nextID++
	s.contacts[sub.IDNumber] = &models.LaborContact{
		ID:            s.nextID,
		CompanyID:     companyID,
		Name:          sub.Name,
		IDNumber:      sub.IDNumber,
		Phone:         sub.Phone,
		Address:       sub.Address,
		BankName:      sub.BankName,
		BankAccount:   sub.BankAccount,
		IsUnionMember: sub.IsUnionMember,
	}
	return s.nextID, nil
}

func (s *stubStore) MarkSigned(ctx context.Context, reportID int64, fields SignedFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCalls++
	if s.markErr != nil {
		return s.markErr
	}
	if s.report == nil || s.report.ID != reportID {
		return ErrTokenNotFound
	}
	switch s.report.Status {
	case models.StatusSigned:
		return ErrAlreadySigned
	case models.StatusCancelled:
		return ErrCancelled
	case models.StatusPending:
	default:
		return ErrConflictingUpdate
	}

	s.report.ContactID = &fields.ContactID
	s.report.PayeeName = fields.PayeeName
	s.report.PayeeIDNumber = fields.PayeeIDNumber
	s.report.PayeeAddress = fields.PayeeAddress
	s.report.PayeeBankName = fields.PayeeBankName
	s.report.PayeeBankAccount = fields.PayeeBankAccount
	s.report.Status = models.StatusSigned
	s.report.SignatureData = &fields.SignatureData
	s.report.SignedAt = &fields.SignedAt
	s.report.SignedIP = &fields.SignedIP
	return nil
}

func pendingReport() *models.LaborReport {
	return &models.LaborReport{
		ID:           1,
		CompanyID:    7,
		ReportNumber: "LR-2025-0001",
		PayeeName:    "王小明",
		IncomeType:   "9A",
		GrossAmount:  50000,
		IncomeTax:    5000,
		HealthInsurance: 1055,
		NetAmount:    43945,
		SignToken:    "tok-pending",
		Status:       models.StatusPending,
	}
}

func fullSubmission() Submission {
	return Submission{
		Name:           "王小明",
		IDNumber:       "A123456789",
		Phone:          "0912345678",
		Email:          "ming@example.com",
		Address:        "台北市中正區",
		BankName:       "第一銀行",
		BankBranch:     "城中分行",
		BankAccount:    "0123456789012",
		IsUnionMember:  false,
		SignatureData:  "data:image/png;base64,xxxx",
		IDCardFrontURL: "http://files/front.jpg",
		IDCardBackURL:  "http://files/back.jpg",
		BankBookURL:    "http://files/book.jpg",
	}
}

func TestResolveUnknownToken(t *testing.T) {
	store := newStubStore(pendingReport())
	_, err := Resolve(context.Background(), store, "no-such-token")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("got %v, want ErrTokenNotFound", err)
	}
}

func TestResolveContactFlags(t *testing.T) {
	tests := []struct {
		name         string
		contact      *models.LaborContact
		wantContact  bool
		wantComplete bool
	}{
		{"no contact", nil, false, false},
		{
			"incomplete contact",
			&models.LaborContact{IDNumber: "A123456789", Address: "台北市"},
			true, false,
		},
		{
			"complete contact",
			&models.LaborContact{
				IDNumber:       "A123456789",
				Address:        "台北市",
				BankName:       "第一銀行",
				BankAccount:    "0123456789012",
				IDCardFrontURL: "http://files/front.jpg",
				IDCardBackURL:  "http://files/back.jpg",
				BankBookURL:    "http://files/book.jpg",
			},
			true, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := pendingReport()
			report.Contact = tt.contact
			store := newStubStore(report)

			result, err := Resolve(context.Background(), store, "tok-pending")
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			if result.HasContact != tt.wantContact {
				t.Errorf("HasContact = %v, want %v", result.HasContact, tt.wantContact)
			}
			if result.HasCompleteData != tt.wantComplete {
				t.Errorf("HasCompleteData = %v, want %v", result.HasCompleteData, tt.wantComplete)
			}
		})
	}
}

func TestResolveTerminalStates(t *testing.T) {
	signed := pendingReport()
	signed.Status = models.StatusSigned
	if _, err := Resolve(context.Background(), newStubStore(signed), "tok-pending"); !errors.Is(err, ErrAlreadySigned) {
		t.Errorf("signed report: got %v, want ErrAlreadySigned", err)
	}

	cancelled := pendingReport()
	cancelled.Status = models.StatusCancelled
	if _, err := Resolve(context.Background(), newStubStore(cancelled), "tok-pending"); !errors.Is(err, ErrCancelled) {
		t.Errorf("cancelled report: got %v, want ErrCancelled", err)
	}
}

func TestSignValidationRejectedBeforeStateChange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Submission)
	}{
		{"missing name", func(s *Submission) { s.Name = "" }},
		{"missing id number", func(s *Submission) { s.IDNumber = "" }},
		{"missing signature", func(s *Submission) { s.SignatureData = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStubStore(pendingReport())
			sub := fullSubmission()
			tt.mutate(&sub)

			_, err := Sign(context.Background(), store, "tok-pending", sub, "1.2.3.4")
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("got %v, want ErrValidation", err)
			}
			if store.upsertCalls != 0 || store.markCalls != 0 {
				t.Errorf("store touched before validation: upserts=%d marks=%d", store.upsertCalls, store.markCalls)
			}
		})
	}
}

func TestSignSuccess(t *testing.T) {
	store := newStubStore(pendingReport())
	sub := fullSubmission()

	report, err := Sign(context.Background(), store, "tok-pending", sub, "203.0.113.9")
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	if report.Status != models.StatusSigned {
		t.Errorf("Status = %s, want signed", report.Status)
	}
	if report.PayeeIDNumber != sub.IDNumber || report.PayeeBankAccount != sub.BankAccount {
		t.Errorf("payee snapshot not copied: %+v", report)
	}
	if report.SignedIP == nil || *report.SignedIP != "203.0.113.9" {
		t.Errorf("SignedIP not stamped")
	}
	if report.SignedAt == nil {
		t.Errorf("SignedAt not stamped")
	}

	stored := store.report
	if stored.Status != models.StatusSigned {
		t.Errorf("stored status = %s, want signed", stored.Status)
	}
	contact, ok := store.contacts[sub.IDNumber]
	if !ok {
		t.Fatalf("contact not created")
	}
	if stored.ContactID == nil || *stored.ContactID != contact.ID {
		t.Errorf("report not linked to contact")
	}
	if contact.CompanyID != 7 {
		t.Errorf("contact CompanyID = %d, want the report's company", contact.CompanyID)
	}
}

func TestSignUpdatesExistingContact(t *testing.T) {
	store := newStubStore(pendingReport())
	store.contacts["A123456789"] = &models.LaborContact{
		ID:       42,
		IDNumber: "A123456789",
		Name:     "舊名字",
		Phone:    "0900000000",
	}

	sub := fullSubmission()
	report, err := Sign(context.Background(), store, "tok-pending", sub, "1.2.3.4")
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	if len(store.contacts) != 1 {
		t.Fatalf("contact duplicated: %d profiles", len(store.contacts))
	}
	contact := store.contacts["A123456789"]
	if contact.Name != sub.Name || contact.Phone != sub.Phone {
		t.Errorf("contact fields not overwritten: %+v", contact)
	}
	if report.ContactID == nil || *report.ContactID != 42 {
		t.Errorf("report linked to wrong contact")
	}
}

func TestSignConsumedTokenNeverAuthorizesAgain(t *testing.T) {
	store := newStubStore(pendingReport())
	sub := fullSubmission()

	if _, err := Sign(context.Background(), store, "tok-pending", sub, "1.2.3.4"); err != nil {
		t.Fatalf("first Sign error: %v", err)
	}

	// Replaying the identical payload must still fail.
	_, err := Sign(context.Background(), store, "tok-pending", sub, "1.2.3.4")
	if !errors.Is(err, ErrAlreadySigned) {
		t.Fatalf("replay: got %v, want ErrAlreadySigned", err)
	}
}

func TestSignRetriableAfterPartialFailure(t *testing.T) {
	store := newStubStore(pendingReport())
	store.markErr = errors.New("connection reset")

	sub := fullSubmission()
	if _, err := Sign(context.Background(), store, "tok-pending", sub, "1.2.3.4"); err == nil {
		t.Fatalf("expected error from failed status flip")
	}

	// The record must still be pending so the same token can retry.
	if store.report.Status != models.StatusPending {
		t.Fatalf("report flipped to %s after partial failure", store.report.Status)
	}

	store.markErr = nil
	if _, err := Sign(context.Background(), store, "tok-pending", sub, "1.2.3.4"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(store.contacts) != 1 {
		t.Errorf("retry duplicated contact: %d profiles", len(store.contacts))
	}
	if store.report.Status != models.StatusSigned {
		t.Errorf("retry did not sign the report")
	}
}

func TestConcurrentSignExactlyOneWinner(t *testing.T) {
	store := newStubStore(pendingReport())

	subA := fullSubmission()
	subA.Name = "甲方"
	subA.IDNumber = "A111111111"
	subB := fullSubmission()
	subB.Name = "乙方"
	subB.IDNumber = "B222222222"

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = Sign(context.Background(), store, "tok-pending", subA, "10.0.0.1")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = Sign(context.Background(), store, "tok-pending", subB, "10.0.0.2")
	}()
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadySigned) || errors.Is(err, ErrConflictingUpdate):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("wins = %d, losses = %d, want exactly one of each", wins, losses)
	}

	// The final snapshot must match only the winner's payload.
	got := store.report.PayeeName
	if got != "甲方" && got != "乙方" {
		t.Fatalf("snapshot PayeeName = %q, matches neither submission", got)
	}
	winnerIP := *store.report.SignedIP
	if (got == "甲方" && winnerIP != "10.0.0.1") || (got == "乙方" && winnerIP != "10.0.0.2") {
		t.Fatalf("snapshot mixes winner and loser payloads")
	}
}
