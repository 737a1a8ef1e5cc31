package models

import "time"

// LaborReport status values. Transitions are monotonic: a report is
// created pending (or kept as draft), flips at most once to signed, or
// is cancelled/deleted. Signed reports are immutable.
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusSigned    = "signed"
	StatusCancelled = "cancelled"
)

type User struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Username    string `gorm:"uniqueIndex;not null"`
	Email       string `gorm:"uniqueIndex;not null"`
	Password    string `gorm:"not null"`
	DisplayName string
	IsActive    bool `gorm:"default:true"`
	LastLogin   *time.Time
	CreatedAt   *time.Time `gorm:"autoCreateTime"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime"`
}

type LaborCompany struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	Name              string `gorm:"type:varchar(128);not null"`
	TaxID             string `gorm:"type:varchar(16);uniqueIndex;not null"`
	ResponsiblePerson string `gorm:"type:varchar(64)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LaborContact is a reusable payee identity. The national ID number is
// the natural key within a company; the composite unique index closes
// the race where two first-time sign submissions create the same person
// concurrently.
type LaborContact struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	CompanyID int64  `gorm:"not null;uniqueIndex:idx_contacts_company_id_number"`
	Name      string `gorm:"type:varchar(64);not null"`
	IDNumber  string `gorm:"type:varchar(16);not null;uniqueIndex:idx_contacts_company_id_number"`
	Phone     string `gorm:"type:varchar(32)"`
	Email     string `gorm:"type:varchar(128)"`
	Address   string `gorm:"type:text"`

	BankName    string `gorm:"type:varchar(64)"`
	BankBranch  string `gorm:"type:varchar(64)"`
	BankAccount string `gorm:"type:varchar(32)"`

	IsUnionMember bool `gorm:"not null;default:false"`

	IDCardFrontURL string `gorm:"type:varchar(512)"`
	IDCardBackURL  string `gorm:"type:varchar(512)"`
	BankBookURL    string `gorm:"type:varchar(512)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsComplete reports whether the contact holds everything a payee would
// otherwise have to enter during signing: national ID, registered
// address, bank name and account, and all three uploaded documents.
// Complete contacts only need to confirm and sign.
func (c *LaborContact) IsComplete() bool {
	return c.IDNumber != "" &&
		c.Address != "" &&
		c.BankName != "" &&
		c.BankAccount != "" &&
		c.IDCardFrontURL != "" &&
		c.IDCardBackURL != "" &&
		c.BankBookURL != ""
}

// LaborReport is a single payment instance. The payee_* columns are a
// snapshot taken at signing time so the report stays historically
// correct even if the contact is edited later. Report numbers are
// unique per company, not globally: every company's sequence starts at
// 0001 each year.
type LaborReport struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	CompanyID    int64  `gorm:"not null;uniqueIndex:idx_reports_company_number"`
	ContactID    *int64 `gorm:"index"`
	ReportNumber string `gorm:"type:varchar(32);not null;uniqueIndex:idx_reports_company_number"`

	PayeeName        string `gorm:"type:varchar(64);not null"`
	PayeeIDNumber    string `gorm:"type:varchar(16)"`
	PayeeAddress     string `gorm:"type:text"`
	PayeeBankName    string `gorm:"type:varchar(64)"`
	PayeeBankAccount string `gorm:"type:varchar(32)"`

	IncomeType  string  `gorm:"type:varchar(4);not null"`
	Description string  `gorm:"type:text"`
	PeriodStart *string `gorm:"type:varchar(10)"`
	PeriodEnd   *string `gorm:"type:varchar(10)"`
	PaymentDate string  `gorm:"type:varchar(10);not null"`

	GrossAmount     int64 `gorm:"not null"`
	IncomeTax       int64 `gorm:"not null"`
	HealthInsurance int64 `gorm:"not null"`
	NetAmount       int64 `gorm:"not null"`

	SignToken string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Status    string `gorm:"type:varchar(16);index;not null;default:'pending'"`

	SignatureData *string    `gorm:"type:text"`
	SignedAt      *time.Time
	SignedIP      *string `gorm:"type:varchar(64)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Company *LaborCompany `gorm:"foreignKey:CompanyID"`
	Contact *LaborContact `gorm:"foreignKey:ContactID"`
}

// LaborLineGroup is a LINE group the bot has joined; sign-link
// notifications are pushed to one of these.
type LaborLineGroup struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	GroupID   string `gorm:"type:varchar(64);uniqueIndex;not null"`
	GroupName string `gorm:"type:varchar(128)"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
