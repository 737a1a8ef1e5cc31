package tax

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Income-type codes. These follow the withholding statement categories
// used on Taiwanese labor payment slips.
const (
	IncomePartTime     = "50" // 兼職所得
	IncomeProfessional = "9A" // 執行業務所得
	IncomeManuscript   = "9B" // 稿費
	IncomeOther        = "92" // 其他所得
)

var (
	ErrInvalidIncomeType = errors.New("invalid income type")
	ErrNegativeAmount    = errors.New("gross amount must not be negative")
)

// Rule is a threshold/rate pair. An amount greater than or equal to the
// threshold incurs withholding at the rate, floored to whole dollars.
type Rule struct {
	Threshold int64
	Rate      decimal.Decimal
}

// unreachable marks income types that never incur a given withholding.
const unreachable = int64(math.MaxInt64)

// Withholding rules for tax year 2025. The 28,590 figure for part-time
// wages tracks the statutory minimum monthly wage.
var (
	incomeTaxRules = map[string]Rule{
		IncomePartTime:     {Threshold: 88501, Rate: decimal.NewFromFloat(0.05)},
		IncomeProfessional: {Threshold: 20010, Rate: decimal.NewFromFloat(0.10)},
		IncomeManuscript:   {Threshold: 20010, Rate: decimal.NewFromFloat(0.10)},
		IncomeOther:        {Threshold: unreachable, Rate: decimal.Zero},
	}

	healthInsuranceRules = map[string]Rule{
		IncomePartTime:     {Threshold: 28590, Rate: decimal.NewFromFloat(0.0211)},
		IncomeProfessional: {Threshold: 20000, Rate: decimal.NewFromFloat(0.0211)},
		IncomeManuscript:   {Threshold: 20000, Rate: decimal.NewFromFloat(0.0211)},
		IncomeOther:        {Threshold: 20000, Rate: decimal.NewFromFloat(0.0211)},
	}
)

var incomeTypeNames = map[string]string{
	IncomePartTime:     "兼職所得 (50)",
	IncomeProfessional: "執行業務所得 (9A)",
	IncomeManuscript:   "稿費 (9B)",
	IncomeOther:        "其他所得 (92)",
}

// Breakdown is the statutory withholding result. The rate/threshold
// fields echo the rule that was applied so callers can display it
// without re-deriving the rule set.
type Breakdown struct {
	GrossAmount     int64           `json:"gross_amount"`
	IncomeTax       int64           `json:"income_tax"`
	HealthInsurance int64           `json:"health_insurance"`
	NetAmount       int64           `json:"net_amount"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	TaxThreshold    int64           `json:"tax_threshold"`
	HIRate          decimal.Decimal `json:"hi_rate"`
	HIThreshold     int64           `json:"hi_threshold"`
}

// Calculate produces the withholding breakdown for a payment.
//
// Threshold comparisons are inclusive: an amount exactly equal to the
// threshold incurs withholding. All rounding truncates toward zero.
// Union members are exempt from the supplementary health-insurance
// levy regardless of amount. Pure and deterministic: the live preview
// and the persisted computation at record creation must match exactly.
func Calculate(grossAmount int64, incomeType string, isUnionMember bool) (Breakdown, error) {
	taxRule, ok := incomeTaxRules[incomeType]
	if !ok {
		return Breakdown{}, ErrInvalidIncomeType
	}
	hiRule := healthInsuranceRules[incomeType]

	if grossAmount < 0 {
		return Breakdown{}, ErrNegativeAmount
	}

	var incomeTax int64
	if grossAmount >= taxRule.Threshold {
		incomeTax = floorMul(grossAmount, taxRule.Rate)
	}

	var healthInsurance int64
	if !isUnionMember && grossAmount >= hiRule.Threshold {
		healthInsurance = floorMul(grossAmount, hiRule.Rate)
	}

	return Breakdown{
		GrossAmount:     grossAmount,
		IncomeTax:       incomeTax,
		HealthInsurance: healthInsurance,
		NetAmount:       grossAmount - incomeTax - healthInsurance,
		TaxRate:         taxRule.Rate,
		TaxThreshold:    taxRule.Threshold,
		HIRate:          hiRule.Rate,
		HIThreshold:     hiRule.Threshold,
	}, nil
}

func floorMul(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Floor().IntPart()
}

// ValidIncomeType reports whether code is one of the four known
// income-type codes.
func ValidIncomeType(code string) bool {
	_, ok := incomeTaxRules[code]
	return ok
}

// IncomeTypeName returns the display label for an income-type code, or
// the code itself when unknown.
func IncomeTypeName(code string) string {
	if name, ok := incomeTypeNames[code]; ok {
		return name
	}
	return code
}
