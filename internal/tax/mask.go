package tax

// MaskIDNumber hides the middle of a national ID number for list
// display, e.g. A123456789 -> A123****89.
func MaskIDNumber(idNumber string) string {
	if len(idNumber) < 4 {
		return idNumber
	}
	return idNumber[:4] + "****" + idNumber[len(idNumber)-2:]
}

// MaskBankAccount keeps only the last four digits of a bank account.
func MaskBankAccount(account string) string {
	if len(account) < 4 {
		return account
	}
	return "****" + account[len(account)-4:]
}
