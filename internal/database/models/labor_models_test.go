package models

import "testing"

func completeContact() LaborContact {
	return LaborContact{
		Name:           "王小明",
		IDNumber:       "A123456789",
		Address:        "台北市中正區",
		BankName:       "第一銀行",
		BankAccount:    "0123456789012",
		IDCardFrontURL: "http://files/front.jpg",
		IDCardBackURL:  "http://files/back.jpg",
		BankBookURL:    "http://files/book.jpg",
	}
}

func TestContactIsComplete(t *testing.T) {
	c := completeContact()
	if !c.IsComplete() {
		t.Fatalf("contact with all required fields reported incomplete")
	}

	// Optional fields have no bearing on completeness.
	c.Phone = ""
	c.Email = ""
	c.BankBranch = ""
	if !c.IsComplete() {
		t.Fatalf("optional fields must not affect completeness")
	}
}

func TestContactIsCompleteEachFieldRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LaborContact)
	}{
		{"id number", func(c *LaborContact) { c.IDNumber = "" }},
		{"address", func(c *LaborContact) { c.Address = "" }},
		{"bank name", func(c *LaborContact) { c.BankName = "" }},
		{"bank account", func(c *LaborContact) { c.BankAccount = "" }},
		{"id card front", func(c *LaborContact) { c.IDCardFrontURL = "" }},
		{"id card back", func(c *LaborContact) { c.IDCardBackURL = "" }},
		{"bank book", func(c *LaborContact) { c.BankBookURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := completeContact()
			tt.mutate(&c)
			if c.IsComplete() {
				t.Errorf("contact missing %s reported complete", tt.name)
			}
		})
	}
}
