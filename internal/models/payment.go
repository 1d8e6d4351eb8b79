package models

// WalletDetails describes a mobile wallet (bKash, Nagad, Rocket) attendees
// pay into.
type WalletDetails struct {
	AccountNumber string `json:"account_number,omitempty"`
	PaymentOption string `json:"payment_option,omitempty"`
}

func (w WalletDetails) IsEmpty() bool {
	return w.AccountNumber == "" && w.PaymentOption == ""
}

type BankDetails struct {
	AccountName   string `json:"account_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	BranchName    string `json:"branch_name,omitempty"`
	SwiftCode     string `json:"swift_code,omitempty"`
	RoutingNumber string `json:"routing_number,omitempty"`
	City          string `json:"city,omitempty"`
	Country       string `json:"country,omitempty"`
}

func (b BankDetails) IsEmpty() bool {
	return b == BankDetails{}
}

// PaymentMethods holds only the configured payment methods of an event.
type PaymentMethods struct {
	Bkash  *WalletDetails `json:"bkash,omitempty"`
	Nagad  *WalletDetails `json:"nagad,omitempty"`
	Rocket *WalletDetails `json:"rocket,omitempty"`
	Bank   *BankDetails   `json:"bank,omitempty"`
}
