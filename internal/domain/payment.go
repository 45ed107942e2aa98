package domain

import "time"

// PaymentMethod is how a patient paid.
type PaymentMethod string

const (
	MethodCard         PaymentMethod = "CARD"
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodMobileWallet PaymentMethod = "MOBILE_WALLET"
)

// Payment is the single payment record of an appointment. Amount is in
// minor currency units.
type Payment struct {
	ID            string        `json:"id"`
	AppointmentID string        `json:"appointment_id"`
	Amount        int64         `json:"amount"`
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
