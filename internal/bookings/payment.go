package bookings

import "strings"

type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "CASH"
	PaymentMethodOnline     PaymentMethod = "ONLINE"
	PaymentMethodMembership PaymentMethod = "MEMBERSHIP"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodOnline, PaymentMethodMembership:
		return true
	}
	return false
}

// Payment is the structured form of the legacy payment tag.
type Payment struct {
	Method PaymentMethod
	Paid   bool
}

// ParsePaymentRef converts a legacy tag (MEMBERSHIP, CASH, PAID.CASH,
// UNPAID.ONLINE, ...) to a Payment. Unrecognised tags name a gateway order
// class and are treated as paid online.
func ParsePaymentRef(ref string) Payment {
	tag := strings.ToUpper(strings.TrimSpace(ref))
	switch {
	case tag == "":
		return Payment{}
	case tag == string(PaymentMethodMembership):
		return Payment{Method: PaymentMethodMembership, Paid: true}
	case strings.HasPrefix(tag, "PAID."):
		return Payment{Method: methodOrOnline(strings.TrimPrefix(tag, "PAID.")), Paid: true}
	case strings.HasPrefix(tag, "UNPAID."):
		return Payment{Method: methodOrOnline(strings.TrimPrefix(tag, "UNPAID.")), Paid: false}
	case tag == string(PaymentMethodCash), tag == string(PaymentMethodOnline):
		return Payment{Method: PaymentMethod(tag), Paid: false}
	default:
		return Payment{Method: PaymentMethodOnline, Paid: true}
	}
}

func methodOrOnline(s string) PaymentMethod {
	m := PaymentMethod(s)
	if m.IsValid() {
		return m
	}
	return PaymentMethodOnline
}

// Ref renders the legacy tag.
func (p Payment) Ref() string {
	switch {
	case p.Method == "":
		return ""
	case p.Method == PaymentMethodMembership:
		return string(PaymentMethodMembership)
	case p.Paid:
		return "PAID." + string(p.Method)
	default:
		return "UNPAID." + string(p.Method)
	}
}

// MarkPaid returns the payment after an operator confirms collection.
// UNPAID.X becomes PAID.X and MEMBERSHIP is left as is.
func (p Payment) MarkPaid() Payment {
	if p.Method == PaymentMethodMembership {
		return p
	}
	if p.Method == "" {
		p.Method = PaymentMethodCash
	}
	p.Paid = true
	return p
}
