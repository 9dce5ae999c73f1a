package enums

import "strings"

type PaymentMethod string

const (
	PaymentMethodKBZPay PaymentMethod = "kbz_pay"
	PaymentMethodAYAPay PaymentMethod = "aya_pay"
	PaymentMethodUABPay PaymentMethod = "uab_pay"
)

func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentMethodKBZPay, PaymentMethodAYAPay, PaymentMethodUABPay}
}

func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range PaymentMethods() {
		if m == known {
			return m, true
		}
	}
	return "", false
}
