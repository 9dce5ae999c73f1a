package enums

type EnrollmentPaymentStatus string

const (
	EnrollmentPaymentPaid EnrollmentPaymentStatus = "paid"
	EnrollmentPaymentFree EnrollmentPaymentStatus = "free"
)
