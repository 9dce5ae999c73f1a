package enums

type AuditAction string

const (
	AuditActionApproved AuditAction = "approved"
	AuditActionRejected AuditAction = "rejected"
)
