package enums

import "strings"

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

func ParseSubmissionStatus(raw string) (SubmissionStatus, bool) {
	switch s := SubmissionStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return s, true
	default:
		return "", false
	}
}

// Terminal reports whether no further review transition is possible.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionStatusApproved || s == SubmissionStatusRejected
}
