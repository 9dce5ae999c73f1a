package rules

import "github.com/ASK10520/codeplay-spark/internal/domain/enums"

// CanTransition reports whether a submission may move from one status to another.
// Only a pending submission can be reviewed, and only into a terminal status.
func CanTransition(from, to enums.SubmissionStatus) bool {
	return from == enums.SubmissionStatusPending && to.Terminal()
}

const (
	defaultRejectDetails = "Payment rejected"
	approveDetailsPrefix = "Payment approved for course "
)

func ApproveDetails(courseID string) string {
	return approveDetailsPrefix + courseID
}

func RejectDetails(reason *string) string {
	if reason == nil || *reason == "" {
		return defaultRejectDetails
	}
	return *reason
}
