package awareness

import (
	awarenessDatamodel "github.com/oit-infosec/awareness-compliance/internal/core/datamodel/awareness"
)

// ComplianceStatus is either "complete" or the list of modules still
// outstanding, in the order the assignments were encountered. Callers
// that want alphabetical output sort for display themselves.
type ComplianceStatus struct {
	Complete          bool
	IncompleteModules []string
}

// EvaluateCompliance partitions a user's assignments by the Passed
// status. Complete requires at least one passed module and none
// outstanding: a user with zero assignments is NOT complete, since an
// empty enrollment usually means they were never assigned the year's
// training rather than that they finished it.
func EvaluateCompliance(assignments []TrainingRecord) ComplianceStatus {
	var passed, incomplete []string
	for _, assignment := range assignments {
		if assignment.Status == awarenessDatamodel.EnrollmentStatusPassed {
			passed = append(passed, assignment.ModuleName)
		} else {
			incomplete = append(incomplete, assignment.ModuleName)
		}
	}

	if len(passed) > 0 && len(incomplete) == 0 {
		return ComplianceStatus{Complete: true}
	}
	return ComplianceStatus{IncompleteModules: incomplete}
}

// HasPastDue reports whether any assignment sits exactly in the
// platform's "Past Due" state. Enrolled-but-not-yet-due is not past due.
func HasPastDue(assignments []TrainingRecord) bool {
	for _, assignment := range assignments {
		if assignment.Status == awarenessDatamodel.EnrollmentStatusPastDue {
			return true
		}
	}
	return false
}
