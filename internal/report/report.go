package report

import (
	"sort"

	"github.com/oit-infosec/awareness-compliance/internal/awareness"
)

// UnknownGroup stands in for a blank division or department so nobody
// falls out of the report just because the directory record is sparse.
const UnknownGroup = "Unknown"

type UserEntry struct {
	Email       string
	DisplayName string
	Status      awareness.ComplianceStatus
	Phish       awareness.PhishFlag
}

// Department keeps its users in insertion order, which Build makes the
// ascending-email order.
type Department struct {
	Name  string
	Users []UserEntry
}

func (d *Department) AllComplete() bool {
	for _, user := range d.Users {
		if !user.Status.Complete {
			return false
		}
	}
	return true
}

type Division struct {
	Name        string
	Departments []*Department

	index map[string]*Department
}

func (d *Division) departmentFor(name string) *Department {
	if dept, ok := d.index[name]; ok {
		return dept
	}
	dept := &Department{Name: name}
	d.index[name] = dept
	d.Departments = append(d.Departments, dept)
	return dept
}

// SortedDepartments returns the departments by name for rendering;
// insertion order inside each department is untouched.
func (d *Division) SortedDepartments() []*Department {
	sorted := make([]*Department, len(d.Departments))
	copy(sorted, d.Departments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

type DivisionReport struct {
	Divisions []*Division

	index map[string]*Division
}

func (r *DivisionReport) divisionFor(name string) *Division {
	if division, ok := r.index[name]; ok {
		return division
	}
	division := &Division{Name: name, index: make(map[string]*Department)}
	r.index[name] = division
	r.Divisions = append(r.Divisions, division)
	return division
}

func (r *DivisionReport) SortedDivisions() []*Division {
	sorted := make([]*Division, len(r.Divisions))
	copy(sorted, r.Divisions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

// Build groups every report user into division → department → user.
// Users are inserted in ascending email order; with this deployment's
// "surname-first" mailbox naming that leaves each department listed by
// last name, which is a naming convention, not something the directory
// guarantees. Blank division or department strings become "Unknown".
// Intermediate levels are created on first encounter.
func Build(training awareness.TrainingReport, phishing awareness.PhishingReport) *DivisionReport {
	emails := make([]string, 0, len(training))
	for email := range training {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	result := &DivisionReport{index: make(map[string]*Division)}

	for _, email := range emails {
		user := training[email]

		divisionName := user.Division
		if divisionName == "" {
			divisionName = UnknownGroup
		}
		departmentName := user.Department
		if departmentName == "" {
			departmentName = UnknownGroup
		}

		entry := UserEntry{
			Email:       email,
			DisplayName: user.LastName + ", " + user.FirstName,
			Status:      awareness.EvaluateCompliance(user.Assignments),
			Phish:       phishing.StatusFor(email),
		}

		dept := result.divisionFor(divisionName).departmentFor(departmentName)
		dept.Users = append(dept.Users, entry)
	}

	return result
}
