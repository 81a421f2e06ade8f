package awareness

const (
	UserStatusActive   = "active"
	UserStatusArchived = "archived"
	UserStatusAll      = "all"
)

// User is one row of the reporting API's user listing. It carries the
// organizational attributes (division, department) that the enrollment
// rows lack, which is why the listing is fetched even when a run only
// cares about enrollments.
type User struct {
	ID         int    `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Status     string `json:"status"`
	Division   string `json:"division"`
	Department string `json:"department"`
	JobTitle   string `json:"job_title"`
	EmployeeID string `json:"employee_number"`
}

// EnrollmentUser is the abbreviated user object embedded in enrollment
// and phishing-recipient rows.
type EnrollmentUser struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
