package awareness

const (
	EnrollmentStatusPassed  = "Passed"
	EnrollmentStatusPastDue = "Past Due"

	CampaignStatusInProgress = "In Progress"
	CampaignStatusClosed     = "Closed"
	CampaignStatusCompleted  = "Completed"

	// CampaignStatusAll is the filter passthrough, not an API value.
	CampaignStatusAll = "All"
)

type TrainingCampaign struct {
	CampaignID           int     `json:"campaign_id"`
	Name                 string  `json:"name"`
	Status               string  `json:"status"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	DurationType         string  `json:"duration_type"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// Enrollment is one user's assignment to one module within a campaign.
type Enrollment struct {
	EnrollmentID   int            `json:"enrollment_id"`
	ContentType    string         `json:"content_type"`
	ModuleName     string         `json:"module_name"`
	CampaignName   string         `json:"campaign_name"`
	Status         string         `json:"status"`
	EnrollmentDate string         `json:"enrollment_date"`
	CompletionDate string         `json:"completion_date"`
	TimeSpent      int            `json:"time_spent"`
	User           EnrollmentUser `json:"user"`
}
