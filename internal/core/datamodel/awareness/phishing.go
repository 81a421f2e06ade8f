package awareness

import "time"

const PhishingStatusActive = "Active"

// SecurityTest is a phishing simulation campaign ("pst" in the API).
type SecurityTest struct {
	PstID  int    `json:"pst_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Recipient is one user's outcome in one security test. Each timestamp is
// nil when the event never happened.
type Recipient struct {
	RecipientID        int            `json:"recipient_id"`
	PstID              int            `json:"pst_id"`
	User               EnrollmentUser `json:"user"`
	DeliveredAt        *time.Time     `json:"delivered_at"`
	OpenedAt           *time.Time     `json:"opened_at"`
	ClickedAt          *time.Time     `json:"clicked_at"`
	AttachmentOpenedAt *time.Time     `json:"attachment_opened_at"`
	DataEnteredAt      *time.Time     `json:"data_entered_at"`
	ReportedAt         *time.Time     `json:"reported_at"`
	BouncedAt          *time.Time     `json:"bounced_at"`
}
