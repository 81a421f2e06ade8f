package awareness

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	awarenessDatamodel "github.com/oit-infosec/awareness-compliance/internal/core/datamodel/awareness"
	"github.com/oit-infosec/awareness-compliance/pkg/logger"
)

// Platform is the slice of the reporting API this service consumes.
// *Client satisfies it; tests use a fake.
type Platform interface {
	Users(ctx context.Context, status string) ([]awarenessDatamodel.User, error)
	TrainingCampaigns(ctx context.Context) ([]awarenessDatamodel.TrainingCampaign, error)
	Enrollments(ctx context.Context, campaignID int) ([]awarenessDatamodel.Enrollment, error)
	SecurityTests(ctx context.Context) ([]awarenessDatamodel.SecurityTest, error)
	Recipients(ctx context.Context, pstID int) ([]awarenessDatamodel.Recipient, error)
}

func (c *Client) Users(ctx context.Context, status string) ([]awarenessDatamodel.User, error) {
	q := url.Values{}
	if status != "" && status != awarenessDatamodel.UserStatusAll {
		q.Set("status", status)
	}
	return fetchAllPages[awarenessDatamodel.User](ctx, c, "users", q)
}

// TrainingCampaigns is a single request: the campaign listing is small
// and the API does not page it.
func (c *Client) TrainingCampaigns(ctx context.Context) ([]awarenessDatamodel.TrainingCampaign, error) {
	var campaigns []awarenessDatamodel.TrainingCampaign
	if err := c.get(ctx, "training/campaigns", nil, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (c *Client) Enrollments(ctx context.Context, campaignID int) ([]awarenessDatamodel.Enrollment, error) {
	q := url.Values{}
	q.Set("campaign_id", strconv.Itoa(campaignID))
	return fetchAllPages[awarenessDatamodel.Enrollment](ctx, c, "training/enrollments", q)
}

func (c *Client) SecurityTests(ctx context.Context) ([]awarenessDatamodel.SecurityTest, error) {
	var tests []awarenessDatamodel.SecurityTest
	if err := c.get(ctx, "phishing/security_tests", nil, &tests); err != nil {
		return nil, err
	}
	return tests, nil
}

func (c *Client) Recipients(ctx context.Context, pstID int) ([]awarenessDatamodel.Recipient, error) {
	path := fmt.Sprintf("phishing/security_tests/%d/recipients", pstID)
	return fetchAllPages[awarenessDatamodel.Recipient](ctx, c, path, nil)
}

// TrainingRecord is one module assignment as the evaluators see it.
type TrainingRecord struct {
	ModuleName string
	Status     string
}

// UserTraining joins a user's directory attributes with every module
// assignment found across the selected campaigns, in encounter order.
type UserTraining struct {
	Email       string
	FirstName   string
	LastName    string
	Division    string
	Department  string
	Assignments []TrainingRecord
}

// TrainingReport is keyed by email.
type TrainingReport map[string]*UserTraining

// PhishingReport maps email -> security test ID -> that user's outcome.
type PhishingReport map[string]map[int]awarenessDatamodel.Recipient

type Service struct {
	platform Platform
	logger   *slog.Logger
}

func NewService(platform Platform, logger *slog.Logger) *Service {
	return &Service{
		platform: platform,
		logger:   logger,
	}
}

// log prefers the run-scoped logger carried in the context, so lines
// emitted on behalf of a reconciliation run keep its correlation ID.
func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.Or(ctx, s.logger)
}

// UsersByStatus returns the user listing keyed by email. The status
// filter is applied both in the request and against each returned row:
// the API has been seen returning rows outside the requested status.
func (s *Service) UsersByStatus(ctx context.Context, status string) (map[string]awarenessDatamodel.User, error) {
	users, err := s.platform.Users(ctx, status)
	if err != nil {
		return nil, err
	}

	byEmail := make(map[string]awarenessDatamodel.User, len(users))
	for _, user := range users {
		if status != awarenessDatamodel.UserStatusAll && user.Status != status {
			continue
		}
		byEmail[user.Email] = user
	}

	s.log(ctx).Info("retrieved platform users", "status", status, "count", len(byEmail))
	return byEmail, nil
}

func (s *Service) ActiveUsers(ctx context.Context) (map[string]awarenessDatamodel.User, error) {
	return s.UsersByStatus(ctx, awarenessDatamodel.UserStatusActive)
}

// ListTrainingCampaigns filters the campaign listing by status; the
// "All" sentinel passes everything through. API order is preserved.
func (s *Service) ListTrainingCampaigns(ctx context.Context, status string) ([]awarenessDatamodel.TrainingCampaign, error) {
	campaigns, err := s.platform.TrainingCampaigns(ctx)
	if err != nil {
		return nil, err
	}

	if status == awarenessDatamodel.CampaignStatusAll {
		return campaigns, nil
	}

	var matched []awarenessDatamodel.TrainingCampaign
	for _, campaign := range campaigns {
		if campaign.Status == status {
			matched = append(matched, campaign)
		}
	}
	return matched, nil
}

func (s *Service) ListSecurityTests(ctx context.Context, status string) ([]awarenessDatamodel.SecurityTest, error) {
	tests, err := s.platform.SecurityTests(ctx)
	if err != nil {
		return nil, err
	}

	if status == awarenessDatamodel.CampaignStatusAll {
		return tests, nil
	}

	var matched []awarenessDatamodel.SecurityTest
	for _, test := range tests {
		if test.Status == status {
			matched = append(matched, test)
		}
	}
	return matched, nil
}

// BuildTrainingReport joins enrollment rows from the given campaigns with
// the organizational attributes in the user listing. Enrollments for
// users missing from the listing (archived between fetches, usually) are
// skipped with a warning rather than failing the run.
func (s *Service) BuildTrainingReport(ctx context.Context, campaignIDs []int, users map[string]awarenessDatamodel.User) (TrainingReport, error) {
	report := make(TrainingReport)

	for _, campaignID := range campaignIDs {
		enrollments, err := s.platform.Enrollments(ctx, campaignID)
		if err != nil {
			return nil, fmt.Errorf("enrollments for campaign %d: %w", campaignID, err)
		}

		for _, entry := range enrollments {
			email := entry.User.Email
			record := TrainingRecord{ModuleName: entry.ModuleName, Status: entry.Status}

			if existing, ok := report[email]; ok {
				existing.Assignments = append(existing.Assignments, record)
				continue
			}

			user, ok := users[email]
			if !ok {
				s.log(ctx).Warn("enrollment for user missing from user listing, skipping",
					"email", email,
					"campaign_id", campaignID)
				continue
			}

			report[email] = &UserTraining{
				Email:       email,
				FirstName:   entry.User.FirstName,
				LastName:    entry.User.LastName,
				Division:    user.Division,
				Department:  user.Department,
				Assignments: []TrainingRecord{record},
			}
		}
	}

	s.log(ctx).Info("built training report", "campaigns", len(campaignIDs), "users", len(report))
	return report, nil
}

// BuildPhishingReport collects every selected security test's outcome
// rows, grouped by email then test ID.
func (s *Service) BuildPhishingReport(ctx context.Context, pstIDs []int) (PhishingReport, error) {
	report := make(PhishingReport)

	for _, pstID := range pstIDs {
		recipients, err := s.platform.Recipients(ctx, pstID)
		if err != nil {
			return nil, fmt.Errorf("recipients for security test %d: %w", pstID, err)
		}

		for _, recipient := range recipients {
			email := recipient.User.Email
			if _, ok := report[email]; !ok {
				report[email] = make(map[int]awarenessDatamodel.Recipient)
			}
			report[email][recipient.PstID] = recipient
		}
	}

	s.log(ctx).Info("built phishing report", "security_tests", len(pstIDs), "users", len(report))
	return report, nil
}

// PastDueEmails returns the set of report users holding at least one
// past-due assignment.
func (s *Service) PastDueEmails(report TrainingReport) map[string]struct{} {
	pastDue := make(map[string]struct{})
	for email, training := range report {
		if HasPastDue(training.Assignments) {
			pastDue[email] = struct{}{}
		}
	}
	return pastDue
}
