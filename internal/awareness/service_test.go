package awareness_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/oit-infosec/awareness-compliance/internal/awareness"
	awarenessDatamodel "github.com/oit-infosec/awareness-compliance/internal/core/datamodel/awareness"
	"github.com/oit-infosec/awareness-compliance/pkg/logger"
)

// fakePlatform implements awareness.Platform for testing.
type fakePlatform struct {
	users       []awarenessDatamodel.User
	campaigns   []awarenessDatamodel.TrainingCampaign
	enrollments map[int][]awarenessDatamodel.Enrollment
	tests       []awarenessDatamodel.SecurityTest
	recipients  map[int][]awarenessDatamodel.Recipient

	shouldFail bool
	failError  error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		enrollments: make(map[int][]awarenessDatamodel.Enrollment),
		recipients:  make(map[int][]awarenessDatamodel.Recipient),
	}
}

func (f *fakePlatform) SetShouldFail(shouldFail bool, err error) {
	f.shouldFail = shouldFail
	f.failError = err
}

func (f *fakePlatform) Users(ctx context.Context, status string) ([]awarenessDatamodel.User, error) {
	if f.shouldFail {
		return nil, f.failError
	}
	return f.users, nil
}

func (f *fakePlatform) TrainingCampaigns(ctx context.Context) ([]awarenessDatamodel.TrainingCampaign, error) {
	if f.shouldFail {
		return nil, f.failError
	}
	return f.campaigns, nil
}

func (f *fakePlatform) Enrollments(ctx context.Context, campaignID int) ([]awarenessDatamodel.Enrollment, error) {
	if f.shouldFail {
		return nil, f.failError
	}
	return f.enrollments[campaignID], nil
}

func (f *fakePlatform) SecurityTests(ctx context.Context) ([]awarenessDatamodel.SecurityTest, error) {
	if f.shouldFail {
		return nil, f.failError
	}
	return f.tests, nil
}

func (f *fakePlatform) Recipients(ctx context.Context, pstID int) ([]awarenessDatamodel.Recipient, error) {
	if f.shouldFail {
		return nil, f.failError
	}
	return f.recipients[pstID], nil
}

var _ = Describe("Awareness Service", func() {
	var (
		platform *fakePlatform
		service  *awareness.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		platform = newFakePlatform()
		service = awareness.NewService(platform, testLogger())
		ctx = context.Background()
	})

	Describe("UsersByStatus", func() {
		BeforeEach(func() {
			platform.users = []awarenessDatamodel.User{
				{Email: "alice@example.edu", Status: "active", Division: "Engineering"},
				{Email: "bob@example.edu", Status: "archived"},
			}
		})

		It("should drop rows outside the requested status", func() {
			users, err := service.UsersByStatus(ctx, "active")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users).To(HaveKey("alice@example.edu"))
		})

		It("should keep everything for the all status", func() {
			users, err := service.UsersByStatus(ctx, "all")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
		})

		It("should log through the run-scoped logger when the context carries one", func() {
			buf := &bytes.Buffer{}
			runLogger := slog.New(slog.NewTextHandler(buf, nil)).With("run_id", "reconcile-1")
			runCtx := logger.Into(ctx, runLogger)

			_, err := service.UsersByStatus(runCtx, "active")
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("retrieved platform users"))
			Expect(buf.String()).To(ContainSubstring("run_id=reconcile-1"))
		})
	})

	Describe("ListTrainingCampaigns", func() {
		BeforeEach(func() {
			platform.campaigns = []awarenessDatamodel.TrainingCampaign{
				{CampaignID: 1, Name: "2026 Annual", Status: "In Progress"},
				{CampaignID: 2, Name: "2025 Annual", Status: "Closed"},
			}
		})

		It("should filter by status", func() {
			campaigns, err := service.ListTrainingCampaigns(ctx, "In Progress")
			Expect(err).NotTo(HaveOccurred())
			Expect(campaigns).To(HaveLen(1))
			Expect(campaigns[0].CampaignID).To(Equal(1))
		})

		It("should pass everything through for All", func() {
			campaigns, err := service.ListTrainingCampaigns(ctx, "All")
			Expect(err).NotTo(HaveOccurred())
			Expect(campaigns).To(HaveLen(2))
		})

		It("should return nothing for an unknown status", func() {
			campaigns, err := service.ListTrainingCampaigns(ctx, "Imaginary")
			Expect(err).NotTo(HaveOccurred())
			Expect(campaigns).To(BeEmpty())
		})
	})

	Describe("BuildTrainingReport", func() {
		var users map[string]awarenessDatamodel.User

		BeforeEach(func() {
			users = map[string]awarenessDatamodel.User{
				"alice@example.edu": {Email: "alice@example.edu", Division: "Engineering", Department: "Platform"},
			}
			platform.enrollments[10] = []awarenessDatamodel.Enrollment{
				{
					ModuleName: "Security Basics",
					Status:     "Passed",
					User:       awarenessDatamodel.EnrollmentUser{Email: "alice@example.edu", FirstName: "Alice", LastName: "Zimmer"},
				},
				{
					ModuleName: "Ghost Module",
					Status:     "Past Due",
					User:       awarenessDatamodel.EnrollmentUser{Email: "departed@example.edu"},
				},
			}
			platform.enrollments[11] = []awarenessDatamodel.Enrollment{
				{
					ModuleName: "Phishing Awareness",
					Status:     "Past Due",
					User:       awarenessDatamodel.EnrollmentUser{Email: "alice@example.edu", FirstName: "Alice", LastName: "Zimmer"},
				},
			}
		})

		It("should join enrollments across campaigns with directory attributes", func() {
			report, err := service.BuildTrainingReport(ctx, []int{10, 11}, users)
			Expect(err).NotTo(HaveOccurred())
			Expect(report).To(HaveLen(1))

			alice := report["alice@example.edu"]
			Expect(alice.Division).To(Equal("Engineering"))
			Expect(alice.Department).To(Equal("Platform"))
			Expect(alice.LastName).To(Equal("Zimmer"))
			Expect(alice.Assignments).To(Equal([]awareness.TrainingRecord{
				{ModuleName: "Security Basics", Status: "Passed"},
				{ModuleName: "Phishing Awareness", Status: "Past Due"},
			}))
		})

		It("should skip enrollments for users missing from the listing", func() {
			report, err := service.BuildTrainingReport(ctx, []int{10}, users)
			Expect(err).NotTo(HaveOccurred())
			Expect(report).NotTo(HaveKey("departed@example.edu"))
		})

		It("should fail the run when a campaign fetch fails", func() {
			platform.SetShouldFail(true, errors.New("api unavailable"))
			_, err := service.BuildTrainingReport(ctx, []int{10}, users)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("api unavailable"))
		})
	})

	Describe("PastDueEmails", func() {
		It("should pick exactly the users with a past due assignment", func() {
			report := awareness.TrainingReport{
				"late@example.edu": &awareness.UserTraining{
					Assignments: []awareness.TrainingRecord{{ModuleName: "A", Status: "Past Due"}},
				},
				"done@example.edu": &awareness.UserTraining{
					Assignments: []awareness.TrainingRecord{{ModuleName: "A", Status: "Passed"}},
				},
			}
			pastDue := service.PastDueEmails(report)
			Expect(pastDue).To(HaveLen(1))
			Expect(pastDue).To(HaveKey("late@example.edu"))
		})
	})

	Describe("BuildPhishingReport", func() {
		BeforeEach(func() {
			platform.recipients[7] = []awarenessDatamodel.Recipient{
				{PstID: 7, User: awarenessDatamodel.EnrollmentUser{Email: "alice@example.edu"}},
			}
			platform.recipients[8] = []awarenessDatamodel.Recipient{
				{PstID: 8, User: awarenessDatamodel.EnrollmentUser{Email: "alice@example.edu"}},
			}
		})

		It("should group outcomes by email then test", func() {
			report, err := service.BuildPhishingReport(ctx, []int{7, 8})
			Expect(err).NotTo(HaveOccurred())
			Expect(report["alice@example.edu"]).To(HaveLen(2))
		})

		It("should return an empty report for no selected tests", func() {
			report, err := service.BuildPhishingReport(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(report).To(BeEmpty())
		})
	})
})
