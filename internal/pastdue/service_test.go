package pastdue_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/oit-infosec/awareness-compliance/internal"
	"github.com/oit-infosec/awareness-compliance/internal/awareness"
	awarenessDatamodel "github.com/oit-infosec/awareness-compliance/internal/core/datamodel/awareness"
	"github.com/oit-infosec/awareness-compliance/internal/directory"
	"github.com/oit-infosec/awareness-compliance/internal/pastdue"
)

type fakeAwareness struct {
	users      map[string]awarenessDatamodel.User
	report     awareness.TrainingReport
	shouldFail bool
	failError  error
}

func (f *fakeAwareness) ActiveUsers(ctx context.Context) (map[string]awarenessDatamodel.User, error) {
	if f.shouldFail {
		return nil, f.failError
	}
	return f.users, nil
}

func (f *fakeAwareness) BuildTrainingReport(ctx context.Context, campaignIDs []int, users map[string]awarenessDatamodel.User) (awareness.TrainingReport, error) {
	if f.shouldFail {
		return nil, f.failError
	}
	return f.report, nil
}

func (f *fakeAwareness) PastDueEmails(report awareness.TrainingReport) map[string]struct{} {
	pastDue := make(map[string]struct{})
	for email, training := range report {
		if awareness.HasPastDue(training.Assignments) {
			pastDue[email] = struct{}{}
		}
	}
	return pastDue
}

type fakeDirectory struct {
	members     map[string]struct{}
	membersErr  error
	failModify  map[string]bool
	updateCalls int

	lastAdditions []string
	lastRemovals  []string
}

func (f *fakeDirectory) GroupMembers(groupName string) (map[string]struct{}, error) {
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.members, nil
}

func (f *fakeDirectory) UpdateGroup(groupDN string, additions, removals []string) directory.OpResults {
	f.updateCalls++
	f.lastAdditions = additions
	f.lastRemovals = removals

	var results directory.OpResults
	for _, identity := range additions {
		result := directory.OpResult{Op: directory.OpAdd, Identity: identity}
		if f.failModify[identity] {
			result.Err = errors.New("insufficient access")
		}
		results = append(results, result)
	}
	for _, identity := range removals {
		result := directory.OpResult{Op: directory.OpRemove, Identity: identity}
		if f.failModify[identity] {
			result.Err = errors.New("insufficient access")
		}
		results = append(results, result)
	}
	return results
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeSender struct {
	sent    []sentMail
	sendErr error
}

func (f *fakeSender) SendHTML(to, subject, bodyHTML string, headers map[string]string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: bodyHTML})
	return nil
}

func pastDueUser(email string) *awareness.UserTraining {
	return &awareness.UserTraining{
		Email:       email,
		Assignments: []awareness.TrainingRecord{{ModuleName: "Security Basics", Status: "Past Due"}},
	}
}

func memberSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

var _ = Describe("PastDue Service", func() {
	var (
		awarenessAPI *fakeAwareness
		directoryAPI *fakeDirectory
		sender       *fakeSender
		service      *pastdue.Service
	)

	campaigns := internal.CampaignConfig{
		TrainingCampaignIDs: []int{10},
		TrainingYear:        2026,
	}
	dirCfg := internal.DirectoryConfig{
		GroupName:  "training_past_due",
		GroupDN:    "cn=training_past_due,ou=groups,dc=example,dc=edu",
		Exceptions: []string{"d"},
	}
	smtpCfg := internal.SMTPConfig{
		RecipientAddress: "operator@example.edu",
		Subject:          "Past-due group changes",
	}

	clock2026 := func() time.Time {
		return time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	}

	newService := func() *pastdue.Service {
		return pastdue.NewService(
			awarenessAPI, directoryAPI, sender,
			campaigns, dirCfg, smtpCfg,
			testLogger(),
		).WithClock(clock2026)
	}

	BeforeEach(func() {
		awarenessAPI = &fakeAwareness{
			users: map[string]awarenessDatamodel.User{},
			report: awareness.TrainingReport{
				"b@example.edu": pastDueUser("b@example.edu"),
				"c@example.edu": pastDueUser("c@example.edu"),
				"d@example.edu": pastDueUser("d@example.edu"),
			},
		}
		directoryAPI = &fakeDirectory{members: memberSet("a", "b", "c")}
		sender = &fakeSender{}
		service = newService()
	})

	Context("with past-due users, an exception, and a stale member", func() {
		It("should remove only the stale member and never add the excepted user", func() {
			summary, err := service.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(summary.Additions).To(BeEmpty())
			Expect(summary.Removals).To(Equal([]string{"a"}))
			Expect(directoryAPI.updateCalls).To(Equal(1))
			Expect(directoryAPI.lastAdditions).To(BeEmpty())
			Expect(directoryAPI.lastRemovals).To(Equal([]string{"a"}))
		})

		It("should email the operator a change summary", func() {
			_, err := service.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(sender.sent).To(HaveLen(1))
			Expect(sender.sent[0].To).To(Equal("operator@example.edu"))
			Expect(sender.sent[0].Subject).To(Equal("Past-due group changes"))
			Expect(sender.sent[0].Body).To(ContainSubstring("removals: a"))
		})
	})

	Context("when the group already matches the past-due set", func() {
		BeforeEach(func() {
			directoryAPI.members = memberSet("b", "c")
		})

		It("should neither mutate nor email", func() {
			summary, err := service.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Changed()).To(BeFalse())
			Expect(directoryAPI.updateCalls).To(BeZero())
			Expect(sender.sent).To(BeEmpty())
		})
	})

	Context("when information gathering fails", func() {
		BeforeEach(func() {
			awarenessAPI.shouldFail = true
			awarenessAPI.failError = errors.New("api unavailable")
		})

		It("should abort before any mutation and notify the operator", func() {
			_, err := service.Run(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("api unavailable"))

			Expect(directoryAPI.updateCalls).To(BeZero())
			Expect(sender.sent).To(HaveLen(1))
			Expect(sender.sent[0].Subject).To(ContainSubstring("information gathering"))
		})
	})

	Context("when the configured training year is stale", func() {
		It("should refuse to run", func() {
			staleService := pastdue.NewService(
				awarenessAPI, directoryAPI, sender,
				internal.CampaignConfig{TrainingCampaignIDs: []int{10}, TrainingYear: 2025},
				dirCfg, smtpCfg,
				testLogger(),
			).WithClock(clock2026)

			_, err := staleService.Run(context.Background())
			Expect(err).To(HaveOccurred())

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeTrainingYear))
			Expect(directoryAPI.updateCalls).To(BeZero())
		})
	})

	Context("when every mutation fails", func() {
		BeforeEach(func() {
			directoryAPI.failModify = map[string]bool{"a": true}
		})

		It("should not send a change summary", func() {
			summary, err := service.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Changed()).To(BeFalse())
			Expect(sender.sent).To(BeEmpty())
		})
	})

	Context("when fetching current membership fails", func() {
		BeforeEach(func() {
			directoryAPI.membersErr = errors.New("bind expired")
		})

		It("should fail without mutating", func() {
			_, err := service.Run(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(directoryAPI.updateCalls).To(BeZero())
		})
	})
})
