package awareness_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/oit-infosec/awareness-compliance/internal/awareness"
)

var _ = Describe("EvaluateCompliance", func() {
	Context("when every assignment is passed", func() {
		It("should report complete", func() {
			status := awareness.EvaluateCompliance([]awareness.TrainingRecord{
				{ModuleName: "Security Basics", Status: "Passed"},
				{ModuleName: "Phishing Awareness", Status: "Passed"},
			})
			Expect(status.Complete).To(BeTrue())
			Expect(status.IncompleteModules).To(BeEmpty())
		})
	})

	Context("when some assignments are not passed", func() {
		It("should list exactly the not-passed modules in encounter order", func() {
			status := awareness.EvaluateCompliance([]awareness.TrainingRecord{
				{ModuleName: "Zebra Module", Status: "Past Due"},
				{ModuleName: "Security Basics", Status: "Passed"},
				{ModuleName: "Alpha Module", Status: "Enrolled"},
			})
			Expect(status.Complete).To(BeFalse())
			Expect(status.IncompleteModules).To(Equal([]string{"Zebra Module", "Alpha Module"}))
		})

		It("should not treat near-miss statuses as passed", func() {
			status := awareness.EvaluateCompliance([]awareness.TrainingRecord{
				{ModuleName: "Security Basics", Status: "passed"},
			})
			Expect(status.Complete).To(BeFalse())
			Expect(status.IncompleteModules).To(Equal([]string{"Security Basics"}))
		})
	})

	Context("when the user has no assignments", func() {
		It("should not count as complete", func() {
			status := awareness.EvaluateCompliance(nil)
			Expect(status.Complete).To(BeFalse())
			Expect(status.IncompleteModules).To(BeEmpty())
		})
	})
})

var _ = Describe("HasPastDue", func() {
	It("should flag a user with any past due assignment", func() {
		Expect(awareness.HasPastDue([]awareness.TrainingRecord{
			{ModuleName: "A", Status: "Passed"},
			{ModuleName: "B", Status: "Past Due"},
		})).To(BeTrue())
	})

	It("should require the exact status string", func() {
		Expect(awareness.HasPastDue([]awareness.TrainingRecord{
			{ModuleName: "A", Status: "past due"},
			{ModuleName: "B", Status: "Enrolled"},
		})).To(BeFalse())
	})

	It("should not flag a user with no assignments", func() {
		Expect(awareness.HasPastDue(nil)).To(BeFalse())
	})
})
