package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oit-infosec/awareness-compliance/internal/awareness"
)

var phishingReportCmd = &cobra.Command{
	Use:   "phishing-report",
	Short: "List repeat clickers and data submitters across phishing tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPhishingReport(cmd.Context())
	},
}

func runPhishingReport(ctx context.Context) error {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		return err
	}

	selected := phishingIDs
	if len(selected) == 0 {
		tests, err := deps.Awareness.ListSecurityTests(ctx, testStatus)
		if err != nil {
			return err
		}
		fmt.Println("\nPhishing security tests")
		for _, test := range tests {
			fmt.Printf("Name: %s - ID: %d (%s)\n", test.Name, test.PstID, test.Status)
		}
		selected, err = promptIDs("Which security tests should be in the report? Separate multiples with commas: ")
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			return fmt.Errorf("no security tests selected")
		}
	}

	phishingReport, err := deps.Awareness.BuildPhishingReport(ctx, selected)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d users in the phishing report\n", len(phishingReport))

	multiSubmitters, multiClickers := awareness.RepeatOffenders(phishingReport)

	fmt.Println("\nUsers who entered data in more than one of the selected simulations:")
	for _, email := range multiSubmitters {
		fmt.Println(" ", email)
	}

	fmt.Println("\nUsers who clicked the link in more than one of the selected simulations:")
	for _, email := range multiClickers {
		fmt.Println(" ", email)
	}

	return nil
}
