package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/oit-infosec/awareness-compliance/internal/report"
	"github.com/spf13/cobra"
)

var trainingReportCmd = &cobra.Command{
	Use:   "training-report",
	Short: "Email per-division reports of incomplete training",
	Long: `Builds a division -> department -> user report of everyone with
incomplete training in the selected campaigns and emails each division
head, optionally annotated with phishing simulation results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrainingReport(cmd.Context())
	},
}

func runTrainingReport(ctx context.Context) error {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		return err
	}

	selected := campaignIDs
	if len(selected) == 0 {
		campaigns, err := deps.Awareness.ListTrainingCampaigns(ctx, campaignStatus)
		if err != nil {
			return err
		}
		for _, campaign := range campaigns {
			fmt.Printf("Campaign ID: %d, Name: %s, Status: %s, Start: %s, End: %s\n",
				campaign.CampaignID, campaign.Name, campaign.Status, campaign.StartDate, campaign.EndDate)
		}
		selected, err = promptIDs("Which training campaigns should be in the report? Separate multiples with commas: ")
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			return fmt.Errorf("no training campaigns selected")
		}
	}

	users, err := deps.Awareness.ActiveUsers(ctx)
	if err != nil {
		return err
	}

	trainingReport, err := deps.Awareness.BuildTrainingReport(ctx, selected, users)
	if err != nil {
		return err
	}

	phishingReport, err := deps.Awareness.BuildPhishingReport(ctx, phishingIDs)
	if err != nil {
		return err
	}

	divisionReport := report.Build(trainingReport, phishingReport)

	rendered, err := report.NewRenderer(deps.Config.Report).RenderAll(divisionReport)
	if err != nil {
		return err
	}

	for _, msg := range rendered {
		recipient := msg.Recipient
		if recipient == "" {
			// Divisions without configured heads go to the operator.
			recipient = deps.Config.SMTP.RecipientAddress
			deps.Logger.Warn("no recipient configured for division, sending to operator",
				"division", msg.Division)
		}
		if err := deps.Mailer.SendHTML(recipient, msg.Subject, msg.HTMLBody, nil); err != nil {
			deps.Logger.Error("failed to send division report",
				"division", msg.Division,
				"error", err)
			continue
		}
		deps.Logger.Info("sent division report", "division", msg.Division, "to", recipient)
	}

	return nil
}
