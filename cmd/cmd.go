package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/oit-infosec/awareness-compliance/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath     string
	campaignIDs    []int
	campaignStatus string
	testStatus     string
	phishingIDs    []int
)

var rootCmd = &cobra.Command{
	Use:   "awareness-compliance",
	Short: "Security awareness compliance automation",
	Long: `Reconciles the past-due training group in Active Directory and
generates per-division compliance reports from the awareness platform's
reporting API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("AWARENESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

// promptIDs reads a comma-separated ID list from stdin, mirroring the
// old interactive workflow for operators who don't pass flags.
func promptIDs(question string) ([]int, error) {
	fmt.Print(question)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading selection: %w", err)
	}

	line = strings.ReplaceAll(strings.TrimSpace(line), " ", "")
	if line == "" {
		return nil, nil
	}

	var ids []int
	for _, field := range strings.Split(line, ",") {
		id, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid campaign id %q", field)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yml")

	trainingReportCmd.Flags().IntSliceVar(&campaignIDs, "campaigns", nil, "training campaign IDs to report on (prompts when omitted)")
	trainingReportCmd.Flags().StringVar(&campaignStatus, "status", "In Progress", "campaign status filter for the selection listing (All, Completed, Closed, In Progress)")
	trainingReportCmd.Flags().IntSliceVar(&phishingIDs, "phishing-tests", nil, "phishing security test IDs to annotate the report with")

	phishingReportCmd.Flags().IntSliceVar(&phishingIDs, "tests", nil, "phishing security test IDs to report on (prompts when omitted)")
	phishingReportCmd.Flags().StringVar(&testStatus, "status", "All", "security test status filter for the selection listing")

	rootCmd.AddCommand(syncGroupCmd)
	rootCmd.AddCommand(trainingReportCmd)
	rootCmd.AddCommand(phishingReportCmd)
}
