package pastdue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oit-infosec/awareness-compliance/internal"
	"github.com/oit-infosec/awareness-compliance/internal/awareness"
	awarenessDatamodel "github.com/oit-infosec/awareness-compliance/internal/core/datamodel/awareness"
	"github.com/oit-infosec/awareness-compliance/internal/directory"
	"github.com/oit-infosec/awareness-compliance/pkg/logger"
)

// AwarenessAPI is what the run needs from the training platform.
type AwarenessAPI interface {
	ActiveUsers(ctx context.Context) (map[string]awarenessDatamodel.User, error)
	BuildTrainingReport(ctx context.Context, campaignIDs []int, users map[string]awarenessDatamodel.User) (awareness.TrainingReport, error)
	PastDueEmails(report awareness.TrainingReport) map[string]struct{}
}

// DirectoryAPI is what the run needs from Active Directory.
type DirectoryAPI interface {
	GroupMembers(groupName string) (map[string]struct{}, error)
	UpdateGroup(groupDN string, additions, removals []string) directory.OpResults
}

type Sender interface {
	SendHTML(to, subject, bodyHTML string, headers map[string]string) error
}

// RunSummary is what one reconciliation run did.
type RunSummary struct {
	RunID          string
	CurrentMembers int
	PastDueUsers   int
	Additions      []string
	Removals       []string
	Results        directory.OpResults
}

func (s *RunSummary) Changed() bool {
	return s.Results.Changed()
}

// Service reconciles the past-due AD group with the set of users whose
// training is past due. The group gates conditional access to high-risk
// applications, so the run is fail-closed: any failure while gathering
// data aborts before a single directory mutation is attempted.
type Service struct {
	awareness AwarenessAPI
	directory DirectoryAPI
	mailer    Sender

	campaigns internal.CampaignConfig
	dirCfg    internal.DirectoryConfig
	smtpCfg   internal.SMTPConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	awarenessAPI AwarenessAPI,
	directoryAPI DirectoryAPI,
	sender Sender,
	campaigns internal.CampaignConfig,
	dirCfg internal.DirectoryConfig,
	smtpCfg internal.SMTPConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		awareness: awarenessAPI,
		directory: directoryAPI,
		mailer:    sender,
		campaigns: campaigns,
		dirCfg:    dirCfg,
		smtpCfg:   smtpCfg,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the run's notion of "now". Tests pin the year.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Run(ctx context.Context) (*RunSummary, error) {
	runID := internal.NewRunID()
	log := s.logger.With("run_id", runID)
	ctx = logger.Into(ctx, log)

	// The campaign ID list is maintained by hand each training cycle; a
	// stale year means the list no longer matches reality, and clearing
	// the group against the wrong campaigns would unblock everyone.
	if s.campaigns.TrainingYear != s.now().Year() {
		return nil, &internal.AppError{
			Type:    internal.ErrorTypeConfig,
			Code:    internal.ErrCodeTrainingYear,
			Message: fmt.Sprintf("training_year %d does not match the current year; update training_year and training_campaign_ids", s.campaigns.TrainingYear),
		}
	}

	current, err := s.directory.GroupMembers(s.dirCfg.GroupName)
	if err != nil {
		return nil, fmt.Errorf("fetching current group membership: %w", err)
	}
	log.Info("fetched current group membership",
		"group", s.dirCfg.GroupName,
		"members", len(current))

	summary := &RunSummary{RunID: runID, CurrentMembers: len(current)}

	desired, err := s.gatherPastDue(ctx)
	if err != nil {
		s.notifyOperator("information gathering", err)
		return nil, fmt.Errorf("gathering past-due users: %w", err)
	}
	summary.PastDueUsers = len(desired)

	summary.Additions, summary.Removals = directory.ComputeDelta(current, desired, s.dirCfg.Exceptions)
	log.Info("computed membership delta",
		"additions", summary.Additions,
		"removals", summary.Removals)

	if len(summary.Additions) == 0 && len(summary.Removals) == 0 {
		log.Info("group already matches past-due set, nothing to do")
		return summary, nil
	}

	summary.Results = s.directory.UpdateGroup(s.dirCfg.GroupDN, summary.Additions, summary.Removals)

	if failures := summary.Results.Failures(); len(failures) > 0 {
		log.Warn("some membership updates failed", "failed", len(failures))
	}

	if summary.Changed() {
		if err := s.mailer.SendHTML(
			s.smtpCfg.RecipientAddress,
			s.smtpCfg.Subject,
			s.changeReport(summary),
			nil,
		); err != nil {
			// The group is already updated; a lost summary mail is not
			// worth failing the run over.
			log.Error("failed to send change summary", "error", err)
		}
	}

	return summary, nil
}

// gatherPastDue pulls everything needed from the platform and returns
// the desired group membership as lowercase account names. Any error
// aborts the run before mutation.
func (s *Service) gatherPastDue(ctx context.Context) (map[string]struct{}, error) {
	users, err := s.awareness.ActiveUsers(ctx)
	if err != nil {
		return nil, err
	}

	trainingReport, err := s.awareness.BuildTrainingReport(ctx, s.campaigns.TrainingCampaignIDs, users)
	if err != nil {
		return nil, err
	}

	desired := make(map[string]struct{})
	for email := range s.awareness.PastDueEmails(trainingReport) {
		desired[accountName(email)] = struct{}{}
	}
	return desired, nil
}

// accountName maps a platform email to the directory account name. The
// deployment provisions mailboxes as <account>@<domain>, so the local
// part, lowercased, is the CN the group holds.
func accountName(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		email = email[:at]
	}
	return strings.ToLower(email)
}

func (s *Service) changeReport(summary *RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following is a list of changes made to the %s group in Active Directory<br />\n", s.dirCfg.GroupName)
	fmt.Fprintf(&b, "%s group additions: %s<br />\n", s.dirCfg.GroupName, strings.Join(summary.Results.Succeeded(directory.OpAdd), ", "))
	fmt.Fprintf(&b, "%s group removals: %s<br />\n", s.dirCfg.GroupName, strings.Join(summary.Results.Succeeded(directory.OpRemove), ", "))

	if failures := summary.Results.Failures(); len(failures) > 0 {
		b.WriteString("The following updates failed and need manual attention:<br />\n")
		for _, failure := range failures {
			fmt.Fprintf(&b, "%s of %s: %v<br />\n", failure.Op, failure.Identity, failure.Err)
		}
	}
	return b.String()
}

// notifyOperator emails the configured operator about an aborted run.
// The mail is best-effort; the original error is what the caller sees.
func (s *Service) notifyOperator(section string, cause error) {
	subject := fmt.Sprintf("Error during past-due group sync (%s)", section)
	body := fmt.Sprintf("The past-due group sync aborted during %s, before any directory changes were made.<br />\nError: %v", section, cause)

	if err := s.mailer.SendHTML(s.smtpCfg.RecipientAddress, subject, body, nil); err != nil {
		s.logger.Error("failed to send operator notification", "error", err)
	}
}
