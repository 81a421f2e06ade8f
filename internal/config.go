package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	Platform  PlatformConfig  `mapstructure:"platform"`
	Campaigns CampaignConfig  `mapstructure:"campaigns"`
	Directory DirectoryConfig `mapstructure:"directory"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Report    ReportConfig    `mapstructure:"report"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PlatformConfig points at the security-awareness platform's reporting API.
type PlatformConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIToken       string        `mapstructure:"api_token"`
	APITokenFile   string        `mapstructure:"api_token_file"`
	PerPage        int           `mapstructure:"per_page"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type CampaignConfig struct {
	// TrainingCampaignIDs is the year's training campaign set; it has to
	// be refreshed each January when the new cycle is created.
	TrainingCampaignIDs []int `mapstructure:"training_campaign_ids"`
	TrainingYear        int   `mapstructure:"training_year"`
}

type DirectoryConfig struct {
	URL          string   `mapstructure:"url"`
	BindUser     string   `mapstructure:"bind_user"`
	BindPassword string   `mapstructure:"bind_password"`
	SearchBase   string   `mapstructure:"search_base"`
	GroupName    string   `mapstructure:"group_name"`
	GroupDN      string   `mapstructure:"group_dn"`
	// UserOUMarker identifies an input that is already a full DN, e.g.
	// "ou=npuser" for a deployment whose people live under that OU.
	UserOUMarker string   `mapstructure:"user_ou_marker"`
	// Exceptions are identities granted a temporary pass: they are never
	// added to the group, but an existing membership is still removed
	// once they are no longer past due.
	Exceptions []string `mapstructure:"exceptions"`
}

type SMTPConfig struct {
	Server           string `mapstructure:"server"`
	Port             int    `mapstructure:"port"`
	RecipientAddress string `mapstructure:"recipient_address"`
	FromAddress      string `mapstructure:"from_address"`
	FromName         string `mapstructure:"from_name"`
	Subject          string `mapstructure:"subject"`
}

// ReportConfig drives the per-division compliance mailing.
type ReportConfig struct {
	TrainingStartDate string                  `mapstructure:"training_start_date"`
	TrainingEndDate   string                  `mapstructure:"training_end_date"`
	DefaultSalutation string                  `mapstructure:"default_salutation"`
	Divisions         map[string]DivisionInfo `mapstructure:"divisions"`
	// OverrideRecipient, when set, receives every division report instead
	// of the division heads. Useful while validating a new campaign year.
	OverrideRecipient string `mapstructure:"override_recipient"`
}

type DivisionInfo struct {
	Salutation string `mapstructure:"salutation"`
	Email      string `mapstructure:"email"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Platform.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("platform config: %v", err))
	}

	if err := c.Campaigns.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("campaigns config: %v", err))
	}

	if err := c.Directory.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("directory config: %v", err))
	}

	if err := c.SMTP.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("smtp config: %v", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *PlatformConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url %s: %w", c.BaseURL, err)
	}
	if c.APIToken == "" && c.APITokenFile == "" {
		return errors.New("one of api_token or api_token_file is required")
	}
	if c.PerPage < 0 || c.PerPage > 500 {
		return errors.New("per_page must be between 0 and 500")
	}
	return nil
}

func (c *CampaignConfig) Validate() error {
	if c.TrainingYear < 2000 {
		return errors.New("training_year must be a four digit year")
	}
	return nil
}

func (c *DirectoryConfig) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if c.BindUser == "" || c.BindPassword == "" {
		return errors.New("bind_user and bind_password are required")
	}
	if c.SearchBase == "" {
		return errors.New("search_base is required")
	}
	if c.GroupName == "" || c.GroupDN == "" {
		return errors.New("group_name and group_dn are required")
	}
	return nil
}

func (c *SMTPConfig) Validate() error {
	if c.Server == "" {
		return errors.New("server is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("port must be a valid TCP port")
	}
	if c.FromAddress == "" || c.RecipientAddress == "" {
		return errors.New("from_address and recipient_address are required")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	return nil
}
