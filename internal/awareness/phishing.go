package awareness

import (
	"sort"

	awarenessDatamodel "github.com/oit-infosec/awareness-compliance/internal/core/datamodel/awareness"
)

// PhishFlag is a user's worst outcome across the selected phishing
// simulations. Severity is fixed: data entry outranks a bare click.
type PhishFlag int

const (
	PhishNone PhishFlag = iota
	PhishClicked
	PhishSubmittedData
)

// Message is the sentence appended to a user's line in the division
// report. Empty for PhishNone.
func (f PhishFlag) Message() string {
	switch f {
	case PhishSubmittedData:
		return "This person submitted data, such as a username or password, in a recent phishing simulation exercise."
	case PhishClicked:
		return "This person clicked the phishing link in a recent phishing simulation exercise, but they stopped before submitting any information to the site."
	default:
		return ""
	}
}

// PhishStatus takes a user's outcomes across every selected simulation
// and returns the maximum severity: a single data entry in any campaign
// flags them regardless of the rest.
func PhishStatus(outcomes map[int]awarenessDatamodel.Recipient) PhishFlag {
	flag := PhishNone
	for _, outcome := range outcomes {
		if outcome.DataEnteredAt != nil {
			return PhishSubmittedData
		}
		if outcome.ClickedAt != nil {
			flag = PhishClicked
		}
	}
	return flag
}

// StatusFor looks a user up in the report; users absent from every
// selected simulation carry no flag.
func (r PhishingReport) StatusFor(email string) PhishFlag {
	outcomes, ok := r[email]
	if !ok {
		return PhishNone
	}
	return PhishStatus(outcomes)
}

// RepeatOffenders picks out users who entered data in more than one
// simulation, and separately users who clicked in more than one (data
// submitters excluded from the click list). Both lists are sorted.
func RepeatOffenders(report PhishingReport) (multiSubmitters, multiClickers []string) {
	submitted := make(map[string]bool)

	for email, outcomes := range report {
		submitCount := 0
		for _, outcome := range outcomes {
			if outcome.DataEnteredAt != nil {
				submitCount++
			}
		}
		if submitCount > 1 {
			multiSubmitters = append(multiSubmitters, email)
			submitted[email] = true
		}
	}

	for email, outcomes := range report {
		if submitted[email] {
			continue
		}
		clickCount := 0
		for _, outcome := range outcomes {
			if outcome.ClickedAt != nil {
				clickCount++
			}
		}
		if clickCount > 1 {
			multiClickers = append(multiClickers, email)
		}
	}

	sort.Strings(multiSubmitters)
	sort.Strings(multiClickers)
	return multiSubmitters, multiClickers
}
