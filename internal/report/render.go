package report

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/oit-infosec/awareness-compliance/internal"
)

// divisionTemplate is the body of one division head's email.
var divisionTemplate = template.Must(template.New("division").Parse(`<p>Dear {{.Salutation}},</p>
<p>As you know, all faculty and staff are required to complete Information Security Awareness training on an annual basis, per university, state, and federal requirements.</p>
<p>The following employees within your division have not yet completed the training this year. They were notified when the training was first assigned and periodically as the due date approached.</p>
<p>For faculty and staff who started before this year, the general training was assigned {{.TrainingStart}}, and was set to be due on {{.TrainingEnd}}. Training for newer employees is assigned on arrival with a due date three months later.</p>
<h3><u>Division: {{.Division}}</u></h3>
{{range .Departments}}{{if .ShowHeading}}<h4><u>Department: {{.Name}}</u></h4>
{{end}}<ul>
{{if .AllComplete}}<li>All faculty and staff in this department have completed all training modules assigned!</li>
{{else}}{{range .Users}}<li>{{.DisplayName}} ({{.Email}}) - incomplete training modules:
<ul>
{{range .Modules}}<li>{{.}}</li>
{{end}}{{if .PhishNote}}<li><b>Note: {{.PhishNote}}</b></li>
{{end}}</ul>
</li>
{{end}}{{end}}</ul>
{{end}}`))

type departmentView struct {
	Name        string
	ShowHeading bool
	AllComplete bool
	Users       []userView
}

type userView struct {
	DisplayName string
	Email       string
	Modules     []string
	PhishNote   string
}

type templateData struct {
	Salutation    string
	Division      string
	TrainingStart string
	TrainingEnd   string
	Departments   []departmentView
}

// RenderedReport is one division's outgoing mail.
type RenderedReport struct {
	Division  string
	Recipient string
	Subject   string
	HTMLBody  string
}

type Renderer struct {
	cfg internal.ReportConfig
}

func NewRenderer(cfg internal.ReportConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// RenderAll produces one email per division, in division-name order.
func (r *Renderer) RenderAll(rep *DivisionReport) ([]RenderedReport, error) {
	var rendered []RenderedReport
	for _, division := range rep.SortedDivisions() {
		msg, err := r.RenderDivision(division)
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, msg)
	}
	return rendered, nil
}

func (r *Renderer) RenderDivision(division *Division) (RenderedReport, error) {
	info, known := r.cfg.Divisions[division.Name]

	salutation := info.Salutation
	if !known || salutation == "" {
		salutation = r.cfg.DefaultSalutation
	}

	recipient := info.Email
	if r.cfg.OverrideRecipient != "" {
		recipient = r.cfg.OverrideRecipient
	}

	data := templateData{
		Salutation:    salutation,
		Division:      division.Name,
		TrainingStart: r.cfg.TrainingStartDate,
		TrainingEnd:   r.cfg.TrainingEndDate,
	}

	for _, dept := range division.SortedDepartments() {
		view := departmentView{
			Name: dept.Name,
			// A department that IS the division (small units double up)
			// doesn't need its own heading.
			ShowHeading: dept.Name != division.Name,
			AllComplete: dept.AllComplete(),
		}

		for _, user := range dept.Users {
			if user.Status.Complete {
				continue
			}
			modules := make([]string, len(user.Status.IncompleteModules))
			copy(modules, user.Status.IncompleteModules)
			sort.Strings(modules)

			view.Users = append(view.Users, userView{
				DisplayName: user.DisplayName,
				Email:       user.Email,
				Modules:     modules,
				PhishNote:   user.Phish.Message(),
			})
		}

		data.Departments = append(data.Departments, view)
	}

	var body strings.Builder
	if err := divisionTemplate.Execute(&body, data); err != nil {
		return RenderedReport{}, fmt.Errorf("render division %q: %w", division.Name, err)
	}

	return RenderedReport{
		Division:  division.Name,
		Recipient: recipient,
		Subject:   fmt.Sprintf("Faculty and staff in %s who have not completed the annual security awareness training", division.Name),
		HTMLBody:  body.String(),
	}, nil
}
