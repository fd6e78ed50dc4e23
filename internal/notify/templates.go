package notify

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/gwplsec/backend/internal/career"
	"github.com/gwplsec/backend/internal/submission"
)

const brandHeader = `
<div style="background:#0d0d0d;padding:16px 32px;border-bottom:3px solid #c9a84c;">
  <span style="font-family:sans-serif;font-weight:900;font-size:1.1rem;color:#f5f5f5;letter-spacing:0.1em;">
    GWPL <span style="color:#c9a84c">SECURITY</span>
  </span>
</div>`

const brandFooter = `
<div style="background:#0a0a0a;padding:20px 32px;border-top:1px solid #222;margin-top:32px;">
  <p style="font-family:sans-serif;font-size:0.72rem;color:#555;margin:0;">
    This communication is classified and intended solely for the named recipient.
    GWPL Security — A Goodworths Partners subsidiary.
  </p>
</div>`

var (
	gsocAlertTmpl = template.Must(template.New("gsoc_alert").Parse(brandHeader + `
<div style="font-family:sans-serif;max-width:640px;padding:28px 32px;background:#111;color:#ccc;">
  <p style="font-size:0.65rem;font-weight:800;letter-spacing:0.25em;text-transform:uppercase;color:#e74c3c;">
    New {{.ThreatLabel}} threat submission
  </p>
  <table style="width:100%;border-collapse:collapse;font-size:0.88rem;">
    <tr><td style="padding:10px 0;color:#888;width:40%">Reference</td><td style="color:#c9a84c;font-weight:700">{{.Case.ReferenceNumber}}</td></tr>
    <tr><td style="padding:10px 0;color:#888">Threat Level</td><td style="text-transform:uppercase">{{.ThreatLabel}}</td></tr>
    <tr><td style="padding:10px 0;color:#888">Contact</td><td>{{.Case.FirstName}} {{.Case.LastName}}{{if .Case.JobTitle}} ({{.Case.JobTitle}}){{end}}</td></tr>
    <tr><td style="padding:10px 0;color:#888">Organisation</td><td>{{.Case.OrganisationName}}</td></tr>
    <tr><td style="padding:10px 0;color:#888">Phone</td><td>{{.Case.PhonePrimary}}</td></tr>
    <tr><td style="padding:10px 0;color:#888">Email</td><td>{{.Case.Email}}</td></tr>
    {{if .Case.ThreatType}}<tr><td style="padding:10px 0;color:#888">Threat Type</td><td>{{.Case.ThreatType}}</td></tr>{{end}}
    {{if .Case.StateRegion}}<tr><td style="padding:10px 0;color:#888">Location</td><td>{{.Case.StateRegion}}{{if .Case.SiteLocation}}, {{.Case.SiteLocation}}{{end}}</td></tr>{{end}}
    <tr><td style="padding:10px 0;color:#888">Summary</td><td>{{.Summary}}</td></tr>
  </table>
  <p style="margin-top:28px;">
    <a href="{{.BaseURL}}/admin" style="background:#c9a84c;color:#0d0d0d;font-weight:800;padding:14px 28px;text-decoration:none;">VIEW IN ADMIN DASHBOARD</a>
  </p>
</div>` + brandFooter))

	submitterAckTmpl = template.Must(template.New("submitter_ack").Parse(brandHeader + `
<div style="font-family:sans-serif;max-width:640px;padding:28px 32px;background:#111;color:#999;">
  <h2 style="color:#f5f5f5;font-size:1.2rem;">Your request has been received.</h2>
  <p style="line-height:1.8;">
    Dear {{.Case.FirstName}},<br><br>
    Your Emergency Security Audit Request has been securely transmitted to our GSOC Duty Officer
    and will be treated as classified. A member of our team will contact you within the
    timeframes below.
  </p>
  <div style="border:1px solid rgba(201,168,76,0.2);padding:20px 24px;margin:24px 0;">
    <p style="font-size:0.62rem;letter-spacing:0.25em;text-transform:uppercase;color:#c9a84c;margin:0 0 12px;">Your Reference Number</p>
    <p style="font-size:1.5rem;font-weight:900;color:#f5f5f5;letter-spacing:0.15em;margin:0;">{{.Case.ReferenceNumber}}</p>
  </div>
  <table style="width:100%;border-collapse:collapse;font-size:0.85rem;color:#ccc;">
    <tr><td style="padding:10px 14px;border:1px solid #222">Acknowledgement</td><td style="border:1px solid #222;color:#c9a84c;font-weight:700">Within 2 hours</td></tr>
    <tr><td style="padding:10px 14px;border:1px solid #222">Preliminary Call</td><td style="border:1px solid #222;color:#c9a84c;font-weight:700">Within 4 hours</td></tr>
    <tr><td style="padding:10px 14px;border:1px solid #222">Field Assessment</td><td style="border:1px solid #222;color:#c9a84c;font-weight:700">Within 24 hours</td></tr>
    <tr><td style="padding:10px 14px;border:1px solid #222">Full Written Report</td><td style="border:1px solid #222;color:#c9a84c;font-weight:700">Within 72 hours</td></tr>
  </table>
  <p style="color:#777;font-size:0.82rem;line-height:1.7;margin-top:24px;">
    For urgent situations, contact our GSOC Emergency Hotline directly:<br>
    <strong style="color:#f5f5f5">+234 800 GWPL SEC</strong> (24/7)
  </p>
</div>` + brandFooter))

	careerConfirmTmpl = template.Must(template.New("career_confirm").Parse(brandHeader + `
<div style="font-family:sans-serif;max-width:640px;padding:28px 32px;background:#111;color:#999;">
  <h2 style="color:#f5f5f5;font-size:1.2rem;">Application Received — The Road to GOLD Begins.</h2>
  <p style="line-height:1.8;">
    Dear {{.Application.FirstName}},<br><br>
    Thank you for applying to join GWPL Security. Your application for
    <strong style="color:#c9a84c">{{.Application.PositionApplied}}</strong> has been received and
    assigned to our GWPL-GOLD Recruitment Board for review.
  </p>
  <div style="border:1px solid rgba(201,168,76,0.2);padding:20px 24px;margin:24px 0;">
    <p style="font-size:0.62rem;letter-spacing:0.25em;text-transform:uppercase;color:#c9a84c;margin:0 0 8px;">Application Reference</p>
    <p style="font-size:1.3rem;font-weight:900;color:#f5f5f5;letter-spacing:0.15em;margin:0;">{{.Application.ReferenceNumber}}</p>
  </div>
  <p style="color:#777;font-size:0.85rem;line-height:1.8;">
    We will be in touch within 5-7 working days if your profile meets our requirements.
    Please keep your phone <strong style="color:#f5f5f5">{{.Application.Phone}}</strong> available.
  </p>
</div>` + brandFooter))

	hrAlertTmpl = template.Must(template.New("hr_alert").Parse(brandHeader + `
<div style="font-family:sans-serif;max-width:640px;padding:28px 32px;background:#111;color:#ccc;">
  <p style="font-size:0.65rem;font-weight:800;letter-spacing:0.25em;text-transform:uppercase;color:#c9a84c;">New Career Application</p>
  <table style="width:100%;border-collapse:collapse;font-size:0.88rem;">
    <tr><td style="padding:10px 0;color:#888;width:40%">Reference</td><td style="color:#c9a84c">{{.Application.ReferenceNumber}}</td></tr>
    <tr><td style="padding:10px 0;color:#888">Applicant</td><td>{{.Application.FirstName}} {{.Application.LastName}}</td></tr>
    <tr><td style="padding:10px 0;color:#888">Position</td><td>{{.Application.PositionApplied}}</td></tr>
    <tr><td style="padding:10px 0;color:#888">Email</td><td>{{.Application.Email}}</td></tr>
    <tr><td style="padding:10px 0;color:#888">Phone</td><td>{{.Application.Phone}}</td></tr>
    <tr><td style="padding:10px 0;color:#888">Military Background</td><td>{{.MilitaryLabel}}</td></tr>
  </table>
  <p style="margin-top:24px;">
    <a href="{{.BaseURL}}/admin" style="background:#c9a84c;color:#0d0d0d;font-weight:800;padding:14px 28px;text-decoration:none;">REVIEW APPLICATION</a>
  </p>
</div>` + brandFooter))
)

// Templates builds the four outbound messages. Alert recipients and the
// dashboard link come from configuration.
type Templates struct {
	BaseURL     string
	GSOCAlertTo string
	HRAlertTo   string
}

func render(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return ""
	}
	return b.String()
}

func threatLabel(level string) string {
	if level == "" {
		level = submission.ThreatRoutine
	}
	return strings.ToUpper(level)
}

// GSOCAlert is the staff alert sent to the GSOC duty inbox for every new
// audit request.
func (t Templates) GSOCAlert(c *submission.Case) Message {
	label := threatLabel(c.ThreatLevel)
	summary := c.SituationSummary
	if summary == "" {
		summary = "See admin dashboard"
	}
	return Message{
		To:      t.GSOCAlertTo,
		Subject: fmt.Sprintf("[%s] New Audit Request — %s", label, c.ReferenceNumber),
		HTML: render(gsocAlertTmpl, struct {
			Case        *submission.Case
			ThreatLabel string
			Summary     string
			BaseURL     string
		}{c, label, summary, t.BaseURL}),
		Template:   TemplateGSOCAlert,
		EntityType: "audit",
		EntityID:   c.ID,
	}
}

// SubmitterAck is the acknowledgement sent to whoever filed an audit
// request.
func (t Templates) SubmitterAck(c *submission.Case) Message {
	return Message{
		To:      c.Email,
		Subject: fmt.Sprintf("GWPL Security — Request Received [%s]", c.ReferenceNumber),
		HTML: render(submitterAckTmpl, struct {
			Case    *submission.Case
			BaseURL string
		}{c, t.BaseURL}),
		Template:   TemplateSubmitterAck,
		EntityType: "audit",
		EntityID:   c.ID,
	}
}

// CareerConfirm is the confirmation sent to a career applicant.
func (t Templates) CareerConfirm(a *career.Application) Message {
	return Message{
		To:      a.Email,
		Subject: fmt.Sprintf("GWPL Security — Application Received [%s]", a.ReferenceNumber),
		HTML: render(careerConfirmTmpl, struct {
			Application *career.Application
			BaseURL     string
		}{a, t.BaseURL}),
		Template:   TemplateCareerConfirm,
		EntityType: "careers",
		EntityID:   a.ID,
	}
}

// HRAlert is the staff alert sent to the recruitment inbox for every new
// application.
func (t Templates) HRAlert(a *career.Application) Message {
	military := "No"
	if a.MilitaryBackground {
		military = "Yes"
		if a.MilitaryBranch != "" {
			military = "Yes, " + a.MilitaryBranch
		}
	}
	return Message{
		To:      t.HRAlertTo,
		Subject: fmt.Sprintf("New Application: %s — %s %s", a.PositionApplied, a.FirstName, a.LastName),
		HTML: render(hrAlertTmpl, struct {
			Application   *career.Application
			MilitaryLabel string
			BaseURL       string
		}{a, military, t.BaseURL}),
		Template:   TemplateHRAlert,
		EntityType: "careers",
		EntityID:   a.ID,
	}
}
