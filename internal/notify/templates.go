package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const signature = "The Hirezaa Team"

// lineBreak stands in for <br> while whitespace is collapsed.
const lineBreak = "{{br}}"

var inviteTemplate = template.Must(template.New("invite").Parse(`<html><body>
<h2>Technical assessment: {{.JobTitle}}</h2>
<p>Hi {{.CandidateName}},</p>
<p>Congratulations! You have been shortlisted for the {{.JobTitle}} position{{if .Company}} at {{.Company}}{{end}}.</p>
<p>Please complete the technical assessment using the link below.{{if .TimeLimitMinutes}} Once started, you will have {{.TimeLimitMinutes}} minutes to finish.{{end}}</p>
<p><a href="{{.Link}}">Start assessment</a></p>
<p>The link expires on {{.Deadline}}.</p>
<p>Best regards,<br>{{.Signature}}</p>
</body></html>`))

var selectionTemplate = template.Must(template.New("selection").Parse(`<html><body>
<h2>Congratulations! You've been selected</h2>
<p>Hi {{.CandidateName}},</p>
<p>We are pleased to let you know that you have been selected for the {{.JobTitle}} position{{if .Company}} at {{.Company}}{{end}}.</p>
<p>The hiring team will contact you shortly with next steps.</p>
<p>Best regards,<br>{{.Signature}}</p>
</body></html>`))

var rejectionTemplate = template.Must(template.New("rejection").Parse(`<html><body>
<h2>Update on your application for {{.JobTitle}}</h2>
<p>Hi {{.CandidateName}},</p>
<p>Thank you for your interest in the {{.JobTitle}} position{{if .Company}} at {{.Company}}{{end}}. After careful consideration, we have decided to move forward with other candidates.</p>
<p>We encourage you to apply for future openings.</p>
<p>Best regards,<br>{{.Signature}}</p>
</body></html>`))

type emailData struct {
	CandidateName    string
	JobTitle         string
	Company          string
	Link             string
	Deadline         string
	TimeLimitMinutes int
	Signature        string
}

func render(tmpl *template.Template, to, subject string, data emailData) (Message, error) {
	if data.CandidateName == "" {
		data.CandidateName = "there"
	}
	data.Signature = signature

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	html := buf.String()

	text, err := PlainText(html)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: html, Text: text}, nil
}

// PlainText derives the text/plain alternative of an HTML email: one line per
// heading or paragraph, with link targets written out after their text.
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse email html: %w", err)
	}

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			s.SetText(fmt.Sprintf("%s: %s", strings.TrimSpace(s.Text()), href))
		}
	})
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml(lineBreak)
	})

	var lines []string
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		collapsed := strings.Join(strings.Fields(s.Text()), " ")
		var parts []string
		for _, part := range strings.Split(collapsed, lineBreak) {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, "\n"))
		}
	})
	return strings.Join(lines, "\n\n"), nil
}

func formatDeadline(t time.Time) string {
	return t.UTC().Format("January 2, 2006 at 15:04 MST")
}
