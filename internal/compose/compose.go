// Package compose builds the HTML documents for the notification email
// sent to the configured recipient and the thank-you email sent back to
// the submitter.
package compose

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/formkit-labs/domainmail/internal/submission"
	"github.com/formkit-labs/domainmail/internal/token"
)

const dateLayout = "02/01/2006 15:04"

// Notification renders the form-submission email: a heading with the form
// name, a submission timestamp, an optional token-substituted custom
// message, and (when showAllFields is set) a table of every non-blank
// field. The custom message is authored by the site editor and is written
// through as HTML, with newlines converted to line breaks.
func Notification(rec submission.Record, now time.Time, customMessage string, showAllFields bool) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html>\n")
	b.WriteString("<head>\n")
	b.WriteString("<meta charset='utf-8'>\n")
	b.WriteString("<title>Form Submission</title>\n")
	b.WriteString("</head>\n")
	b.WriteString("<body style='font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;'>\n")

	fmt.Fprintf(&b, "<h2 style='color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px;'>Form Submission: %s</h2>\n",
		html.EscapeString(rec.FormName()))
	fmt.Fprintf(&b, "<p style='color: #7f8c8d; margin-bottom: 30px;'><strong>Submitted:</strong> %s</p>\n",
		now.Format(dateLayout))

	if customMessage != "" {
		msg := token.Replace(customMessage, rec, now)
		msg = strings.ReplaceAll(msg, "\r", "")
		msg = strings.ReplaceAll(msg, "\n", "<br/>")
		b.WriteString("<div style='background-color: #f8f9fa; padding: 20px; border-radius: 5px; margin-bottom: 30px;'>\n")
		b.WriteString(msg + "\n")
		b.WriteString("</div>\n")
	}

	if showAllFields {
		b.WriteString("<h3 style='color: #2c3e50; margin-bottom: 15px;'>Form Details:</h3>\n")
		b.WriteString("<table style='width: 100%; border-collapse: collapse; background-color: white; box-shadow: 0 2px 5px rgba(0,0,0,0.1);'>\n")

		for _, f := range submission.ExtractFields(rec) {
			if strings.TrimSpace(f.Value) == "" {
				continue
			}
			b.WriteString("<tr>\n")
			fmt.Fprintf(&b, "<td style='background-color: #f8f9fa; font-weight: bold; padding: 12px; border: 1px solid #dee2e6; width: 30%%;'>%s</td>\n",
				html.EscapeString(f.Name))
			fmt.Fprintf(&b, "<td style='padding: 12px; border: 1px solid #dee2e6;'>%s</td>\n",
				html.EscapeString(f.Value))
			b.WriteString("</tr>\n")
		}

		b.WriteString("</table>\n")
	}

	b.WriteString("<hr style='margin: 30px 0; border: none; border-top: 1px solid #eee;'/>\n")
	b.WriteString("<p style='color: #7f8c8d; font-size: 12px; text-align: center;'>This email was automatically generated from your website contact form.</p>\n")

	b.WriteString("</body>\n")
	b.WriteString("</html>\n")

	return b.String()
}

// Confirmation renders the thank-you email sent back to the submitter.
// It always includes the table of non-blank fields and carries static
// copy, with no custom message.
func Confirmation(rec submission.Record) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html>\n")
	b.WriteString("<head>\n")
	b.WriteString("<meta charset='utf-8'>\n")
	b.WriteString("<title>Thank You</title>\n")
	b.WriteString("</head>\n")
	b.WriteString("<body style='font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;'>\n")

	b.WriteString("<h2 style='color: #27ae60;'>Thank you for your submission!</h2>\n")
	b.WriteString("<p>We have received your message and will get back to you as soon as possible.</p>\n")

	b.WriteString("<h3 style='color: #2c3e50; margin-top: 30px;'>Your submission details:</h3>\n")
	b.WriteString("<table style='width: 100%; border-collapse: collapse; background-color: #f8f9fa; border-radius: 5px;'>\n")

	for _, f := range submission.ExtractFields(rec) {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		b.WriteString("<tr>\n")
		fmt.Fprintf(&b, "<td style='font-weight: bold; padding: 8px; width: 30%%;'>%s:</td>\n",
			html.EscapeString(f.Name))
		fmt.Fprintf(&b, "<td style='padding: 8px;'>%s</td>\n",
			html.EscapeString(f.Value))
		b.WriteString("</tr>\n")
	}

	b.WriteString("</table>\n")
	b.WriteString("<p style='margin-top: 20px; color: #7f8c8d;'>Best regards,<br/>The Team</p>\n")

	b.WriteString("</body>\n")
	b.WriteString("</html>\n")

	return b.String()
}
