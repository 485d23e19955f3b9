package email

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var layout = template.Must(template.New("branded").Parse(`<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
<meta charset="utf-8">
<title>{{ .Subject }}</title>
</head>
<body style="margin:0;padding:0;background:#f4f6f8;font-family:Tahoma,Arial,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center" style="padding:32px 12px;">
<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:12px;overflow:hidden;">
<tr><td style="background:#0f4c5c;color:#ffffff;padding:24px;font-size:20px;font-weight:bold;">{{ .Brand }}</td></tr>
<tr><td style="padding:32px 24px;color:#1f2933;font-size:16px;line-height:1.8;">{{ .Body }}</td></tr>
<tr><td style="padding:16px 24px;color:#7b8794;font-size:12px;border-top:1px solid #e4e7eb;">{{ .Footer }}</td></tr>
</table>
</td></tr>
</table>
</body>
</html>`))

var plainText = bluemonday.StrictPolicy()

type layoutData struct {
	Subject string
	Brand   string
	Body    template.HTML
	Footer  string
}

// RenderHTML wraps plain-text content in the branded layout. Markup in the content is
// stripped and line breaks are preserved.
func RenderHTML(brand, subject, content string) (string, error) {
	escaped := plainText.Sanitize(strings.TrimSpace(content))
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")

	var buf bytes.Buffer
	err := layout.Execute(&buf, layoutData{
		Subject: subject,
		Brand:   brand,
		Body:    template.HTML(escaped), // #nosec G203 -- sanitised by the strict policy above
		Footer:  "This message was sent automatically, please do not reply.",
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Personalize substitutes the recipient name placeholders {name} and {{name}}.
func Personalize(text, name string) string {
	text = strings.ReplaceAll(text, "{{name}}", name)
	return strings.ReplaceAll(text, "{name}", name)
}
