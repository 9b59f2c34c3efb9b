package email

import (
	"embed"
	"html/template"
	"io"

	"github.com/pkg/errors"
)

// Template names an embedded template under templates/.
type Template string

const (
	TemplateContactAck             Template = "contact_ack"
	TemplateApplicationAck         Template = "application_ack"
	TemplateNewsletterWelcome      Template = "newsletter_welcome"
	TemplateNewsletterSignupNotice Template = "newsletter_signup_notice"
)

// Templates lists every template the client can render.
var Templates = []Template{
	TemplateContactAck,
	TemplateApplicationAck,
	TemplateNewsletterWelcome,
	TemplateNewsletterSignupNotice,
}

//go:embed templates/*.html
var templateFS embed.FS

var parsed = template.Must(template.New("").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html"))

// Render writes the named template executed with data to w.
func Render(w io.Writer, name Template, data map[string]string) error {
	tmpl := parsed.Lookup(string(name) + ".html")
	if tmpl == nil {
		return errors.Errorf("unknown email template %q", name)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return errors.Wrapf(err, "failed to execute email template %s", name)
	}
	return nil
}
