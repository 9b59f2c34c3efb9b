package email

// PreviewData holds sample values for rendering each template locally.
var PreviewData = map[Template]map[string]string{
	TemplateContactAck: {
		"Greeting": "Jane",
		"Name":     "Jane Doe",
		"Company":  "Acme Ltd",
		"Email":    "jane@example.com",
		"Phone":    "+44 20 7946 0000",
	},
	TemplateApplicationAck: {
		"Name":     "John",
		"Position": "Data Engineer",
	},
	TemplateNewsletterWelcome: {},
	TemplateNewsletterSignupNotice: {
		"Subscriber": "reader@example.com",
	},
}
