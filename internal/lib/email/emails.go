package email

import "context"

const notProvided = "Not provided"

// ContactDetails is what the contact acknowledgement echoes back.
type ContactDetails struct {
	Greeting string
	Name     string
	Company  string
	Email    string
	Phone    string
}

// SendContactAcknowledgement thanks a contact form submitter.
func (c *Client) SendContactAcknowledgement(ctx context.Context, to string, d ContactDetails) error {
	data := map[string]string{
		"Greeting": orDefault(d.Greeting, "User"),
		"Name":     orDefault(d.Name, notProvided),
		"Company":  orDefault(d.Company, notProvided),
		"Email":    orDefault(d.Email, to),
		"Phone":    orDefault(d.Phone, notProvided),
	}

	return c.SendEmail(ctx, to, "Thank you for contacting YCL!", TemplateContactAck, data)
}

// SendApplicationAcknowledgement thanks a job applicant.
func (c *Client) SendApplicationAcknowledgement(ctx context.Context, to, name, position string) error {
	data := map[string]string{
		"Name":     orDefault(name, "Applicant"),
		"Position": position,
	}

	return c.SendEmail(ctx, to, "Thank you for applying to YCL!", TemplateApplicationAck, data)
}

// SendNewsletterWelcome welcomes a new subscriber.
func (c *Client) SendNewsletterWelcome(ctx context.Context, to string) error {
	return c.SendEmail(ctx, to, "Thank you for subscribing to the YCL Newsletter!", TemplateNewsletterWelcome, nil)
}

// SendNewsletterSignupNotice tells the operator about a new subscriber.
func (c *Client) SendNewsletterSignupNotice(ctx context.Context, subscriber string) error {
	data := map[string]string{
		"Subscriber": subscriber,
	}

	return c.SendEmail(ctx, c.operator, "New Newsletter Signup", TemplateNewsletterSignupNotice, data)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
