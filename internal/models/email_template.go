package models

// EmailTemplate is a notification template. Built-in defaults can be
// overridden per template id and locale in the email_templates collection.
type EmailTemplate struct {
	TemplateID string `bson:"template_id" json:"template_id"` // e.g. "mailbox_operator", "shopping_customer"
	Locale     string `bson:"locale" json:"locale"`           // e.g. "es-CL"
	Subject    string `bson:"subject" json:"subject"`         // text/template
	Body       string `bson:"body" json:"body"`               // html/template

	// Text is the plain-text alternative, rendered with text/template.
	Text string `bson:"text,omitempty" json:"text,omitempty"`
}
