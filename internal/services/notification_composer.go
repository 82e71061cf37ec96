package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"path/filepath"
	"regexp"
	"strings"
	texttemplate "text/template"
	"time"

	"andesgo/intake/internal/config"
	"andesgo/intake/internal/email"
	"andesgo/intake/internal/models"
	"andesgo/intake/internal/validation"
)

// ErrNoNotifications is returned when a request kind has no email flow.
var ErrNoNotifications = errors.New("request kind has no notifications")

// ComposedMessages is the operator and customer rendering of one record.
type ComposedMessages struct {
	Operator *email.Message
	Customer *email.Message
}

// INotificationComposer renders notification emails for accepted records.
type INotificationComposer interface {
	Compose(ctx context.Context, record *models.RequestRecord, quote *int64) (*ComposedMessages, error)
	ComposeFailureNotice(ctx context.Context, record *models.RequestRecord, reason string) (*email.Message, error)
}

// receivingAddress is where mailbox customers ship their packages.
type receivingAddress struct {
	Street     string
	Office     string
	Commune    string
	Region     string
	Country    string
	PostalCode string
}

var defaultReceivingAddress = receivingAddress{
	Street:     "Av. Nueva Providencia 2155",
	Office:     "Oficina 1104B, Edificio Panorámico",
	Commune:    "Providencia, Santiago",
	Region:     "Región Metropolitana",
	Country:    "Chile",
	PostalCode: "7500000",
}

type timelineStep struct {
	Step  int
	Title string
	When  string
}

var customerTimeline = []timelineStep{
	{1, "Revisión", "0-12 horas"},
	{2, "Cotización", "12-24 horas"},
	{3, "Confirmación", "24-48 horas"},
	{4, "Compra", "Después de tu confirmación"},
}

type packageView struct {
	Number       int
	Name         string
	Store        string
	TrackingCode string
	Carrier      string
	Notes        string
	HasImage     bool
}

type productView struct {
	Number   int
	IsLink   bool
	URL      string
	Name     string
	Color    string
	Size     string
	Category string
	Brand    string
	Model    string
	Specs    string
	Quantity int
	Notes    string
}

// notificationView is the data every template renders from.
type notificationView struct {
	ID            string
	Kind          string
	AppName       string
	GeneratedAt   string
	ContactEmail  string
	Customer      models.Customer
	CustomerName  string
	Phone         string
	Arrival       string
	Delivery      string
	Hotel         *models.HotelDetails
	Comments      string
	Items         []packageView
	Products      []productView
	ItemCount     int
	TrackingCount int
	ImageCount    int
	Amount        string
	Address       receivingAddress
	Timeline      []timelineStep
	Reason        string
}

var templateFuncs = map[string]any{
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
	"clp": formatCLP,
}

// notificationComposer implements INotificationComposer.
type notificationComposer struct {
	templates     IEmailTemplateService
	locale        string
	appName       string
	fromAddress   string
	operatorEmail string
	contactEmail  string
	now           func() time.Time
	loc           *time.Location
}

// NewNotificationComposer creates a composer. now supplies the "generated at"
// timestamp; pass a fixed clock in tests.
func NewNotificationComposer(cfg *config.Config, templates IEmailTemplateService, now func() time.Time) INotificationComposer {
	if now == nil {
		now = time.Now
	}
	return &notificationComposer{
		templates:     templates,
		locale:        cfg.TemplateLocale,
		appName:       cfg.AppName,
		fromAddress:   cfg.MailFromAddress,
		operatorEmail: cfg.OperatorEmail,
		contactEmail:  cfg.ContactEmail,
		now:           now,
		loc:           santiagoLocation(),
	}
}

func (c *notificationComposer) Compose(ctx context.Context, record *models.RequestRecord, quote *int64) (*ComposedMessages, error) {
	var operatorID, customerID string
	switch record.Kind {
	case models.KindMailboxRequest:
		operatorID, customerID = TemplateMailboxOperator, TemplateMailboxCustomer
	case models.KindShoppingQuote:
		operatorID, customerID = TemplateShoppingOperator, TemplateShoppingCustomer
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoNotifications, record.Kind)
	}

	view := c.view(record, quote)
	customer := record.Customer()

	operator, err := c.render(ctx, operatorID, view)
	if err != nil {
		return nil, err
	}
	operator.To = []string{c.operatorEmail}
	operator.ReplyTo = customer.Email

	if record.Kind == models.KindMailboxRequest {
		attachments, err := mailboxAttachments(record)
		if err != nil {
			return nil, err
		}
		operator.Attachments = attachments
	}

	customerMsg, err := c.render(ctx, customerID, view)
	if err != nil {
		return nil, err
	}
	customerMsg.To = []string{customer.Email}
	customerMsg.ReplyTo = c.contactEmail

	return &ComposedMessages{Operator: operator, Customer: customerMsg}, nil
}

func (c *notificationComposer) ComposeFailureNotice(ctx context.Context, record *models.RequestRecord, reason string) (*email.Message, error) {
	view := c.view(record, nil)
	view.Reason = reason
	if view.Reason == "" {
		view.Reason = "Error desconocido"
	}

	msg, err := c.render(ctx, TemplateConfirmationFailed, view)
	if err != nil {
		return nil, err
	}
	msg.To = []string{c.operatorEmail}
	msg.ReplyTo = c.contactEmail
	return msg, nil
}

func (c *notificationComposer) view(record *models.RequestRecord, quote *int64) *notificationView {
	customer := record.Customer()
	v := &notificationView{
		ID:           record.ID,
		Kind:         kindLabel(record.Kind),
		AppName:      c.appName,
		GeneratedAt:  formatLongDateTime(c.now().In(c.loc)),
		ContactEmail: c.contactEmail,
		Customer:     customer,
		CustomerName: customer.DisplayName(),
		Phone:        customer.FullPhone(),
		Address:      defaultReceivingAddress,
		Timeline:     customerTimeline,
	}
	if quote != nil {
		v.Amount = formatCLP(*quote)
	}

	switch {
	case record.MailboxRequest != nil:
		r := record.MailboxRequest
		v.Arrival = arrivalLabel(r.Arrival)
		v.Comments = r.Comments
		for i, item := range r.Items {
			v.Items = append(v.Items, packageView{
				Number:       i + 1,
				Name:         item.Name,
				Store:        item.Store,
				TrackingCode: item.TrackingCode,
				Carrier:      item.Carrier,
				Notes:        item.Notes,
				HasImage:     item.Image != nil,
			})
			if item.TrackingCode != "" {
				v.TrackingCount++
			}
			if item.Image != nil {
				v.ImageCount++
			}
		}
		v.ItemCount = len(r.Items)
	case record.ShoppingQuote != nil:
		r := record.ShoppingQuote
		v.Arrival = arrivalLabel(r.Arrival)
		v.Delivery = deliveryLabel(r.Delivery)
		if r.Delivery.Method == models.DeliveryHotel {
			v.Hotel = r.Delivery.Hotel
		}
		v.Comments = r.Comments
		for i, p := range r.Products {
			v.Products = append(v.Products, productView{
				Number:   i + 1,
				IsLink:   p.Type == models.ProductLink,
				URL:      p.URL,
				Name:     p.Name,
				Color:    p.Color,
				Size:     p.Size,
				Category: p.Category,
				Brand:    p.Brand,
				Model:    p.Model,
				Specs:    p.Specs,
				Quantity: p.Quantity,
				Notes:    p.Notes,
			})
		}
		v.ItemCount = len(r.Products)
	}
	return v
}

// render resolves templateID and renders subject, HTML and text bodies.
func (c *notificationComposer) render(ctx context.Context, templateID string, view *notificationView) (*email.Message, error) {
	tmpl, err := c.templates.GetTemplate(ctx, templateID, c.locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", templateID, err)
	}

	subject, err := renderText(templateID+".subject", tmpl.Subject, view)
	if err != nil {
		return nil, err
	}
	html, err := renderHTML(templateID+".body", tmpl.Body, view)
	if err != nil {
		return nil, err
	}
	text := ""
	if tmpl.Text != "" {
		if text, err = renderText(templateID+".text", tmpl.Text, view); err != nil {
			return nil, err
		}
	}

	return &email.Message{
		From:    c.fromAddress,
		Subject: strings.TrimSpace(subject),
		HTML:    html,
		Text:    text,
		Tag:     templateID,
	}, nil
}

func renderText(name, src string, data any) (string, error) {
	t, err := texttemplate.New(name).Funcs(templateFuncs).Parse(src)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderHTML(name, src string, data any) (string, error) {
	t, err := htmltemplate.New(name).Funcs(templateFuncs).Parse(src)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// checkTemplate parses every part of tmpl so broken overrides are rejected on save.
func checkTemplate(tmpl *models.EmailTemplate) error {
	if _, err := texttemplate.New("subject").Funcs(templateFuncs).Parse(tmpl.Subject); err != nil {
		return fmt.Errorf("invalid subject template: %w", err)
	}
	if _, err := htmltemplate.New("body").Funcs(templateFuncs).Parse(tmpl.Body); err != nil {
		return fmt.Errorf("invalid body template: %w", err)
	}
	if _, err := texttemplate.New("text").Funcs(templateFuncs).Parse(tmpl.Text); err != nil {
		return fmt.Errorf("invalid text template: %w", err)
	}
	return nil
}

// mailboxSummary is the JSON document attached to the operator email.
type mailboxSummary struct {
	StorageID string                 `json:"storageId"`
	CreatedAt string                 `json:"createdAt"`
	Customer  models.Customer        `json:"customerInfo"`
	Arrival   models.Arrival         `json:"arrival"`
	Products  []mailboxSummaryItem   `json:"products"`
	Summary   mailboxSummaryCounters `json:"summary"`
}

type mailboxSummaryItem struct {
	Name            string `json:"name"`
	Store           string `json:"store"`
	TrackingCode    string `json:"trackingCode"`
	ShippingCompany string `json:"shippingCompany"`
	Notes           string `json:"notes"`
	HasImage        bool   `json:"hasImage"`
}

type mailboxSummaryCounters struct {
	TotalProducts        int `json:"totalProducts"`
	ProductsWithTracking int `json:"productsWithTracking"`
	ProductsWithImages   int `json:"productsWithImages"`
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// mailboxAttachments builds the JSON summary plus one attachment per package image.
func mailboxAttachments(record *models.RequestRecord) ([]email.Attachment, error) {
	r := record.MailboxRequest
	summary := mailboxSummary{
		StorageID: record.ID,
		CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339),
		Customer:  r.Customer,
		Arrival:   r.Arrival,
		Products:  make([]mailboxSummaryItem, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		summary.Products = append(summary.Products, mailboxSummaryItem{
			Name:            item.Name,
			Store:           item.Store,
			TrackingCode:    item.TrackingCode,
			ShippingCompany: item.Carrier,
			Notes:           item.Notes,
			HasImage:        item.Image != nil,
		})
		if item.TrackingCode != "" {
			summary.Summary.ProductsWithTracking++
		}
		if item.Image != nil {
			summary.Summary.ProductsWithImages++
		}
	}
	summary.Summary.TotalProducts = len(r.Items)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mailbox summary: %w", err)
	}

	attachments := []email.Attachment{{
		Filename:    fmt.Sprintf("storage-%s.json", record.ID),
		ContentType: "application/json",
		Content:     data,
	}}

	for i, item := range r.Items {
		if item.Image == nil {
			continue
		}
		contentType, payload := validation.SplitDataURL(item.Image.Data)
		if item.Image.ContentType != "" {
			contentType = item.Image.ContentType
		}
		if contentType == "" {
			contentType = "image/jpeg"
		}
		content, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image for item %d: %w", i+1, err)
		}
		attachments = append(attachments, email.Attachment{
			Filename:    imageFilename(i+1, item, contentType),
			ContentType: contentType,
			Content:     content,
		})
	}
	return attachments, nil
}

// imageFilename returns "producto-<n>-<name>" keeping the uploaded file name
// when there is one.
func imageFilename(n int, item models.PackageItem, contentType string) string {
	base := item.Image.Filename
	if base == "" {
		ext := ".jpg"
		if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "jpeg" {
			ext = "." + sub
		}
		base = item.Name + ext
	}
	base = filepath.Base(base)
	base = strings.Trim(unsafeFilenameChars.ReplaceAllString(base, "-"), "-")
	if base == "" {
		base = "imagen"
	}
	return fmt.Sprintf("producto-%d-%s", n, base)
}
