package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"andesgo/intake/internal/models"
)

// Template ids used by the notification composer.
const (
	TemplateMailboxOperator    = "mailbox_operator"
	TemplateMailboxCustomer    = "mailbox_customer"
	TemplateShoppingOperator   = "shopping_operator"
	TemplateShoppingCustomer   = "shopping_customer"
	TemplateConfirmationFailed = "customer_confirmation_failed"
)

// ErrTemplateStoreUnavailable is returned by write operations when no
// database is configured.
var ErrTemplateStoreUnavailable = errors.New("email template store not configured")

// IEmailTemplateService defines the interface for email template operations.
type IEmailTemplateService interface {
	GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error)
	SaveTemplate(ctx context.Context, template *models.EmailTemplate) error
	DeleteTemplate(ctx context.Context, templateID, locale string) error
}

const emailTemplatesCollection = "email_templates"

// EmailTemplateService resolves templates from MongoDB overrides, falling
// back to the built-in defaults. A nil database serves defaults only.
type EmailTemplateService struct {
	db *mongo.Database
}

// NewEmailTemplateService creates a new instance of EmailTemplateService
func NewEmailTemplateService(db *mongo.Database) *EmailTemplateService {
	return &EmailTemplateService{
		db: db,
	}
}

// GetTemplate retrieves an email template by ID and locale
func (s *EmailTemplateService) GetTemplate(ctx context.Context, templateID string, locale string) (*models.EmailTemplate, error) {
	if s.db == nil {
		return defaultTemplate(templateID, locale)
	}

	filter := bson.M{
		"template_id": templateID,
		"locale":      locale,
	}

	var template models.EmailTemplate
	err := s.db.Collection(emailTemplatesCollection).FindOne(ctx, filter).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return defaultTemplate(templateID, locale)
		}
		return nil, fmt.Errorf("error retrieving template: %w", err)
	}

	return &template, nil
}

// SaveTemplate upserts an override for template.TemplateID and template.Locale.
func (s *EmailTemplateService) SaveTemplate(ctx context.Context, template *models.EmailTemplate) error {
	if s.db == nil {
		return ErrTemplateStoreUnavailable
	}
	if template.TemplateID == "" || template.Locale == "" {
		return fmt.Errorf("template_id and locale are required")
	}
	if err := checkTemplate(template); err != nil {
		return err
	}

	filter := bson.M{
		"template_id": template.TemplateID,
		"locale":      template.Locale,
	}

	update := bson.M{"$set": template}
	opts := options.Update().SetUpsert(true)

	_, err := s.db.Collection(emailTemplatesCollection).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("error saving template: %w", err)
	}

	return nil
}

// DeleteTemplate removes an override, restoring the built-in default.
func (s *EmailTemplateService) DeleteTemplate(ctx context.Context, templateID string, locale string) error {
	if s.db == nil {
		return ErrTemplateStoreUnavailable
	}

	filter := bson.M{
		"template_id": templateID,
		"locale":      locale,
	}

	_, err := s.db.Collection(emailTemplatesCollection).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("error deleting template: %w", err)
	}

	return nil
}

func defaultTemplate(templateID, locale string) (*models.EmailTemplate, error) {
	tmpl, ok := defaultEmailTemplates[templateID]
	if !ok {
		return nil, fmt.Errorf("template not found: %s (locale: %s)", templateID, locale)
	}
	return &tmpl, nil
}
