// Package validation checks inbound submissions before any side effect.
// Every check fails fast and reports the first offending field.
package validation

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"andesgo/intake/internal/models"
	"andesgo/intake/internal/pricing"
)

// ValidationError names the offending field and a human readable reason.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

const (
	reasonRequired     = "es obligatorio"
	reasonInvalidEmail = "no es un email válido"
	reasonInvalidDate  = "no es una fecha válida"
)

// RequestValidator validates the three submission variants.
type RequestValidator struct {
	v             *validator.Validate
	maxImageBytes int
}

// New returns a validator rejecting attachments larger than maxImageBytes once decoded.
// Zero disables the size check.
func New(maxImageBytes int) *RequestValidator {
	return &RequestValidator{v: validator.New(), maxImageBytes: maxImageBytes}
}

// ValidateStorageBooking checks identity, plan and plan-specific timing.
func (rv *RequestValidator) ValidateStorageBooking(b *models.StorageBooking) error {
	if b == nil {
		return invalid("body", reasonRequired)
	}
	normalizeCustomer(&b.Customer)
	c := b.Customer
	if err := required("customer.name", c.Name); err != nil {
		return err
	}
	if err := required("customer.surname", c.Surname); err != nil {
		return err
	}
	if err := required("customer.phone", c.Phone); err != nil {
		return err
	}
	if err := required("customer.document_id", c.DocumentID); err != nil {
		return err
	}
	if c.DocumentType != "" && c.DocumentType != "dni" && c.DocumentType != "passport" {
		return invalid("customer.document_type", "debe ser dni o passport")
	}
	if c.Email != "" {
		if err := rv.email("customer.email", c.Email); err != nil {
			return err
		}
	}

	return rv.ValidateStay(b.Plan, b.Hours, b.CheckIn, b.CheckOut)
}

// ValidateStay checks the plan selector and its timing fields. It is shared
// by bookings and quote previews.
func (rv *RequestValidator) ValidateStay(planSelector string, hours *int, checkInRaw, checkOutRaw string) error {
	if err := required("plan", planSelector); err != nil {
		return err
	}
	plan, err := pricing.ParsePlan(planSelector)
	if err != nil {
		return invalid("plan", "debe ser hourly, daily o weekly")
	}

	if err := required("check_in", checkInRaw); err != nil {
		return err
	}
	checkIn, err := pricing.ParseDate(checkInRaw)
	if err != nil {
		return invalid("check_in", reasonInvalidDate)
	}

	if plan == pricing.PlanHourly {
		if hours != nil && *hours <= 0 {
			return invalid("hours", "debe ser mayor que cero")
		}
		if hours != nil && *hours > pricing.MaxHours {
			return invalid("hours", fmt.Sprintf("no puede superar %d", pricing.MaxHours))
		}
		return nil
	}

	if err := required("check_out", checkOutRaw); err != nil {
		return err
	}
	checkOut, err := pricing.ParseDate(checkOutRaw)
	if err != nil {
		return invalid("check_out", reasonInvalidDate)
	}
	if !checkOut.After(checkIn) {
		return invalid("check_out", "debe ser posterior a la fecha de ingreso")
	}
	return nil
}

// ValidateMailboxRequest checks identity, arrival and every package item.
func (rv *RequestValidator) ValidateMailboxRequest(r *models.MailboxRequest) error {
	if r == nil {
		return invalid("body", reasonRequired)
	}
	if err := rv.contact(&r.Customer); err != nil {
		return err
	}
	if err := validateArrival(r.Arrival); err != nil {
		return err
	}
	if len(r.Items) == 0 {
		return invalid("items", "debe incluir al menos un paquete")
	}
	for i, item := range r.Items {
		field := fmt.Sprintf("items[%d]", i)
		if err := required(field+".name", item.Name); err != nil {
			return err
		}
		if err := required(field+".store", item.Store); err != nil {
			return err
		}
		if item.Image != nil {
			if err := rv.image(field+".image", item.Image); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateShoppingQuote checks identity, arrival, delivery and every product.
func (rv *RequestValidator) ValidateShoppingQuote(r *models.ShoppingQuoteRequest) error {
	if r == nil {
		return invalid("body", reasonRequired)
	}
	if err := rv.contact(&r.Customer); err != nil {
		return err
	}
	if err := validateArrival(r.Arrival); err != nil {
		return err
	}
	if err := validateDelivery(r.Delivery); err != nil {
		return err
	}
	if len(r.Products) == 0 {
		return invalid("products", "debe incluir al menos un producto")
	}
	for i, p := range r.Products {
		field := fmt.Sprintf("products[%d]", i)
		switch p.Type {
		case models.ProductLink:
			if err := required(field+".url", p.URL); err != nil {
				return err
			}
			if !isHTTPURL(p.URL) || rv.v.Var(p.URL, "url") != nil {
				return invalid(field+".url", "no es una URL válida")
			}
		case models.ProductSearch:
			if err := required(field+".category", p.Category); err != nil {
				return err
			}
			if err := required(field+".brand", p.Brand); err != nil {
				return err
			}
		default:
			return invalid(field+".type", "debe ser link o search")
		}
		if p.Quantity < 1 {
			return invalid(field+".quantity", "debe ser al menos 1")
		}
	}
	return nil
}

func (rv *RequestValidator) contact(c *models.Customer) error {
	normalizeCustomer(c)
	if err := required("customer.name", c.Name); err != nil {
		return err
	}
	if err := required("customer.email", c.Email); err != nil {
		return err
	}
	if err := rv.email("customer.email", c.Email); err != nil {
		return err
	}
	return required("customer.phone", c.Phone)
}

func (rv *RequestValidator) email(field, value string) error {
	if strings.ContainsAny(value, "\r\n") || rv.v.Var(value, "email") != nil {
		return invalid(field, reasonInvalidEmail)
	}
	return nil
}

// normalizeCustomer trims the contact fields in place. Name, email and phone
// end up in mail headers and subjects, so the stored record keeps the trimmed form.
func normalizeCustomer(c *models.Customer) {
	c.Name = strings.TrimSpace(c.Name)
	c.Surname = strings.TrimSpace(c.Surname)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.CountryCode = strings.TrimSpace(c.CountryCode)
	c.DocumentID = strings.TrimSpace(c.DocumentID)
}

func (rv *RequestValidator) image(field string, a *models.Attachment) error {
	if strings.TrimSpace(a.Data) == "" {
		return invalid(field+".data", reasonRequired)
	}
	contentType, payload := SplitDataURL(a.Data)
	if a.ContentType != "" {
		contentType = a.ContentType
	}
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return invalid(field+".content_type", "debe ser una imagen")
	}
	if rv.v.Var(payload, "base64") != nil {
		return invalid(field+".data", "no es base64 válido")
	}
	if rv.maxImageBytes > 0 && base64.StdEncoding.DecodedLen(len(payload)) > rv.maxImageBytes {
		return invalid(field+".data", fmt.Sprintf("supera el máximo de %d bytes", rv.maxImageBytes))
	}
	return nil
}

func validateArrival(a models.Arrival) error {
	switch a.Option {
	case models.ArrivalTomorrow, models.ArrivalOneWeek, models.ArrivalNotSure:
		return nil
	case models.ArrivalSpecificDate:
		if err := required("arrival.date", a.Date); err != nil {
			return err
		}
		if _, err := pricing.ParseDate(a.Date); err != nil {
			return invalid("arrival.date", reasonInvalidDate)
		}
		return nil
	case "":
		return invalid("arrival.option", reasonRequired)
	default:
		return invalid("arrival.option", "debe ser tomorrow, one_week, not_sure o specific_date")
	}
}

func validateDelivery(d models.Delivery) error {
	switch d.Method {
	case models.DeliveryPickup, models.DeliveryPickupSantiago, models.DeliveryPickupBuenosAires:
		return nil
	case models.DeliveryHotel:
		if d.Hotel == nil {
			return invalid("delivery.hotel", reasonRequired)
		}
		if err := required("delivery.hotel.address", d.Hotel.Address); err != nil {
			return err
		}
		return required("delivery.hotel.commune", d.Hotel.Commune)
	case "":
		return invalid("delivery.method", reasonRequired)
	default:
		return invalid("delivery.method", "no es un método de entrega válido")
	}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, reasonRequired)
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SplitDataURL separates "data:<type>;base64,<payload>" into its content
// type and payload. Plain base64 is returned unchanged with an empty type.
func SplitDataURL(s string) (contentType, payload string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}
	header, data, ok := strings.Cut(s, ",")
	if !ok {
		return "", s
	}
	header = strings.TrimPrefix(header, "data:")
	header = strings.TrimSuffix(header, ";base64")
	return header, data
}
