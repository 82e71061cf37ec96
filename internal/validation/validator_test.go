package validation

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"andesgo/intake/internal/models"
)

func intPtr(v int) *int { return &v }

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected *ValidationError, got %T", err)
	return ve.Field
}

func validBooking() *models.StorageBooking {
	return &models.StorageBooking{
		Customer: models.Customer{
			Name:       "Lucía",
			Surname:    "Fernández",
			Phone:      "+54 9 11 5555 1234",
			DocumentID: "30111222",
		},
		Plan:     "daily",
		CheckIn:  "2026-11-02",
		CheckOut: "2026-11-05",
	}
}

func validMailbox() *models.MailboxRequest {
	return &models.MailboxRequest{
		Customer: models.Customer{Name: "Martín", Email: "martin@example.com", Phone: "1155551234", CountryCode: "+54"},
		Arrival:  models.Arrival{Option: models.ArrivalOneWeek},
		Items:    []models.PackageItem{{Name: "Zapatillas", Store: "Falabella", TrackingCode: "FB123"}},
	}
}

func validQuote() *models.ShoppingQuoteRequest {
	return &models.ShoppingQuoteRequest{
		Customer: models.Customer{Name: "Sofía", Email: "sofia@example.com", Phone: "1144443333"},
		Arrival:  models.Arrival{Option: models.ArrivalSpecificDate, Date: "2026-12-01"},
		Delivery: models.Delivery{Method: models.DeliveryPickup},
		Products: []models.ProductItem{
			{Type: models.ProductLink, URL: "https://www.pcfactory.cl/notebook", Quantity: 1},
			{Type: models.ProductSearch, Category: "Notebook", Brand: "Lenovo", Quantity: 2},
		},
	}
}

func TestValidateStorageBooking_Valid(t *testing.T) {
	v := New(0)
	assert.NoError(t, v.ValidateStorageBooking(validBooking()))

	hourly := validBooking()
	hourly.Plan = "0"
	hourly.CheckOut = ""
	assert.NoError(t, v.ValidateStorageBooking(hourly))

	hourly.Hours = intPtr(3)
	assert.NoError(t, v.ValidateStorageBooking(hourly))
}

func TestValidateStorageBooking_Rules(t *testing.T) {
	v := New(0)
	cases := []struct {
		name   string
		mutate func(b *models.StorageBooking)
		field  string
	}{
		{"missing name", func(b *models.StorageBooking) { b.Customer.Name = " " }, "customer.name"},
		{"missing surname", func(b *models.StorageBooking) { b.Customer.Surname = "" }, "customer.surname"},
		{"missing phone", func(b *models.StorageBooking) { b.Customer.Phone = "" }, "customer.phone"},
		{"missing document", func(b *models.StorageBooking) { b.Customer.DocumentID = "" }, "customer.document_id"},
		{"bad document type", func(b *models.StorageBooking) { b.Customer.DocumentType = "rut" }, "customer.document_type"},
		{"bad optional email", func(b *models.StorageBooking) { b.Customer.Email = "nope" }, "customer.email"},
		{"missing plan", func(b *models.StorageBooking) { b.Plan = "" }, "plan"},
		{"unknown plan", func(b *models.StorageBooking) { b.Plan = "monthly" }, "plan"},
		{"missing check in", func(b *models.StorageBooking) { b.CheckIn = "" }, "check_in"},
		{"bad check in", func(b *models.StorageBooking) { b.CheckIn = "mañana" }, "check_in"},
		{"missing check out", func(b *models.StorageBooking) { b.CheckOut = "" }, "check_out"},
		{"checkout equals checkin", func(b *models.StorageBooking) { b.CheckOut = b.CheckIn }, "check_out"},
		{"checkout before checkin", func(b *models.StorageBooking) { b.CheckOut = "2026-11-01" }, "check_out"},
		{"weekly checkout before checkin", func(b *models.StorageBooking) { b.Plan = "weekly"; b.CheckOut = "2026-10-01" }, "check_out"},
		{"hourly zero hours", func(b *models.StorageBooking) { b.Plan = "hourly"; b.Hours = intPtr(0) }, "hours"},
		{"hourly negative hours", func(b *models.StorageBooking) { b.Plan = "hourly"; b.Hours = intPtr(-2) }, "hours"},
		{"hourly hours beyond a year", func(b *models.StorageBooking) { b.Plan = "hourly"; b.Hours = intPtr(9_300_000_000_000_000) }, "hours"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBooking()
			tc.mutate(b)
			assert.Equal(t, tc.field, fieldOf(t, v.ValidateStorageBooking(b)))
		})
	}
}

func TestValidateStorageBooking_FailsFastInOrder(t *testing.T) {
	b := validBooking()
	b.Customer.Name = ""
	b.CheckOut = "2020-01-01"
	assert.Equal(t, "customer.name", fieldOf(t, New(0).ValidateStorageBooking(b)))
}

func TestValidateMailboxRequest(t *testing.T) {
	v := New(1024)
	assert.NoError(t, v.ValidateMailboxRequest(validMailbox()))

	cases := []struct {
		name   string
		mutate func(r *models.MailboxRequest)
		field  string
	}{
		{"missing email", func(r *models.MailboxRequest) { r.Customer.Email = "" }, "customer.email"},
		{"bad email", func(r *models.MailboxRequest) { r.Customer.Email = "martin@" }, "customer.email"},
		{"email with embedded line break", func(r *models.MailboxRequest) { r.Customer.Email = "martin@example.com\r\nBcc: x@evil.com" }, "customer.email"},
		{"missing phone", func(r *models.MailboxRequest) { r.Customer.Phone = "" }, "customer.phone"},
		{"missing arrival", func(r *models.MailboxRequest) { r.Arrival.Option = "" }, "arrival.option"},
		{"unknown arrival", func(r *models.MailboxRequest) { r.Arrival.Option = "someday" }, "arrival.option"},
		{"specific date without date", func(r *models.MailboxRequest) { r.Arrival = models.Arrival{Option: models.ArrivalSpecificDate} }, "arrival.date"},
		{"specific date unparsable", func(r *models.MailboxRequest) {
			r.Arrival = models.Arrival{Option: models.ArrivalSpecificDate, Date: "pronto"}
		}, "arrival.date"},
		{"no items", func(r *models.MailboxRequest) { r.Items = nil }, "items"},
		{"item without store", func(r *models.MailboxRequest) {
			r.Items = append(r.Items, models.PackageItem{Name: "Polera"})
		}, "items[1].store"},
		{"item without name", func(r *models.MailboxRequest) { r.Items[0].Name = "" }, "items[0].name"},
		{"image not base64", func(r *models.MailboxRequest) {
			r.Items[0].Image = &models.Attachment{Data: "%%%"}
		}, "items[0].image.data"},
		{"image not an image", func(r *models.MailboxRequest) {
			r.Items[0].Image = &models.Attachment{Data: "data:application/pdf;base64,QUJD"}
		}, "items[0].image.content_type"},
		{"image too large", func(r *models.MailboxRequest) {
			r.Items[0].Image = &models.Attachment{Data: base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 2048)))}
		}, "items[0].image.data"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validMailbox()
			tc.mutate(r)
			assert.Equal(t, tc.field, fieldOf(t, v.ValidateMailboxRequest(r)))
		})
	}
}

func TestValidateShoppingQuote_NormalizesContactFields(t *testing.T) {
	r := validQuote()
	r.Customer.Name = "  Sofía\t"
	r.Customer.Email = "ana@example.com\r\n"
	r.Customer.Phone = " 1144443333 "

	require.NoError(t, New(0).ValidateShoppingQuote(r))

	assert.Equal(t, "Sofía", r.Customer.Name)
	assert.Equal(t, "ana@example.com", r.Customer.Email)
	assert.Equal(t, "1144443333", r.Customer.Phone)
}

func TestValidateStorageBooking_NormalizesContactFields(t *testing.T) {
	b := validBooking()
	b.Customer.Email = " lucia@example.com\n"
	b.Customer.DocumentID = " 30111222 "

	require.NoError(t, New(0).ValidateStorageBooking(b))

	assert.Equal(t, "lucia@example.com", b.Customer.Email)
	assert.Equal(t, "30111222", b.Customer.DocumentID)
}

func TestValidateMailboxRequest_AcceptsImageDataURL(t *testing.T) {
	r := validMailbox()
	r.Items[0].Image = &models.Attachment{Filename: "caja.png", Data: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png"))}
	assert.NoError(t, New(1024).ValidateMailboxRequest(r))
}

func TestValidateShoppingQuote(t *testing.T) {
	v := New(0)
	assert.NoError(t, v.ValidateShoppingQuote(validQuote()))

	cases := []struct {
		name   string
		mutate func(r *models.ShoppingQuoteRequest)
		field  string
	}{
		{"missing name", func(r *models.ShoppingQuoteRequest) { r.Customer.Name = "" }, "customer.name"},
		{"unknown delivery", func(r *models.ShoppingQuoteRequest) { r.Delivery.Method = "drone" }, "delivery.method"},
		{"hotel without details", func(r *models.ShoppingQuoteRequest) { r.Delivery = models.Delivery{Method: models.DeliveryHotel} }, "delivery.hotel"},
		{"hotel without address", func(r *models.ShoppingQuoteRequest) {
			r.Delivery = models.Delivery{Method: models.DeliveryHotel, Hotel: &models.HotelDetails{Commune: "Providencia"}}
		}, "delivery.hotel.address"},
		{"hotel without commune", func(r *models.ShoppingQuoteRequest) {
			r.Delivery = models.Delivery{Method: models.DeliveryHotel, Hotel: &models.HotelDetails{Address: "Av. Providencia 1234"}}
		}, "delivery.hotel.commune"},
		{"no products", func(r *models.ShoppingQuoteRequest) { r.Products = []models.ProductItem{} }, "products"},
		{"link without url", func(r *models.ShoppingQuoteRequest) { r.Products[0].URL = "" }, "products[0].url"},
		{"link with unparsable url", func(r *models.ShoppingQuoteRequest) { r.Products[0].URL = "not a url" }, "products[0].url"},
		{"link with ftp url", func(r *models.ShoppingQuoteRequest) { r.Products[0].URL = "ftp://example.com/x" }, "products[0].url"},
		{"link zero quantity", func(r *models.ShoppingQuoteRequest) { r.Products[0].Quantity = 0 }, "products[0].quantity"},
		{"search without category", func(r *models.ShoppingQuoteRequest) { r.Products[1].Category = "" }, "products[1].category"},
		{"search without brand", func(r *models.ShoppingQuoteRequest) { r.Products[1].Brand = "" }, "products[1].brand"},
		{"unknown product type", func(r *models.ShoppingQuoteRequest) { r.Products[1].Type = "gift" }, "products[1].type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validQuote()
			tc.mutate(r)
			assert.Equal(t, tc.field, fieldOf(t, v.ValidateShoppingQuote(r)))
		})
	}
}

func TestValidateShoppingQuote_HotelDelivery(t *testing.T) {
	r := validQuote()
	r.Delivery = models.Delivery{Method: models.DeliveryHotel, Hotel: &models.HotelDetails{
		Region: "Metropolitana", Commune: "Las Condes", Address: "Av. Apoquindo 3000", HotelName: "Hotel Andes", RoomNumber: "512",
	}}
	assert.NoError(t, New(0).ValidateShoppingQuote(r))
}

func TestValidate_NilRequests(t *testing.T) {
	v := New(0)
	assert.Equal(t, "body", fieldOf(t, v.ValidateStorageBooking(nil)))
	assert.Equal(t, "body", fieldOf(t, v.ValidateMailboxRequest(nil)))
	assert.Equal(t, "body", fieldOf(t, v.ValidateShoppingQuote(nil)))
}

func TestSplitDataURL(t *testing.T) {
	ct, payload := SplitDataURL("data:image/jpeg;base64,QUJD")
	assert.Equal(t, "image/jpeg", ct)
	assert.Equal(t, "QUJD", payload)

	ct, payload = SplitDataURL("QUJD")
	assert.Equal(t, "", ct)
	assert.Equal(t, "QUJD", payload)
}
