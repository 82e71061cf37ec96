package models

import "strings"

// RequestKind discriminates the three intake flows.
type RequestKind string

const (
	KindStorageBooking RequestKind = "storage_booking"
	KindMailboxRequest RequestKind = "mailbox_request"
	KindShoppingQuote  RequestKind = "shopping_quote"
)

// Customer is the submitter identity shared by every request variant.
type Customer struct {
	Name         string `bson:"name" json:"name"`
	Surname      string `bson:"surname,omitempty" json:"surname,omitempty"`
	Email        string `bson:"email,omitempty" json:"email,omitempty"`
	Phone        string `bson:"phone" json:"phone"`
	CountryCode  string `bson:"country_code,omitempty" json:"country_code,omitempty"` // e.g. "+54"
	DocumentID   string `bson:"document_id,omitempty" json:"document_id,omitempty"`
	DocumentType string `bson:"document_type,omitempty" json:"document_type,omitempty"` // dni | passport
}

// DisplayName joins name and surname.
func (c Customer) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(c.Name) + " " + strings.TrimSpace(c.Surname))
}

// FullPhone prefixes the phone with its country code when one was given.
func (c Customer) FullPhone() string {
	if c.CountryCode == "" {
		return c.Phone
	}
	return c.CountryCode + " " + c.Phone
}

// Arrival options
const (
	ArrivalTomorrow     = "tomorrow"
	ArrivalOneWeek      = "one_week"
	ArrivalNotSure      = "not_sure"
	ArrivalSpecificDate = "specific_date"
)

// Arrival describes when the customer expects to be in Santiago.
type Arrival struct {
	Option string `bson:"option" json:"option"`
	Date   string `bson:"date,omitempty" json:"date,omitempty"` // required for specific_date
}

// StorageBooking is a baggage storage reservation. CheckIn is the service
// start for hourly bookings; daily and weekly bookings also need CheckOut.
type StorageBooking struct {
	Customer Customer `bson:"customer" json:"customer"`
	Plan     string   `bson:"plan" json:"plan"`
	Hours    *int     `bson:"hours,omitempty" json:"hours,omitempty"`
	CheckIn  string   `bson:"check_in,omitempty" json:"check_in,omitempty"`
	CheckOut string   `bson:"check_out,omitempty" json:"check_out,omitempty"`
	Notes    string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Attachment is an uploaded file carried inline as base64, optionally as a data URL.
type Attachment struct {
	Filename    string `bson:"filename,omitempty" json:"filename,omitempty"`
	ContentType string `bson:"content_type,omitempty" json:"content_type,omitempty"`
	Data        string `bson:"data" json:"data"`
}

// PackageItem is a parcel the customer will have delivered to the receiving address.
type PackageItem struct {
	Name         string      `bson:"name" json:"name"`
	Store        string      `bson:"store" json:"store"`
	TrackingCode string      `bson:"tracking_code,omitempty" json:"tracking_code,omitempty"`
	Carrier      string      `bson:"carrier,omitempty" json:"carrier,omitempty"`
	Notes        string      `bson:"notes,omitempty" json:"notes,omitempty"`
	Image        *Attachment `bson:"image,omitempty" json:"image,omitempty"`
}

// MailboxRequest asks the company to receive and hold packages ("casilla").
type MailboxRequest struct {
	Customer Customer      `bson:"customer" json:"customer"`
	Arrival  Arrival       `bson:"arrival" json:"arrival"`
	Items    []PackageItem `bson:"items" json:"items"`
	Comments string        `bson:"comments,omitempty" json:"comments,omitempty"`
}

// Delivery methods
const (
	DeliveryPickup            = "pickup"
	DeliveryPickupSantiago    = "pickup_santiago"
	DeliveryPickupBuenosAires = "pickup_buenosaires"
	DeliveryHotel             = "hotel_delivery"
)

// HotelDetails is required when the delivery method is hotel_delivery.
type HotelDetails struct {
	Region     string `bson:"region,omitempty" json:"region,omitempty"`
	Commune    string `bson:"commune" json:"commune"`
	Address    string `bson:"address" json:"address"`
	HotelName  string `bson:"hotel_name,omitempty" json:"hotel_name,omitempty"`
	RoomNumber string `bson:"room_number,omitempty" json:"room_number,omitempty"`
}

type Delivery struct {
	Method string        `bson:"method" json:"method"`
	Hotel  *HotelDetails `bson:"hotel,omitempty" json:"hotel,omitempty"`
}

// Product item types
const (
	ProductLink   = "link"
	ProductSearch = "search"
)

// ProductItem is either a linked product (URL) or a search description
// (category, brand, model, specs).
type ProductItem struct {
	Type     string `bson:"type" json:"type"`
	URL      string `bson:"url,omitempty" json:"url,omitempty"`
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	Color    string `bson:"color,omitempty" json:"color,omitempty"`
	Size     string `bson:"size,omitempty" json:"size,omitempty"`
	Category string `bson:"category,omitempty" json:"category,omitempty"`
	Brand    string `bson:"brand,omitempty" json:"brand,omitempty"`
	Model    string `bson:"model,omitempty" json:"model,omitempty"`
	Specs    string `bson:"specs,omitempty" json:"specs,omitempty"`
	Quantity int    `bson:"quantity" json:"quantity"`
	Notes    string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// ShoppingQuoteRequest lists products the customer wants bought on their behalf.
type ShoppingQuoteRequest struct {
	Customer Customer      `bson:"customer" json:"customer"`
	Arrival  Arrival       `bson:"arrival" json:"arrival"`
	Delivery Delivery      `bson:"delivery" json:"delivery"`
	Products []ProductItem `bson:"products" json:"products"`
	Comments string        `bson:"comments,omitempty" json:"comments,omitempty"`
}
