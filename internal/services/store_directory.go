package services

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"andesgo/intake/internal/models"
)

// ErrInvalidLimit is returned for a limit that is not a non-negative finite number.
var ErrInvalidLimit = errors.New(`parámetro "limit" inválido`)

const placeholderLogo = "/api/placeholder/200/120"

var partnerStores = []models.PartnerStore{
	{ID: 1, Name: "Falabella", Description: "La tienda departamental líder en Chile con moda, tecnología, hogar y más.", Logo: placeholderLogo, URL: "https://www.falabella.com", Category: "Retail General"},
	{ID: 2, Name: "Ripley", Description: "Gran variedad en moda, electrónica, hogar y deportes con las mejores marcas.", Logo: placeholderLogo, URL: "https://www.ripley.cl", Category: "Retail General"},
	{ID: 3, Name: "Paris", Description: "Tienda departamental con productos de moda, belleza, hogar y tecnología.", Logo: placeholderLogo, URL: "https://www.paris.cl", Category: "Retail General"},
	{ID: 4, Name: "La Polar", Description: "Productos para el hogar, moda y tecnología con facilidades de pago.", Logo: placeholderLogo, URL: "https://www.lapolar.cl", Category: "Retail General"},
	{ID: 5, Name: "Lider", Description: "Supermercado líder con productos de alimentación, hogar y más.", Logo: placeholderLogo, URL: "https://www.lider.cl", Category: "Supermercado"},
	{ID: 6, Name: "Jumbo", Description: "Hipermercado con gran variedad de productos alimentarios y para el hogar.", Logo: placeholderLogo, URL: "https://www.jumbo.cl", Category: "Supermercado"},
	{ID: 7, Name: "PC Factory", Description: "Especialistas en tecnología, computadores, componentes y gaming.", Logo: placeholderLogo, URL: "https://www.pcfactory.cl", Category: "Tecnología"},
	{ID: 8, Name: "Hites", Description: "Tienda con productos de moda, hogar, deportes y tecnología.", Logo: placeholderLogo, URL: "https://www.hites.com", Category: "Retail General"},
	{ID: 9, Name: "Decathlon", Description: "Tienda con productos de Deporte, Ropa", Logo: placeholderLogo, URL: "https://www.decathlon.cl", Category: "Retail Deportivo"},
	{ID: 10, Name: "Ikea", Description: "Tienda de muebles y decoración para el hogar.", Logo: placeholderLogo, URL: "https://www.ikea.cl", Category: "Home Depot"},
	{ID: 11, Name: "Sodimac", Description: "Tienda de construcción y mejoramiento del hogar.", Logo: placeholderLogo, URL: "https://www.sodimac.cl", Category: "Home Depot"},
}

// StoreListing is one page of the partner store directory.
type StoreListing struct {
	Items []models.PartnerStore `json:"items"`
	Count int                   `json:"count"`
	Total int                   `json:"total"`
	Limit *float64              `json:"limit"`
}

// IStoreDirectory defines the interface for the partner store directory.
type IStoreDirectory interface {
	List(limitParam string, present bool) (*StoreListing, error)
}

type storeDirectory struct {
	stores []models.PartnerStore
}

// NewStoreDirectory returns the fixed partner store table.
func NewStoreDirectory() IStoreDirectory {
	return &storeDirectory{stores: partnerStores}
}

// List returns the first limit stores. present reports whether the limit
// query parameter was sent at all; an absent limit lists everything.
// Fractional limits are floored and limits past the end are clamped.
func (d *storeDirectory) List(limitParam string, present bool) (*StoreListing, error) {
	n := len(d.stores)
	var limit *float64
	if present {
		v, err := ParseLimit(limitParam)
		if err != nil {
			return nil, err
		}
		limit = &v
		n = int(math.Min(float64(n), math.Floor(v)))
	}

	items := make([]models.PartnerStore, n)
	copy(items, d.stores[:n])
	return &StoreListing{Items: items, Count: n, Total: len(d.stores), Limit: limit}, nil
}

// ParseLimit accepts any finite non-negative decimal number. A blank value
// counts as zero.
func ParseLimit(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidLimit
	}
	return v, nil
}
