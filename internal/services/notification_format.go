package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"andesgo/intake/internal/models"
	"andesgo/intake/internal/pricing"
)

var spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var spanishMonths = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
	"agosto", "septiembre", "octubre", "noviembre", "diciembre"}

// santiagoLocation falls back to a fixed UTC-3 offset when the tz database is missing.
func santiagoLocation() *time.Location {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		return time.FixedZone("CLT", -3*60*60)
	}
	return loc
}

// formatLongDate renders "lunes, 2 de marzo de 2026".
func formatLongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d", spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// formatLongDateTime renders "lunes, 2 de marzo de 2026, 14:05".
func formatLongDateTime(t time.Time) string {
	return fmt.Sprintf("%s, %02d:%02d", formatLongDate(t), t.Hour(), t.Minute())
}

// formatCLP renders whole pesos with dot thousands separators: "$28.000".
func formatCLP(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String()
}

func arrivalLabel(a models.Arrival) string {
	switch a.Option {
	case models.ArrivalTomorrow:
		return "Mañana"
	case models.ArrivalOneWeek:
		return "En una semana"
	case models.ArrivalNotSure:
		return "Aún no está seguro"
	case models.ArrivalSpecificDate:
		if t, err := pricing.ParseDate(a.Date); err == nil {
			return formatLongDate(t)
		}
		return a.Date
	}
	return "No especificado"
}

func deliveryLabel(d models.Delivery) string {
	switch d.Method {
	case models.DeliveryPickup:
		return "Retiro en oficina"
	case models.DeliveryPickupSantiago:
		return "Retiro en oficina (Santiago)"
	case models.DeliveryPickupBuenosAires:
		return "Retiro en oficina (Buenos Aires)"
	case models.DeliveryHotel:
		return "Entrega en hotel"
	}
	return "No especificado"
}

func kindLabel(k models.RequestKind) string {
	switch k {
	case models.KindStorageBooking:
		return "Reserva de bodegaje"
	case models.KindMailboxRequest:
		return "Solicitud de casilla"
	case models.KindShoppingQuote:
		return "Cotización"
	}
	return string(k)
}
