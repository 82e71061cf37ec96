package models

// PartnerStore is an entry in the public directory of Chilean retailers
// customers can buy from.
type PartnerStore struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	URL         string `json:"url"`
	Category    string `json:"category"`
}
