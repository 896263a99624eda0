package domain

import "time"

// Address is a saved shipping address.
type Address struct {
	ID         string    `json:"id"`
	Line1      string    `json:"addr1"`
	Line2      string    `json:"addr2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"zip"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"created_at"`
}

// DefaultAddress returns the default address from the collection, falling
// back to the first entry when none is flagged. Returns nil for an empty
// collection.
func DefaultAddress(addresses []Address) *Address {
	for i := range addresses {
		if addresses[i].IsDefault {
			return &addresses[i]
		}
	}
	if len(addresses) > 0 {
		return &addresses[0]
	}
	return nil
}
