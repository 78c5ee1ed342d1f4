package domain

import "time"

// WhoisRecord is a cached registration snapshot. Raw holds the provider
// response exactly as fetched; records are never mutated or expired.
type WhoisRecord struct {
	ID      int64
	Domain  string
	SavedAt time.Time
	Raw     []byte
}

// Registration is the decoded registration document returned by the
// whois provider. An Error value means the provider reported a
// domain-level problem inside an otherwise successful response.
type Registration struct {
	Domain    string `json:"domain"`
	Registrar struct {
		Name string `json:"name"`
	} `json:"registrar"`
	Status             string       `json:"status"`
	CreatedOn          string       `json:"created_on"`
	UpdatedOn          string       `json:"updated_on"`
	ExpiresOn          string       `json:"expires_on"`
	Nameservers        []Nameserver `json:"nameservers"`
	RegistrantContacts []Contact    `json:"registrant_contacts"`
	Error              string       `json:"error"`
}

// Nameserver is one delegated nameserver of a registration.
type Nameserver struct {
	Name string `json:"name"`
}

// Contact is a registrant contact block of a registration.
type Contact struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Zip          string `json:"zip"`
	State        string `json:"state"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	Fax          string `json:"fax"`
	Email        string `json:"email"`
}
