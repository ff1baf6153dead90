// Package certsim simulates certificate issuance: an issuer signs a
// canonical serialization of subject, issuer, validity and serial, and
// anyone holding the issuer's public key can verify it. There is no chain
// or trust store.
package certsim

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sigilchat/client-go/internal/crypto"
)

// DateLayout is the format of validity bounds.
const DateLayout = "2006-01-02"

// SerialBytes is the size of generated serial numbers.
const SerialBytes = 8

// ErrInvalidRecord is returned when a record is missing required fields.
var ErrInvalidRecord = errors.New("invalid certificate record")

// Identity names a subject or an issuer.
type Identity struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email"`
	Organization string `json:"organization,omitempty"`
}

// Authorities is the fixed set of issuers offered by the demo.
var Authorities = []Identity{
	{ID: "ac-br", Name: "Autoridade Certificadora Nacional", Email: "ac@brasil.gov", Organization: "Governo BR"},
	{ID: "ac-mz", Name: "AC Moçambique", Email: "certificados@acmz.gov.mz", Organization: "Gov. Moçambique"},
	{ID: "ac-global", Name: "GlobalTrust CA", Email: "support@globaltrust.com", Organization: "GlobalTrust"},
}

// Authority looks up an entry of Authorities by ID.
func Authority(id string) (Identity, bool) {
	for _, a := range Authorities {
		if a.ID == id {
			return a, true
		}
	}
	return Identity{}, false
}

// Validity is the window [From, To) formatted with DateLayout.
type Validity struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Record is the signed content of a certificate.
type Record struct {
	Subject  Identity `json:"subject"`
	Issuer   Identity `json:"issuer"`
	Validity Validity `json:"validity"`
	Serial   string   `json:"serial"`
}

// NewRecord builds a record valid from now for the given number of years,
// with a fresh random serial.
func NewRecord(subject, issuer Identity, now time.Time, years int) (Record, error) {
	if years <= 0 {
		return Record{}, fmt.Errorf("%w: validity of %d years", ErrInvalidRecord, years)
	}
	serial, err := crypto.RandomBytes(SerialBytes)
	if err != nil {
		return Record{}, err
	}
	now = now.UTC()
	r := Record{
		Subject: subject,
		Issuer:  issuer,
		Validity: Validity{
			From: now.Format(DateLayout),
			To:   now.AddDate(years, 0, 0).Format(DateLayout),
		},
		Serial: crypto.ToHex(serial),
	}
	return r, r.validate()
}

// Canonical returns the bytes that are signed. Field order is fixed by the
// struct definitions.
func (r Record) Canonical() ([]byte, error) {
	return json.Marshal(r)
}

// ValidAt reports whether t falls inside the validity window.
func (r Record) ValidAt(t time.Time) bool {
	from, err := time.Parse(DateLayout, r.Validity.From)
	if err != nil {
		return false
	}
	to, err := time.Parse(DateLayout, r.Validity.To)
	if err != nil {
		return false
	}
	t = t.UTC()
	return !t.Before(from) && t.Before(to)
}

func (r Record) validate() error {
	switch {
	case r.Subject.ID == "" && r.Subject.Email == "":
		return fmt.Errorf("%w: empty subject", ErrInvalidRecord)
	case r.Issuer.ID == "" && r.Issuer.Email == "":
		return fmt.Errorf("%w: empty issuer", ErrInvalidRecord)
	case r.Serial == "":
		return fmt.Errorf("%w: empty serial", ErrInvalidRecord)
	}
	return nil
}
