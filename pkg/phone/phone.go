// Package phone normalizes patient and facility phone numbers.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/Alijeyrad/carevisit_backend/config"
)

var ErrInvalid = errors.New("invalid phone number")

// Normalizer parses numbers written without a country code against a default region.
type Normalizer struct {
	region string
}

func New(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = "JP"
	}
	return &Normalizer{region: region}
}

func FromCentralConfig(c config.PhoneConfig) *Normalizer {
	return New(c.DefaultRegion)
}

// Normalize returns the E.164 form of raw. Blank input yields "".
func (n *Normalizer) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(raw, n.region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalid
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Display formats a stored number the way it is dialled locally when it
// belongs to the default region, and internationally otherwise.
func (n *Normalizer) Display(stored string) string {
	if stored == "" {
		return ""
	}
	num, err := phonenumbers.Parse(stored, n.region)
	if err != nil {
		return stored
	}
	if phonenumbers.GetRegionCodeForNumber(num) == n.region {
		return phonenumbers.Format(num, phonenumbers.NATIONAL)
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
