package utils

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers written without a country code.
const DefaultRegion = "DK"

// NormalizePhoneNumber normalizes a phone number to E.164 format.
// region is the ISO country used when the number has no country code.
func NormalizePhoneNumber(phone, region string) (string, error) {
	phone = strings.TrimSpace(phone)
	if region == "" {
		region = DefaultRegion
	}

	num, err := phonenumbers.Parse(phone, region)
	if err != nil {
		return "", err
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", phonenumbers.ErrNotANumber
	}

	// e.g. +4520123456
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// SamePhone reports whether a and b are the same number once normalized.
// Numbers that fail to parse are compared by their digits.
func SamePhone(a, b, region string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	na, errA := NormalizePhoneNumber(a, region)
	nb, errB := NormalizePhoneNumber(b, region)
	if errA == nil && errB == nil {
		return na == nb
	}
	return digits(a) == digits(b)
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
