package sms

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Result is the outcome of one send attempt. The engine records it verbatim
// on the violation record for audit.
type Result struct {
	Success    bool      `json:"success"`
	Provider   string    `json:"provider"`
	ProviderID string    `json:"provider_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Sender is the SMS collaborator contract. The engine only depends on this
// shape, never on a provider's wire format.
type Sender interface {
	Send(ctx context.Context, phoneNumber, message string) Result
}

// NormalizePhoneNumber converts Philippine mobile numbers in their common
// formats (09XXXXXXXXX, 639..., 9...) to +639XXXXXXXXX. Unrecognized
// formats are returned unchanged.
func NormalizePhoneNumber(phoneNumber string) string {
	var b strings.Builder
	for _, c := range phoneNumber {
		if c >= '0' && c <= '9' || c == '+' {
			b.WriteRune(c)
		}
	}
	clean := b.String()

	switch {
	case strings.HasPrefix(clean, "+639"):
		return clean
	case strings.HasPrefix(clean, "639"):
		return "+" + clean
	case strings.HasPrefix(clean, "09"):
		return "+63" + clean[1:]
	case strings.HasPrefix(clean, "9") && len(clean) == 10:
		return "+63" + clean
	}
	return phoneNumber
}

// BoundaryViolationMessage builds the SMS text for a dwell violation.
func BoundaryViolationMessage(boatName, ownerName, fromMunicipality, toMunicipality string) string {
	boatLabel := strings.TrimSpace(boatName)
	if boatLabel == "" {
		boatLabel = "the boat"
	}
	ownerLabel := strings.TrimSpace(ownerName)
	if ownerLabel == "" {
		ownerLabel = "the owner"
	}
	return fmt.Sprintf(
		"BOUNDARY ALERT: Hello, this is to inform you that the boat, %s, registered under %s has crossed from %s to %s. "+
			"Because of this, %s is subject to questioning to determine the reason for crossing the boundary.\n\n"+
			"Please ensure that the boat has the proper permits for fishing in this area. "+
			"Kindly remind %s of this violation as soon as they arrive. Thank you and safe sailing!\n– BANGKA",
		boatLabel, ownerLabel, fromMunicipality, toMunicipality, ownerLabel, ownerLabel,
	)
}
