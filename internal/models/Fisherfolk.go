package models

import (
	"gorm.io/gorm"
)

// Fisherfolk is the registered owner/operator of one or more boats.
type Fisherfolk struct {
	gorm.Model
	RegistrationNumber string `json:"registration_number" gorm:"uniqueIndex"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	ContactNumber      string `json:"contact_number"`

	// Home-address municipality, last fallback when resolving home waters
	Municipality string `json:"municipality"`

	// Emergency contact, preferred over the fisherfolk's own number for SMS
	EmergencyContactName   string `json:"emergency_contact_name"`
	EmergencyContactNumber string `json:"emergency_contact_number"`
}

func (f Fisherfolk) FullName() string {
	if f.FirstName == "" && f.LastName == "" {
		return ""
	}
	return f.FirstName + " " + f.LastName
}
