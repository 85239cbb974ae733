package health

import (
	"errors"
	"strings"
)

// SelfProfileID is the key of the single profile kept per device.
const SelfProfileID = "self"

var (
	// ErrNameRequired is returned when a record has no name.
	ErrNameRequired = errors.New("name is required")
	// ErrPhoneRequired is returned when a profile has no emergency phone.
	ErrPhoneRequired = errors.New("emergency phone is required")
)

// Profile describes the user and who to call when they fall.
type Profile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Age            int    `json:"age,omitempty"`
	BloodType      string `json:"blood_type,omitempty"`
	EmergencyName  string `json:"emergency_name,omitempty"`
	EmergencyPhone string `json:"emergency_phone"`
}

// RecordID implements the store record contract.
func (p Profile) RecordID() string {
	return p.ID
}

// Validate checks the fields the emergency flow depends on.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}

	if strings.TrimSpace(p.EmergencyPhone) == "" {
		return ErrPhoneRequired
	}

	return nil
}

// Medication is one entry of the medication schedule.
type Medication struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Dosage string `json:"dosage,omitempty"`
	// Times lists the daily intake times as HH:MM.
	Times []string `json:"times,omitempty"`
	Notes string   `json:"notes,omitempty"`
}

// RecordID implements the store record contract.
func (m Medication) RecordID() string {
	return m.ID
}

// Validate checks the medication has a name.
func (m Medication) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrNameRequired
	}

	return nil
}
