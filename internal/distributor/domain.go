package distributor

import (
	"errors"
	"time"
)

// Distributor is a master record for a channel partner, including the KYC
// identifiers collected at onboarding.
type Distributor struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	ContactPerson string    `json:"contact_person" db:"contact_person"`
	Phone         string    `json:"phone" db:"phone"`
	Email         string    `json:"email" db:"email"`
	Address       string    `json:"address" db:"address"`
	City          string    `json:"city" db:"city"`
	State         string    `json:"state" db:"state"`
	Pincode       string    `json:"pincode" db:"pincode"`
	AadhaarNumber string    `json:"aadhaar_number" db:"aadhaar_number"`
	PANNumber     string    `json:"pan_number" db:"pan_number"`
	GSTNumber     string    `json:"gst_number" db:"gst_number"`
	Salesperson   string    `json:"salesperson" db:"salesperson"`
	Active        bool      `json:"active" db:"active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// CreateDistributorRequest carries the onboarding payload.
type CreateDistributorRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	ContactPerson string `json:"contact_person" validate:"required,max=200"`
	Phone         string `json:"phone" validate:"required,max=20"`
	Email         string `json:"email" validate:"required,email"`
	Address       string `json:"address" validate:"required,max=500"`
	City          string `json:"city" validate:"required,max=100"`
	State         string `json:"state" validate:"required,max=100"`
	Pincode       string `json:"pincode" validate:"required,len=6,numeric"`
	AadhaarNumber string `json:"aadhaar_number" validate:"required,len=12,numeric"`
	PANNumber     string `json:"pan_number" validate:"required,len=10,alphanum"`
	GSTNumber     string `json:"gst_number" validate:"required,len=15,alphanum"`
	Salesperson   string `json:"salesperson" validate:"required,max=200"`
}

// UpdateDistributorRequest carries the editable fields. KYC identifiers are
// immutable after onboarding.
type UpdateDistributorRequest struct {
	ContactPerson *string `json:"contact_person,omitempty" validate:"omitempty,max=200"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=500"`
	City          *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State         *string `json:"state,omitempty" validate:"omitempty,max=100"`
	Pincode       *string `json:"pincode,omitempty" validate:"omitempty,len=6,numeric"`
	Salesperson   *string `json:"salesperson,omitempty" validate:"omitempty,max=200"`
}

// ListDistributorsRequest filters the distributor listing.
type ListDistributorsRequest struct {
	Search  string
	Active  *bool
	Page    int
	PerPage int
}

// ErrDuplicateGST is returned when the GST number already belongs to another
// distributor.
var ErrDuplicateGST = errors.New("distributor: gst number already registered")
