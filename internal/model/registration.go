package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// ParticipantSignatureMarker stored for every submission that ticked the agreement
	ParticipantSignatureMarker = "Digital Signature Provided"
	// ParentSignatureMarker stored with guardian consent
	ParentSignatureMarker = "Digital Consent Provided"
)

// Registration one applicant's submission, table registrations
type Registration struct {
	ID     string `gorm:"type:uuid;primaryKey"                  json:"id"`
	Status Status `gorm:"type:varchar(16);not null;index" json:"status"`

	// personal
	Surname      string `gorm:"type:varchar(100);not null" json:"surname"`
	OtherNames   string `gorm:"type:varchar(150);not null" json:"other_names"`
	DateOfBirth  string `gorm:"type:varchar(10);not null"  json:"date_of_birth"` // YYYY-MM-DD
	Age          int    `gorm:"not null"                   json:"age"`
	Gender       string `gorm:"type:varchar(1)"            json:"gender,omitempty"`
	PhoneNumber  string `gorm:"type:varchar(32);not null"  json:"phone_number"`
	Address      string `gorm:"type:text;not null"         json:"address"`
	EmailAddress string `gorm:"type:varchar(254);not null;index" json:"email_address"`

	Photo Photo `gorm:"embedded;embeddedPrefix:photo_" json:"photo"`

	// competition
	Category      Category `gorm:"type:varchar(32);not null"  json:"category"`
	CurrentSchool string   `gorm:"type:varchar(200);not null" json:"current_school"`
	ClassLevel    string   `gorm:"type:varchar(50);not null"  json:"class_level"`
	Motivation    string   `gorm:"type:text;not null"         json:"motivation"`

	Consent ParentConsent `gorm:"embedded" json:"parent_consent"`

	// provenance
	Agreement            bool      `gorm:"not null"                 json:"agreement"`
	ParticipantSignature string    `gorm:"type:varchar(64);not null" json:"participant_signature"`
	SubmissionDate       time.Time `gorm:"not null"                 json:"submission_date"`

	// review, set only by a transition
	AdminNotes      *string    `gorm:"type:text"         json:"admin_notes,omitempty"`
	RejectionReason *string    `gorm:"type:text"         json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy      *string    `gorm:"type:varchar(100)" json:"reviewed_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Chunks overflow photo segments 1..n-1; loaded on demand
	Chunks []PhotoChunk `gorm:"foreignKey:RegistrationID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName table name
func (Registration) TableName() string { return "registrations" }

// BeforeCreate assigns the identifier and the default status
func (r *Registration) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	return nil
}

// FullName "Surname OtherNames" as shown on the dashboard and in emails
func (r *Registration) FullName() string {
	return strings.TrimSpace(r.Surname + " " + r.OtherNames)
}

// Container where the record currently lives
func (r *Registration) Container() Container {
	return r.Status.Container()
}

// Photo passport photograph, columns photo_*. Exactly one representation is
// populated: Legacy (URL or inline data URI from older rows), Object (blob key)
// or Data (first base64 chunk, with Chunks-1 overflow rows in PhotoChunk).
type Photo struct {
	Legacy     *string    `gorm:"type:text"                json:"legacy,omitempty"`
	Data       string     `gorm:"type:text"                json:"data,omitempty"`
	FileName   string     `gorm:"type:varchar(255)"        json:"file_name,omitempty"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
	Chunks     int        `gorm:"not null;default:0"       json:"chunks"`
	Object     string     `gorm:"type:varchar(512)"        json:"object,omitempty"`
}

// Present reports whether any representation carries a photo
func (p Photo) Present() bool {
	return (p.Legacy != nil && *p.Legacy != "") || p.Data != "" || p.Object != ""
}

// PhotoChunk one overflow segment of a chunked photo, table registration_photo_chunks.
// Index starts at 1; segment 0 lives in Photo.Data.
type PhotoChunk struct {
	RegistrationID string `gorm:"type:uuid;primaryKey"       json:"registration_id"`
	Index          int    `gorm:"column:idx;primaryKey;autoIncrement:false" json:"idx"`
	Data           string `gorm:"type:text;not null"         json:"-"`
}

// TableName table name
func (PhotoChunk) TableName() string { return "registration_photo_chunks" }

// ParentConsent guardian consent, required under the consent age.
// Zero value means no consent was recorded.
type ParentConsent struct {
	ParentName      string `gorm:"type:varchar(150)" json:"parent_name,omitempty"`
	ParentPhone     string `gorm:"type:varchar(32)"  json:"parent_phone,omitempty"`
	ParentSignature string `gorm:"type:varchar(64)"  json:"parent_signature,omitempty"`
}

// Given reports whether consent details were recorded
func (p ParentConsent) Given() bool {
	return p.ParentName != "" || p.ParentPhone != ""
}

// Review outcome recorded by a status transition
type Review struct {
	Notes      string
	Reason     string // rejection only
	ReviewedAt time.Time
	ReviewedBy string
}
