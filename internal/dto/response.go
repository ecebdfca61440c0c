package dto

// ── registration responses ──

// SubmitRegistrationResponse returned after a successful write
type SubmitRegistrationResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	SubmissionDate   string `json:"submission_date"`
	ConfirmationSent bool   `json:"confirmation_sent"`
}

// RegistrationSummary admin list row
type RegistrationSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Age            int     `json:"age"`
	Gender         string  `json:"gender,omitempty"`
	Category       string  `json:"category"`
	School         string  `json:"school"`
	ClassLevel     string  `json:"class_level"`
	Status         string  `json:"status"`
	Container      string  `json:"container"`
	SubmissionDate string  `json:"submission_date"`
	ReviewedAt     *string `json:"reviewed_at,omitempty"`
	ReviewedBy     *string `json:"reviewed_by,omitempty"`
}

// ConsentResponse parent consent block, present only for minors
type ConsentResponse struct {
	ParentName      string `json:"parent_name"`
	ParentPhone     string `json:"parent_phone"`
	ParentSignature string `json:"parent_signature"`
}

// PhotoResponse reassembled passport photo
type PhotoResponse struct {
	Data       string  `json:"data"` // data URI or legacy URL
	FileName   string  `json:"file_name,omitempty"`
	UploadedAt *string `json:"uploaded_at,omitempty"`
	Chunks     int     `json:"chunks"`
	Object     string  `json:"object,omitempty"`
}

// RegistrationDetailResponse full record
type RegistrationDetailResponse struct {
	RegistrationSummary
	OtherNames           string           `json:"other_names"`
	Surname              string           `json:"surname"`
	DateOfBirth          string           `json:"date_of_birth"`
	Address              string           `json:"address"`
	Motivation           string           `json:"motivation"`
	Agreement            bool             `json:"agreement"`
	ParticipantSignature string           `json:"participant_signature"`
	Consent              *ConsentResponse `json:"consent,omitempty"`
	Photo                *PhotoResponse   `json:"photo,omitempty"`
	AdminNotes           *string          `json:"admin_notes,omitempty"`
	RejectionReason      *string          `json:"rejection_reason,omitempty"`
}

// StatusCounts dashboard header counters
type StatusCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// RegistrationListResponse filtered admin view
type RegistrationListResponse struct {
	Items       []RegistrationSummary `json:"items"`
	Total       int                   `json:"total"`
	Counts      StatusCounts          `json:"counts"`
	RefreshedAt string                `json:"refreshed_at"`
}

// TransitionResponse result of accept/reject. Warning is set when the
// status changed but the email could not be sent.
type TransitionResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	NotificationSent bool   `json:"notificationSent"`
	Warning          string `json:"warning,omitempty"`
}

// ── admin auth responses ──

// LoginResponse issued admin token
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // seconds
	Username  string `json:"username"`
}

// VerifyResponse current admin session
type VerifyResponse struct {
	Valid     bool   `json:"valid"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
}
