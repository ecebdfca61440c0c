package dto

// ── registration DTO ──

// SubmitRegistrationRequest public form, posted as multipart/form-data
// together with the passport_photo file part
type SubmitRegistrationRequest struct {
	Surname       string `form:"surname"        binding:"required,min=2,max=100"`
	OtherNames    string `form:"other_names"    binding:"required,min=2,max=150"`
	DateOfBirth   string `form:"date_of_birth"  binding:"required,datetime=2006-01-02"`
	Age           *int   `form:"age"` // optional; must match the age derived from date_of_birth
	Gender        string `form:"gender"         binding:"omitempty,oneof=M F"`
	PhoneNumber   string `form:"phone_number"   binding:"required,min=10,max=20"`
	Address       string `form:"address"        binding:"required,min=10,max=500"`
	EmailAddress  string `form:"email_address"  binding:"required,email"`
	Category      string `form:"category"       binding:"required,oneof=PUBLIC_SPEAKING SPOKEN_WORD"`
	CurrentSchool string `form:"current_school" binding:"required,min=2,max=200"`
	ClassLevel    string `form:"class_level"    binding:"required,min=1,max=50"`
	Motivation    string `form:"motivation"     binding:"required,max=5000"`
	ParentName    string `form:"parent_name"    binding:"max=150"`
	ParentPhone   string `form:"parent_phone"   binding:"max=20"`
	Agreement     bool   `form:"agreement"`
}

// RegistrationListRequest admin list query
type RegistrationListRequest struct {
	Q       string `form:"q"       binding:"max=200"`
	Status  string `form:"status"  binding:"omitempty,oneof=ALL PENDING ACCEPTED REJECTED"`
	Refresh bool   `form:"refresh"`
}

// TransitionRequest accept/reject body
type TransitionRequest struct {
	Notes  string `json:"notes"  binding:"max=2000"`
	Reason string `json:"reason" binding:"max=1000"` // rejection only
}

// ExportRequest export query; container "all" (default) exports every status
type ExportRequest struct {
	Q         string `form:"q"         binding:"max=200"`
	Container string `form:"container" binding:"omitempty,oneof=all registered accepted rejected"`
	Format    string `form:"format"    binding:"omitempty,oneof=csv xlsx"`
}

// ── notification DTO ──

// ConfirmationNotifyRequest POST /notify/confirmation
type ConfirmationNotifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"  binding:"required"`
}

// StatusNotifyRequest POST /notify/status. Status is checked by the handler so
// the caller gets the dedicated message.
type StatusNotifyRequest struct {
	Email  string `json:"email"  binding:"required,email"`
	Name   string `json:"name"   binding:"required"`
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}
