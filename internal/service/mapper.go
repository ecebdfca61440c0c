package service

import (
	"time"

	"hogis-registration/internal/dto"
	"hogis-registration/internal/model"
)

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toSummary(e Entry) dto.RegistrationSummary {
	r := e.Reg
	return dto.RegistrationSummary{
		ID:             r.ID,
		Name:           r.FullName(),
		Email:          r.EmailAddress,
		Phone:          r.PhoneNumber,
		Age:            r.Age,
		Gender:         r.Gender,
		Category:       string(r.Category),
		School:         r.CurrentSchool,
		ClassLevel:     r.ClassLevel,
		Status:         string(e.source().Status()),
		Container:      string(e.source()),
		SubmissionDate: r.SubmissionDate.Format(time.RFC3339),
		ReviewedAt:     formatTimePtr(r.ReviewedAt),
		ReviewedBy:     r.ReviewedBy,
	}
}

func toDetail(r *model.Registration, photo string) *dto.RegistrationDetailResponse {
	resp := &dto.RegistrationDetailResponse{
		RegistrationSummary:  toSummary(Entry{Reg: *r, Container: r.Container()}),
		Surname:              r.Surname,
		OtherNames:           r.OtherNames,
		DateOfBirth:          r.DateOfBirth,
		Address:              r.Address,
		Motivation:           r.Motivation,
		Agreement:            r.Agreement,
		ParticipantSignature: r.ParticipantSignature,
		AdminNotes:           r.AdminNotes,
		RejectionReason:      r.RejectionReason,
	}
	if r.Consent.Given() {
		resp.Consent = &dto.ConsentResponse{
			ParentName:      r.Consent.ParentName,
			ParentPhone:     r.Consent.ParentPhone,
			ParentSignature: r.Consent.ParentSignature,
		}
	}
	if photo != "" || r.Photo.Present() {
		resp.Photo = &dto.PhotoResponse{
			Data:       photo,
			FileName:   r.Photo.FileName,
			UploadedAt: formatTimePtr(r.Photo.UploadedAt),
			Chunks:     r.Photo.Chunks,
			Object:     r.Photo.Object,
		}
	}
	return resp
}
