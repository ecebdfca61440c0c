package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Kind email template
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindAcceptance   Kind = "acceptance"
	KindRejection    Kind = "rejection"
)

var subjects = map[Kind]string{
	KindConfirmation: "HOGIS Foundation Competition - Registration Confirmation",
	KindAcceptance:   "HOGIS Foundation Competition - Registration Accepted!",
	KindRejection:    "HOGIS Foundation Competition - Registration Update",
}

// Competition static event details shown in every email
type Competition struct {
	Theme       string
	Preliminary string
	Finale      string
}

// Contact organiser contact shown in the footer
type Contact struct {
	Name  string
	Phone string
	Email string
}

// DefaultCompetition the 2025 edition
var DefaultCompetition = Competition{
	Theme:       "Raising the Boy Child, Building the Total Man",
	Preliminary: "16th - 17th September 2025",
	Finale:      "27th September 2025, Calabar",
}

// DefaultContact organiser contact
var DefaultContact = Contact{
	Name:  "Dejudge Glasgow",
	Phone: "08034227242",
	Email: "hogisgrouphotels@gmail.com",
}

// Message a rendered email
type Message struct {
	Kind    Kind
	To      mail.Address
	Subject string
	HTML    string
	Text    string
}

type templateData struct {
	Subject     string
	Name        string
	Reason      string
	Year        int
	Competition Competition
	Contact     Contact
}

// Renderer renders the three notification templates
type Renderer struct {
	pages       map[Kind]*template.Template
	competition Competition
	contact     Contact
	now         func() time.Time
}

// NewRenderer parses the embedded templates
func NewRenderer(competition Competition, contact Contact) (*Renderer, error) {
	r := &Renderer{
		pages:       make(map[Kind]*template.Template, len(subjects)),
		competition: competition,
		contact:     contact,
		now:         time.Now,
	}
	for kind := range subjects {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+string(kind)+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		r.pages[kind] = t
	}
	return r, nil
}

// Render builds the message of kind for the recipient
func (r *Renderer) Render(kind Kind, email, name, reason string) (*Message, error) {
	t, ok := r.pages[kind]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", kind)
	}

	data := templateData{
		Subject:     subjects[kind],
		Name:        name,
		Reason:      reason,
		Year:        r.now().Year(),
		Competition: r.competition,
		Contact:     r.contact,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}

	return &Message{
		Kind:    kind,
		To:      mail.Address{Name: name, Address: email},
		Subject: data.Subject,
		HTML:    buf.String(),
		Text:    plainText(kind, data),
	}, nil
}

func plainText(kind Kind, d templateData) string {
	var body string
	switch kind {
	case KindConfirmation:
		body = fmt.Sprintf("Thank you for registering, %s!\n\nWe have received your registration. "+
			"Our team will review your application within 2-3 business days and email you about your status.", d.Name)
	case KindAcceptance:
		body = fmt.Sprintf("Dear %s,\n\nYour registration has been accepted. "+
			"We look forward to your performance.", d.Name)
	case KindRejection:
		body = fmt.Sprintf("Dear %s,\n\nAfter careful review, we cannot accept your registration at this time.", d.Name)
		if d.Reason != "" {
			body += "\n\nReason: " + d.Reason
		}
	}
	return fmt.Sprintf("%s\n\nTheme: %s\nPreliminary Stage: %s\nGrand Finale: %s\n\nContact: %s, %s, %s\n",
		body, d.Competition.Theme, d.Competition.Preliminary, d.Competition.Finale,
		d.Contact.Name, d.Contact.Phone, d.Contact.Email)
}
