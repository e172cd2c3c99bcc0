package content

import (
	"strings"

	"github.com/asaskevich/govalidator"
)

// ValidationError describes the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(message string, path ...string) *ValidationError {
	return &ValidationError{Field: strings.Join(path, "."), Message: message}
}

func requireText(value, message string, path ...string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(message, path...)
	}
	return nil
}

// Validate checks the submitted post fields.
func (p InsertPost) Validate() error {
	if err := validateSlug(p.Slug); err != nil {
		return err
	}
	if err := requireText(p.Title, "Title is required", "title"); err != nil {
		return err
	}
	if !p.Type.Valid() {
		return invalid("Invalid post type. Expected 'thinking' | 'kue'", "type")
	}
	return nil
}

func validateSlug(slug string) error {
	if err := requireText(slug, "Slug is required", "slug"); err != nil {
		return err
	}
	if strings.ContainsAny(slug, "/ \t\r\n") {
		return invalid("Slug must not contain slashes or whitespace", "slug")
	}
	return nil
}

// Validate checks the submitted belief fields.
func (b InsertBelief) Validate() error {
	return requireText(b.Content, "Content is required", "content")
}

// Validate checks the submitted now update fields.
func (u InsertNowUpdate) Validate() error {
	return requireText(u.Content, "Content is required", "content")
}

// Validate checks a contact form submission. Fields are checked in
// declaration order and the first failure is returned.
func (m InsertMessage) Validate() error {
	if err := requireText(m.Name, "Name is required", "name"); err != nil {
		return err
	}
	if strings.TrimSpace(m.Email) == "" {
		return invalid("Email is required", "email")
	}
	if !govalidator.IsEmail(m.Email) {
		return invalid("Invalid email address", "email")
	}
	if err := requireText(m.Message, "Message is required", "message"); err != nil {
		return err
	}
	return nil
}

// Validate checks a stored post as returned by the API.
func (p Post) Validate() error {
	if p.ID <= 0 {
		return invalid("Expected a positive id", "id")
	}
	return InsertPost{Slug: p.Slug, Title: p.Title, Content: p.Content, Type: p.Type}.Validate()
}

// Validate checks a stored belief as returned by the API.
func (b Belief) Validate() error {
	if b.ID <= 0 {
		return invalid("Expected a positive id", "id")
	}
	return InsertBelief{Content: b.Content, Order: b.Order}.Validate()
}

// Validate checks a stored now update as returned by the API.
func (u NowUpdate) Validate() error {
	if u.ID <= 0 {
		return invalid("Expected a positive id", "id")
	}
	return InsertNowUpdate{Content: u.Content}.Validate()
}

// Validate checks a stored message as returned by the API.
func (m Message) Validate() error {
	if m.ID <= 0 {
		return invalid("Expected a positive id", "id")
	}
	if m.CreatedAt.IsZero() {
		return invalid("Expected a creation time", "createdAt")
	}
	return InsertMessage{Name: m.Name, Email: m.Email, Message: m.Message}.Validate()
}
