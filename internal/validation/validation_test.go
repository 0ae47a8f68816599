package validation

import (
	"errors"
	"strings"
	"testing"
)

// field returns the Field of a ValidationError, or "" for nil
func field(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("got %T (%v), want ValidationError", err, err)
	}
	return ve.Field
}

func TestValidateParentRegistration(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		parent    string
		wantField string
	}{
		{name: "complete form", email: "pat@example.com", password: "correct-horse", parent: "Pat Lee"},
		{name: "email is trimmed", email: "  pat@example.com ", password: "correct-horse", parent: "Pat"},
		{name: "tagged school address", email: "pat+nextgen@mail.school.org", password: "correct-horse", parent: "Pat"},
		{name: "no email", email: "", password: "correct-horse", parent: "Pat", wantField: "email"},
		{name: "email without domain", email: "pat@", password: "correct-horse", parent: "Pat", wantField: "email"},
		{name: "email with space", email: "pat lee@example.com", password: "correct-horse", parent: "Pat", wantField: "email"},
		{name: "password one short", email: "pat@example.com", password: "horse12", parent: "Pat", wantField: "password"},
		{name: "password exactly minimum", email: "pat@example.com", password: "horse123", parent: "Pat"},
		{name: "no password", email: "pat@example.com", password: "", parent: "Pat", wantField: "password"},
		{name: "blank name", email: "pat@example.com", password: "correct-horse", parent: "   ", wantField: "name"},
		{name: "initial only", email: "pat@example.com", password: "correct-horse", parent: "P", wantField: "name"},
		{name: "email checked before password", email: "bad", password: "", parent: "", wantField: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParentRegistration(tt.email, tt.password, tt.parent)
			if got := field(t, err); got != tt.wantField {
				t.Errorf("ValidateParentRegistration(%q, %q, %q) field = %q, want %q", tt.email, tt.password, tt.parent, got, tt.wantField)
			}
		})
	}
}

func TestValidateLearnerProfile(t *testing.T) {
	tests := []struct {
		name      string
		learner   string
		age       int
		wantField string
	}{
		{name: "youngest learner", learner: "Ada", age: MinLearnerAge},
		{name: "oldest learner", learner: "Ada", age: MaxLearnerAge},
		{name: "hyphenated name", learner: "Mary-Jane", age: 10},
		{name: "too young", learner: "Ada", age: MinLearnerAge - 1, wantField: "age"},
		{name: "too old", learner: "Ada", age: MaxLearnerAge + 1, wantField: "age"},
		{name: "no name", learner: "", age: 10, wantField: "name"},
		{name: "name checked before age", learner: "A", age: 0, wantField: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLearnerProfile(tt.learner, tt.age)
			if got := field(t, err); got != tt.wantField {
				t.Errorf("ValidateLearnerProfile(%q, %d) field = %q, want %q", tt.learner, tt.age, got, tt.wantField)
			}
		})
	}
}

func TestValidateAgeMessageNamesRange(t *testing.T) {
	err := ValidateAge(20)
	if err == nil || !strings.Contains(err.Error(), "between 9 and 13") {
		t.Errorf("ValidateAge(20) = %v, want range in message", err)
	}
}

func TestValidatePIN(t *testing.T) {
	tests := []struct {
		name    string
		pin     string
		wantErr bool
	}{
		{name: "four digits", pin: "0427", wantErr: false},
		{name: "all zeros", pin: "0000", wantErr: false},
		{name: "empty", pin: "", wantErr: true},
		{name: "three digits", pin: "123", wantErr: true},
		{name: "five digits", pin: "12345", wantErr: true},
		{name: "letters", pin: "12a4", wantErr: true},
		{name: "padded", pin: " 1234", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePIN(tt.pin)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePIN(%q) error = %v, wantErr %v", tt.pin, err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("ValidatePIN(%q) returned %T, want ValidationError", tt.pin, err)
			}
		})
	}
}
