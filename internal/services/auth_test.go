package services

import (
	"errors"
	"testing"
)

func validSignUp() SignUpRequest {
	return SignUpRequest{
		FullName:        "Ana Silva",
		BirthDate:       "01/02/1990",
		NIF:             "123456789",
		Address:         "Leiria",
		Phone:           "912345678",
		Skill:           "Cooking",
		Email:           "ana@example.com",
		Password:        "Secret1!",
		ConfirmPassword: "Secret1!",
		TermsAccepted:   true,
	}
}

func TestSignUpValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignUpRequest)
	}{
		{"short name", func(r *SignUpRequest) { r.FullName = "Al" }},
		{"bad birth date", func(r *SignUpRequest) { r.BirthDate = "1990-02-01" }},
		{"impossible day", func(r *SignUpRequest) { r.BirthDate = "32/01/1990" }},
		{"short nif", func(r *SignUpRequest) { r.NIF = "12345" }},
		{"missing address", func(r *SignUpRequest) { r.Address = "" }},
		{"missing phone", func(r *SignUpRequest) { r.Phone = "" }},
		{"missing skill", func(r *SignUpRequest) { r.Skill = "" }},
		{"bad email", func(r *SignUpRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *SignUpRequest) { r.Password = "Ab!"; r.ConfirmPassword = "Ab!" }},
		{"no uppercase", func(r *SignUpRequest) { r.Password = "secret1!"; r.ConfirmPassword = "secret1!" }},
		{"no special char", func(r *SignUpRequest) { r.Password = "Secret11"; r.ConfirmPassword = "Secret11" }},
		{"password mismatch", func(r *SignUpRequest) { r.ConfirmPassword = "Other1!" }},
		{"terms not accepted", func(r *SignUpRequest) { r.TermsAccepted = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignUp()
			tt.mutate(&req)
			err := req.Validate()
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("got %v, want ErrValidation", err)
			}
		})
	}

	valid := validSignUp()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	s := NewAuthService(nil, "test-secret")

	token, err := s.GenerateJWT("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	userID, err := s.ValidateJWT(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("user id: got %q, want user-1", userID)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := NewAuthService(nil, "secret-a").GenerateJWT("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewAuthService(nil, "secret-b").ValidateJWT(token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestResetTokenNotASessionToken(t *testing.T) {
	s := NewAuthService(nil, "test-secret")

	token, err := s.signToken("user-1", purposeReset, resetTokenTTL)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.ValidateJWT(token); err == nil {
		t.Fatal("reset token accepted as session token")
	}
}
