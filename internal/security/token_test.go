package security

import (
	"testing"
	"time"
)

const testSecret = "test_secret_key_minimum_32_chars"

func TestGenerateJWT(t *testing.T) {
	tests := []struct {
		name   string
		userID string
	}{
		{
			name:   "Regular user",
			userID: "7b0c6d1e-0000-4000-8000-000000000001",
		},
		{
			name:   "Short id",
			userID: "u2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateJWT(tt.userID, testSecret, time.Hour)
			if err != nil {
				t.Fatalf("GenerateJWT() error = %v", err)
			}

			if token == "" {
				t.Error("GenerateJWT() returned empty token")
			}

			claims, err := ValidateJWT(token, testSecret)
			if err != nil {
				t.Fatalf("ValidateJWT() error = %v", err)
			}

			if claims.UserID != tt.userID {
				t.Errorf("UserID = %q, want %q", claims.UserID, tt.userID)
			}
		})
	}
}

func TestValidateJWT_InvalidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "Empty token",
			token: "",
		},
		{
			name:  "Invalid format",
			token: "invalid.token.here",
		},
		{
			name:  "Random string",
			token: "randomstring",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateJWT(tt.token, testSecret)
			if err == nil {
				t.Error("ValidateJWT() expected error for invalid token, got nil")
			}
		})
	}
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("u1", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	if _, err := ValidateJWT(token, "another_secret_key_minimum_32_chars"); err == nil {
		t.Error("ValidateJWT() expected error for wrong secret, got nil")
	}
}

func TestValidateJWT_ExpiredToken(t *testing.T) {
	token, err := GenerateJWT("u1", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	if _, err := ValidateJWT(token, testSecret); err == nil {
		t.Error("ValidateJWT() expected error for expired token, got nil")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateJWT("u42", testSecret, 24*time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	claims, err := ValidateJWT(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWT() error = %v", err)
	}

	if claims.Subject != "u42" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "u42")
	}

	if claims.ExpiresAt.Time.Before(time.Now()) {
		t.Error("Token already expired")
	}

	expectedExpiry := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt.Time.After(expectedExpiry.Add(time.Minute)) {
		t.Error("Token expiration is too far in the future")
	}
}
