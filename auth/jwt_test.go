package auth

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndParse(t *testing.T) {
	svc, err := NewService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	token, err := svc.Generate("client-1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.ClientID != "client-1" || claims.Subject != "client-1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	svc, _ := NewService(testSecret, time.Hour)
	token, _ := svc.Generate("client-1")

	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.Parse(tampered); err == nil {
		t.Error("Parse() = nil for tampered token")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	svc, _ := NewService(testSecret, time.Nanosecond)
	token, _ := svc.Generate("client-1")
	time.Sleep(10 * time.Millisecond)
	if _, err := svc.Parse(token); err == nil {
		t.Error("Parse() = nil for expired token")
	}
}

func TestNewServiceRejectsShortSecret(t *testing.T) {
	if _, err := NewService(strings.Repeat("x", 16), time.Hour); err == nil {
		t.Error("NewService() = nil for short secret")
	}
}
