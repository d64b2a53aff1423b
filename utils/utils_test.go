package utils

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	tok, err := GenerateJWT(42, "minji", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	id, err := ParseJWT(tok, "secret")
	if err != nil || id != 42 {
		t.Fatalf("ParseJWT = %d, %v", id, err)
	}
	if _, err := ParseJWT(tok, "other"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: err = %v", err)
	}
}

func TestJWTExpired(t *testing.T) {
	tok, err := GenerateJWT(1, "a", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT(tok, "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: err = %v", err)
	}
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPasswordHash("pw", h) || CheckPasswordHash("PW", h) {
		t.Fatal("hash check mismatch")
	}
}

func TestGenerateResetCode(t *testing.T) {
	code, err := GenerateResetCode(6)
	if err != nil {
		t.Fatalf("GenerateResetCode: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code = %q", code)
	}
	for _, r := range code {
		if !strings.ContainsRune(resetCharset, r) {
			t.Fatalf("unexpected rune %q in %q", r, code)
		}
	}
}

func TestBMI(t *testing.T) {
	bmi, err := CalculateBMI(200, 100)
	if err != nil {
		t.Fatalf("CalculateBMI: %v", err)
	}
	if math.Abs(bmi-25) > 1e-9 || BMICategory(bmi) != "Overweight" {
		t.Fatalf("bmi = %v (%s)", bmi, BMICategory(bmi))
	}
	if _, err := CalculateBMI(0, 70); err == nil {
		t.Fatal("zero height accepted")
	}
	if BMICategory(17) != "Underweight" || BMICategory(22) != "Normal weight" || BMICategory(31) != "Obese" {
		t.Fatal("category cut-offs")
	}
}

func TestGraphemeHelpers(t *testing.T) {
	if n := GraphemeLen("김치찌개"); n != 4 {
		t.Fatalf("GraphemeLen = %d", n)
	}
	if n := GraphemeLen("👍🏽ok"); n != 3 {
		t.Fatalf("GraphemeLen(emoji) = %d", n)
	}
	if got := Preview("김치찌개 and rice", 4); got != "김치찌개..." {
		t.Fatalf("Preview = %q", got)
	}
	if got := Preview("short", 10); got != "short" {
		t.Fatalf("Preview = %q", got)
	}
}
