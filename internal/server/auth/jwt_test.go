package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/bbelderbos/codeimages/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

var issuedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("bob", secret, 30*time.Minute, issuedAt)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	got, err := GetSubjectFromToken(tok, secret, issuedAt.Add(29*time.Minute))
	if err != nil {
		t.Fatalf("GetSubjectFromToken error: %v", err)
	}
	if got != "bob" {
		t.Fatalf("subject mismatch: got %q want %q", got, "bob")
	}
}

func TestGetSubjectFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	tok, err := GenerateToken("bob", secret, 30*time.Minute, issuedAt)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = GetSubjectFromToken(tok, secret, issuedAt.Add(31*time.Minute))
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestGetSubjectFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("bob", []byte("right-secret"), time.Hour, issuedAt)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = GetSubjectFromToken(tok, []byte("wrong-secret"), issuedAt)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestGetSubjectFromToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := GetSubjectFromToken("not.a.jwt", []byte("k"), issuedAt)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestGetSubjectFromToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "bob",
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	})
	tok, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	if _, err := GetSubjectFromToken(tok, secret, issuedAt); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken for HS512, got %v", err)
	}
}

func TestGetSubjectFromToken_RequiresExpiryAndSubject(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "bob"}).SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}
	if _, err := GetSubjectFromToken(noExp, secret, issuedAt); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected invalid token without exp, got %v", err)
	}

	noSub, err := GenerateToken("", secret, time.Hour, issuedAt)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if _, err := GetSubjectFromToken(noSub, secret, issuedAt); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected invalid token without subject, got %v", err)
	}
}
