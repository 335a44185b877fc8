package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testUser = &User{ID: "u-1", TenantID: "tenant-a", Email: "ops@fairgo.in", Role: RoleOperator}

func TestSignerRoundTrip(t *testing.T) {
	s := Signer{Secret: "secret", Issuer: "ai-ivr", Audience: "dashboard", AccessTTL: time.Minute}

	token, expiresAt, err := s.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) > time.Minute {
		t.Errorf("expiry too far out: %v", expiresAt)
	}

	claims, err := s.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "u-1" || claims.TenantID != "tenant-a" || claims.Role != RoleOperator {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestSignerRejects(t *testing.T) {
	s := Signer{Secret: "secret", Issuer: "ai-ivr", Audience: "dashboard"}
	token, _, err := s.Issue(testUser)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		signer Signer
		token  string
	}{
		{"wrong secret", Signer{Secret: "other", Issuer: "ai-ivr", Audience: "dashboard"}, token},
		{"wrong issuer", Signer{Secret: "secret", Issuer: "someone-else", Audience: "dashboard"}, token},
		{"wrong audience", Signer{Secret: "secret", Issuer: "ai-ivr", Audience: "mobile"}, token},
		{"garbage", s, "not.a.token"},
		{"expired", s, mustSign(t, TokenClaims{TenantID: "t", TokenType: TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "ai-ivr", Audience: jwt.ClaimStrings{"dashboard"}, ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}})},
		{"refresh type", s, mustSign(t, TokenClaims{TenantID: "t", TokenType: TokenTypeRefresh, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "ai-ivr", Audience: jwt.ClaimStrings{"dashboard"},
		}})},
		{"no tenant", s, mustSign(t, TokenClaims{TokenType: TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "ai-ivr", Audience: jwt.ClaimStrings{"dashboard"},
		}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.signer.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("got %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestSignerRejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, TokenClaims{TenantID: "t", TokenType: TokenTypeAccess}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := (Signer{Secret: "secret"}).Parse(token); err == nil {
		t.Error("accepted unsigned token")
	}
}

func mustSign(t *testing.T, claims TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestPasswords(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("got %v, want ErrWeakPassword", err)
	}
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("not a bcrypt hash: %s", hash)
	}
	if VerifyPassword(hash, "correct horse") != nil || VerifyPassword(hash, "wrong horse") == nil {
		t.Error("password verification mismatch")
	}
}

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour).Format(time.RFC3339)
	past := now.Add(-time.Hour).Format(time.RFC3339)

	if !(refreshToken{ExpiresAt: future}).usable(now) {
		t.Error("live token rejected")
	}
	if (refreshToken{ExpiresAt: past}).usable(now) {
		t.Error("expired token accepted")
	}
	if (refreshToken{ExpiresAt: future, RevokedAt: past}).usable(now) {
		t.Error("revoked token accepted")
	}
	if (refreshToken{ExpiresAt: "garbage"}).usable(now) {
		t.Error("unparseable expiry accepted")
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	a, _ := GenerateRefreshToken()
	b, _ := GenerateRefreshToken()
	if len(a) != 64 || a == b {
		t.Errorf("bad tokens %q %q", a, b)
	}
	if hashToken(a) == a || len(hashToken(a)) != 64 {
		t.Error("hash should differ from token")
	}
}

func TestValidRoleAndEmail(t *testing.T) {
	if !ValidRole(RoleAuditor) || ValidRole("root") {
		t.Error("role validation mismatch")
	}
	if got := NormalizeEmail("  Ops@FairGo.IN "); got != "ops@fairgo.in" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
