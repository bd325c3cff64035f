package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{
		UserID:    "user-1",
		RoleID:    "role-1",
		RoleName:  "employer",
		SessionID: "sess-1",
	}, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if claims.UserID != "user-1" || claims.RoleID != "role-1" || claims.RoleName != "employer" || claims.SessionID != "sess-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "user-1"}, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "user-1"}, -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected parse failure for expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("ChangeMe123!")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := CheckPassword(hash, "ChangeMe123!"); err != nil {
		t.Fatalf("expected password to verify: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestHashTokenStable(t *testing.T) {
	a := HashToken("refresh-token")
	b := HashToken("refresh-token")
	if a != b {
		t.Fatal("expected deterministic hash")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got length %d", len(a))
	}
	if HashToken("other") == a {
		t.Fatal("expected different inputs to hash differently")
	}
}

func TestRolePermissionsCoverDefaults(t *testing.T) {
	if len(RolePermissions[RoleAdmin]) != len(DefaultPermissions) {
		t.Fatal("admin role must hold every permission")
	}
	for _, perm := range RolePermissions[RoleEmployer] {
		found := false
		for _, known := range DefaultPermissions {
			if perm == known {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("employer permission %q not in default set", perm)
		}
	}
}
