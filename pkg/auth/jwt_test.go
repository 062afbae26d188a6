package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	// Test roundtrip: generate token -> validate token works
	secret := "test-secret-key-12345"
	issuer := "test-issuer"
	userID := uuid.New()
	role := RoleAdmin
	expiryHours := 24

	tokenString, err := GenerateToken(secret, issuer, userID, role, expiryHours)

	require.NoError(t, err, "Should not error when generating token")
	assert.NotEmpty(t, tokenString, "Token should not be empty")

	claims, err := ValidateToken(tokenString, secret)

	require.NoError(t, err, "Should not error when validating token")
	assert.NotNil(t, claims)

	// Verify claims match what was provided
	assert.Equal(t, userID, claims.UserID, "User ID should match")
	assert.Equal(t, role, claims.Role, "Role should match")
	assert.Equal(t, issuer, claims.Issuer, "Issuer should match")
	assert.Equal(t, userID.String(), claims.Subject, "Subject should be user ID")

	// Verify standard claims are set
	assert.NotNil(t, claims.ExpiresAt, "ExpiresAt should be set")
	assert.NotNil(t, claims.IssuedAt, "IssuedAt should be set")
	assert.NotNil(t, claims.NotBefore, "NotBefore should be set")
	assert.NotEmpty(t, claims.ID, "Token ID should be set")
}

func TestGenerateToken_MultipleCallsCreateDifferentIDs(t *testing.T) {
	// Test that multiple token generations create unique token IDs
	secret := "test-secret-key-12345"
	issuer := "test-issuer"
	userID := uuid.New()

	token1, err := GenerateToken(secret, issuer, userID, RoleEngineer, 24)
	require.NoError(t, err)

	token2, err := GenerateToken(secret, issuer, userID, RoleEngineer, 24)
	require.NoError(t, err)

	claims1, _ := ValidateToken(token1, secret)
	claims2, _ := ValidateToken(token2, secret)

	assert.NotEqual(t, claims1.ID, claims2.ID, "Each token should have a unique ID")
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	// Test that expired token returns error
	secret := "test-secret-key-12345"
	tokenString, err := GenerateToken(secret, "test-issuer", uuid.New(), RoleViewer, -1)
	require.NoError(t, err, "Should generate token even with past expiry")

	claims, err := ValidateToken(tokenString, secret)

	assert.Error(t, err, "Should error when validating expired token")
	assert.Nil(t, claims, "Claims should be nil for expired token")
	assert.Contains(t, err.Error(), "token")
}

func TestValidateToken_WrongSecret(t *testing.T) {
	// Test that wrong secret returns error
	secret := "test-secret-key-12345"
	tokenString, err := GenerateToken(secret, "test-issuer", uuid.New(), RoleViewer, 24)
	require.NoError(t, err, "Should generate token")

	claims, err := ValidateToken(tokenString, "wrong-secret-key-67890")

	assert.Error(t, err, "Should error when validating with wrong secret")
	assert.Nil(t, claims, "Claims should be nil with wrong secret")
}

func TestValidateToken_InvalidTokenString(t *testing.T) {
	claims, err := ValidateToken("not.a.valid.token.string", "test-secret-key-12345")

	assert.Error(t, err, "Should error with invalid token")
	assert.Nil(t, claims)
}

func TestValidateToken_TamperedToken(t *testing.T) {
	// Test that tampered token (modified claims) returns error
	secret := "test-secret-key-12345"
	tokenString, err := GenerateToken(secret, "test-issuer", uuid.New(), RoleViewer, 24)
	require.NoError(t, err)

	tamperedToken := tokenString[:len(tokenString)-10] + "tampered!!"

	claims, err := ValidateToken(tamperedToken, secret)

	assert.Error(t, err, "Should error when token is tampered")
	assert.Nil(t, claims)
}

func TestGenerateToken_DifferentRoles(t *testing.T) {
	// Test token generation with each recognized role
	secret := "test-secret-key-12345"
	issuer := "test-issuer"
	userID := uuid.New()

	roles := []string{RoleAdmin, RoleEngineer, RoleViewer}

	for _, role := range roles {
		tokenString, err := GenerateToken(secret, issuer, userID, role, 24)
		require.NoError(t, err, "Should generate token for role: %s", role)

		claims, err := ValidateToken(tokenString, secret)
		require.NoError(t, err)
		assert.Equal(t, role, claims.Role, "Role should be %s", role)
	}
}

func TestGenerateToken_DifferentExpiries(t *testing.T) {
	// Test token generation with different expiry times
	secret := "test-secret-key-12345"
	userID := uuid.New()

	testCases := []struct {
		expiryHours int
		name        string
	}{
		{1, "short-lived token"},
		{24, "one day token"},
		{168, "one week token"},
	}

	for _, tc := range testCases {
		tokenString, err := GenerateToken(secret, "test-issuer", userID, RoleEngineer, tc.expiryHours)
		require.NoError(t, err, "Should generate %s", tc.name)

		claims, err := ValidateToken(tokenString, secret)
		require.NoError(t, err)

		now := time.Now()
		expectedExpiry := now.Add(time.Duration(tc.expiryHours) * time.Hour)

		// Allow 5 second window for test execution time
		assert.WithinDuration(t, expectedExpiry, claims.ExpiresAt.Time, 5*time.Second,
			"Expiry should be approximately %d hours from now for %s", tc.expiryHours, tc.name)
	}
}

func TestValidateToken_MissingClaims(t *testing.T) {
	// A token carrying only registered claims lacks our custom claims; the
	// zero UUID and empty role still parse, so validation succeeds but the
	// claims are empty.
	secret := "test-secret-key-12345"

	standardClaims := jwt.RegisteredClaims{
		Issuer:    "test-issuer",
		Subject:   "test-subject",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
		ID:        "test-id",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, standardClaims)
	tokenString, _ := token.SignedString([]byte(secret))

	claims, err := ValidateToken(tokenString, secret)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, claims.UserID)
	assert.Empty(t, claims.Role, "missing role must not default to a privileged one")
}

func TestValidateToken_EmptySecret(t *testing.T) {
	secret := "test-secret-key-12345"
	tokenString, err := GenerateToken(secret, "test-issuer", uuid.New(), RoleViewer, 24)
	require.NoError(t, err)

	claims, err := ValidateToken(tokenString, "")

	assert.Error(t, err, "Should error with wrong secret (empty)")
	assert.Nil(t, claims)
}
