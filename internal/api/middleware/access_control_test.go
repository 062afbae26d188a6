package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yalicar/string-compliance-iq/pkg/auth"
)

// TestAccessControl_ContextCarriesIdentityFromJWT proves that the user_id
// extracted from the JWT is what downstream handlers receive, so audit
// logging and ownership checks always see the authenticated identity.
func TestAccessControl_ContextCarriesIdentityFromJWT(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.GET("/echo-identity",
		AuthMiddleware(cfg),
		func(c *gin.Context) {
			uid := c.MustGet("user_id").(uuid.UUID)
			c.JSON(200, gin.H{"user_id": uid.String()})
		},
	)

	token := generateTestToken(userID, auth.RoleEngineer)
	req := httptest.NewRequest("GET", "/echo-identity", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, userID.String(), body["user_id"])
}

// TestAccessControl_CannotForgeViaClaims verifies that a token signed with
// a different secret is rejected at the middleware layer before any handler
// executes.
func TestAccessControl_CannotForgeViaClaims(t *testing.T) {
	cfg := testJWTConfig()

	gin.SetMode(gin.TestMode)
	r := gin.New()

	handlerCalled := false
	r.GET("/protected",
		AuthMiddleware(cfg),
		func(c *gin.Context) {
			handlerCalled = true
			c.JSON(200, gin.H{"ok": true})
		},
	)

	forgedToken, err := auth.GenerateToken(
		"attacker-secret-not-the-real-one",
		testIssuer,
		uuid.New(),
		auth.RoleAdmin,
		24,
	)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+forgedToken)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code, "Forged token must be rejected")
	assert.False(t, handlerCalled, "Handler must not execute with a forged token")
}

// TestAccessControl_ExpiredTokenBlocked verifies expired tokens never reach
// a handler.
func TestAccessControl_ExpiredTokenBlocked(t *testing.T) {
	cfg := testJWTConfig()

	gin.SetMode(gin.TestMode)
	r := gin.New()

	handlerCalled := false
	r.GET("/protected",
		AuthMiddleware(cfg),
		func(c *gin.Context) {
			handlerCalled = true
			c.JSON(200, gin.H{"ok": true})
		},
	)

	expired, err := auth.GenerateToken(testSecret, testIssuer, uuid.New(), auth.RoleAdmin, -1)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
	assert.False(t, handlerCalled)
}

// TestAccessControl_ViewerCannotMutate verifies that viewers can read but
// never reach mutating endpoints: overrides and uploads are engineer/admin
// territory.
func TestAccessControl_ViewerCannotMutate(t *testing.T) {
	cfg := testJWTConfig()

	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.GET("/results",
		AuthMiddleware(cfg),
		RequireRole(auth.RoleAdmin, auth.RoleEngineer, auth.RoleViewer),
		func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) },
	)
	r.POST("/overrides",
		AuthMiddleware(cfg),
		RequireRole(auth.RoleAdmin, auth.RoleEngineer),
		func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) },
	)

	viewerToken := generateTestToken(uuid.New(), auth.RoleViewer)

	read := httptest.NewRequest("GET", "/results", nil)
	read.Header.Set("Authorization", "Bearer "+viewerToken)
	wRead := httptest.NewRecorder()
	r.ServeHTTP(wRead, read)
	assert.Equal(t, 200, wRead.Code, "viewer can read results")

	mutate := httptest.NewRequest("POST", "/overrides", nil)
	mutate.Header.Set("Authorization", "Bearer "+viewerToken)
	wMutate := httptest.NewRecorder()
	r.ServeHTTP(wMutate, mutate)
	assert.Equal(t, 403, wMutate.Code, "viewer must not mutate overrides")
}
