package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-affairs-api/internal/models"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
)

type validatorStub map[string]*models.JWTClaims

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type auditSink struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (a *auditSink) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

type userStub map[string]*models.User

func (u userStub) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if user, ok := u[externalID]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/gate/:rollNumber", chain...)
	return r
}

func do(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/gate/21CS001", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAndRoles(t *testing.T) {
	tokens := validatorStub{
		"guard":   {UserID: "uid-guard", Role: models.RoleSecurity},
		"student": {UserID: "uid-student", Role: models.RoleStudent},
		"admin":   {UserID: "uid-admin", Role: models.RoleAdmin},
	}
	r := newTestRouter(JWT(tokens), RequireRoles(models.RoleSecurity))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token guard").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer nope").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "Bearer student").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "Bearer guard").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "bearer admin").Code)
}

func TestOptionalJWT(t *testing.T) {
	tokens := validatorStub{"student": {UserID: "uid-student", Role: models.RoleStudent}}
	var seen *models.JWTClaims
	r := newTestRouter(OptionalJWT(tokens), func(c *gin.Context) { seen = Claims(c) })

	require.Equal(t, http.StatusNoContent, do(r, "Bearer bad").Code)
	assert.Nil(t, seen)
	require.Equal(t, http.StatusNoContent, do(r, "Bearer student").Code)
	require.NotNil(t, seen)
	assert.Equal(t, "uid-student", seen.UserID)
}

func TestAuditRecordsCaller(t *testing.T) {
	sink := &auditSink{}
	tokens := validatorStub{"guard": {UserID: "uid-guard", Role: models.RoleSecurity}}
	users := userStub{"uid-guard": {ID: "u-guard", ExternalID: "uid-guard", Role: models.RoleSecurity}}
	r := newTestRouter(JWT(tokens), Audit(sink, users, nil, models.AuditActionSecurityRequest, "security_gate", "rollNumber"))

	require.Equal(t, http.StatusNoContent, do(r, "Bearer guard").Code)
	require.Len(t, sink.logs, 1)
	log := sink.logs[0]
	assert.Equal(t, models.AuditActionSecurityRequest, log.Action)
	require.NotNil(t, log.UserID)
	assert.Equal(t, "u-guard", *log.UserID)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, "21CS001", *log.ResourceID)
	assert.Contains(t, string(log.NewValues), `"status":204`)
}

func TestAuditUnknownCallerHasNoUser(t *testing.T) {
	sink := &auditSink{}
	tokens := validatorStub{"guard": {UserID: "uid-new-guard", Role: models.RoleSecurity}}
	r := newTestRouter(JWT(tokens), Audit(sink, userStub{}, nil, models.AuditActionSecurityRequest, "security_gate", "rollNumber"))

	require.Equal(t, http.StatusNoContent, do(r, "Bearer guard").Code)
	require.Len(t, sink.logs, 1)
	assert.Nil(t, sink.logs[0].UserID)
}
