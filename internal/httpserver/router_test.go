package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"dassyor/internal/handler"
)

func newPlatformRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// Handlers are never invoked: unauthenticated requests stop at the
	// auth middleware, which is enough to tell a registered route (401)
	// from an unregistered one (404).
	r := NewRouter(
		handler.NewAuthHandler(nil),
		handler.NewProjectHandler(nil),
		handler.NewPhaseHandler(nil, nil),
		newTokenManager(t),
		nil,
	)
	return r.Engine
}

func TestPhaseRoutesMatchDocumentedPaths(t *testing.T) {
	r := newPlatformRouter(t)
	projectID := uuid.NewString()
	phaseID := uuid.NewString()

	cases := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/phases/seed"},
		{http.MethodGet, "/api/v1/phases"},
		{http.MethodGet, "/api/v1/phases/projects/" + projectID},
		{http.MethodGet, "/api/v1/phases/projects/" + projectID + "/current"},
		{http.MethodPost, "/api/v1/phases/projects/" + projectID + "/phases/" + phaseID + "/start"},
		{http.MethodPost, "/api/v1/phases/projects/" + projectID + "/phases/" + phaseID + "/complete"},
		{http.MethodPut, "/api/v1/phases/projects/" + projectID + "/phases/" + phaseID + "/data"},
		{http.MethodPost, "/api/v1/phases/projects/" + projectID + "/next"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s should be a registered route", tc.method, tc.path)
	}

	// A path without the inner phases segment is not part of the surface.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost,
		"/api/v1/phases/projects/"+projectID+"/"+phaseID+"/start", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectAndAuthRoutesRegistered(t *testing.T) {
	r := newPlatformRouter(t)
	projectID := uuid.NewString()

	protected := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodPost, "/api/v1/projects"},
		{http.MethodGet, "/api/v1/projects/" + projectID},
		{http.MethodPost, "/api/v1/projects/" + projectID + "/collaborators"},
		{http.MethodPost, "/api/v1/projects/" + projectID + "/invite"},
		{http.MethodPost, "/api/v1/invitations/accept"},
	}
	for _, tc := range protected {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s should sit behind auth", tc.method, tc.path)
	}

	// Public auth routes bind the body, so an empty request is a 400,
	// not a 404 or 401.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
