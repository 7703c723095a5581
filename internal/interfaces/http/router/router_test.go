package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type testRegistrar struct {
	registered bool
}

func (r *testRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	r.registered = true
	rg.GET("/probe", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
}

func TestRouter_SetupRegistersUnderVersionPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	registrar := &testRegistrar{}

	NewRouter(engine).Register(registrar).Setup()

	assert.True(t, registrar.registered)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/probe", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CustomAPIVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	NewRouter(engine, WithAPIVersion("v2")).Register(&testRegistrar{}).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/probe", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/probe", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
