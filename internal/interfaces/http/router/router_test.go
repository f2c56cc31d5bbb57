package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.APIVersion())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.APIVersion())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	jobs := NewDomainGroup("jobs", "/jobs").
		GET("", ok("list")).
		GET("/:id", ok("get")).
		DELETE("/:id", ok("delete"))
	legacy := NewDomainGroup("legacy", "").
		POST("/imprimir-direto", ok("direct")).
		GET("/api/config/impressao/dados", ok("config"))

	r.Register(jobs).RegisterRoot(legacy).Setup()

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodGet, "/api/v1/jobs", http.StatusOK, "list"},
		{http.MethodGet, "/api/v1/jobs/abc", http.StatusOK, "get"},
		{http.MethodDelete, "/api/v1/jobs/abc", http.StatusOK, "delete"},
		{http.MethodPost, "/imprimir-direto", http.StatusOK, "direct"},
		{http.MethodGet, "/api/config/impressao/dados", http.StatusOK, "config"},
		{http.MethodPost, "/api/v1/imprimir-direto", http.StatusNotFound, ""},
		{http.MethodGet, "/jobs", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	var order []string

	group := NewDomainGroup("print", "/print").Use(func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	})
	group.GET("/config", func(c *gin.Context) {
		order = append(order, "handler")
		c.Status(http.StatusOK)
	})
	NewRouter(engine).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/print/config", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"group", "handler"}, order)
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()
	sales := NewDomainGroup("sales", "/sales")
	sales.GET("", ok("sales"))
	reprints := sales.Group("reprints", "/:id/reprints")
	reprints.GET("", ok("reprints"))
	reprints.POST("", ok("reprint"))

	assert.Equal(t, "sales", sales.Name())
	assert.Equal(t, "/sales", sales.Prefix())
	assert.Equal(t, 3, sales.RouteCount())

	NewRouter(engine).Register(sales).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sales/12/reprints", nil))
	assert.Equal(t, "reprints", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sales/12/reprints", nil))
	assert.Equal(t, "reprint", w.Body.String())
}
