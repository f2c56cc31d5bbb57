package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	printingapp "github.com/erp/receipt/internal/application/printing"
	"github.com/erp/receipt/internal/interfaces/http/dto"
	infra "github.com/erp/receipt/internal/infrastructure/printing"
	"github.com/erp/receipt/internal/interfaces/http/router"
)

const saleJSON = `{
	"venda_id": 42,
	"cliente": "Maria",
	"vendedor": "Ana",
	"data": "14/10/2026 10:30",
	"itens": [{"descricao": "Café <forte>", "quantidade": 2, "preco": "4,50"}],
	"subtotal": 9,
	"total": 9,
	"forma_pagamento": "dinheiro",
	"valor_recebido": 10,
	"troco": 1%s
}`

func newReceiptEngine() *gin.Engine {
	svc := printingapp.NewReceiptService(infra.NewComposer(), infra.NewMarotoReceiptRenderer(nil), nil, nil)
	engine := gin.New()
	router.NewRouter(engine).
		Register(ReceiptRoutes(NewReceiptHandler(svc, nil), func(c *gin.Context) { c.Next() })).
		Setup()
	return engine
}

func postReceipt(engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestReceiptHandler_RenderHTML(t *testing.T) {
	engine := newReceiptEngine()
	tests := []struct {
		name        string
		config      string
		wantTrigger bool
	}{
		{"default config is dialog", "", true},
		{"automatic", `, "config_impressao": {"tipo": "automatico", "papel": "80mm", "vias": 1}`, false},
		{"dialog with 58mm", `, "config_impressao": {"tipo": "dialogo", "papel": "58mm", "vias": 2}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postReceipt(engine, "/api/v1/receipts/render", fmt.Sprintf(saleJSON, tt.config))

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
			body := w.Body.String()
			assert.Contains(t, body, "Maria")
			assert.Contains(t, body, "Café &lt;forte&gt;")
			if tt.wantTrigger {
				assert.Contains(t, body, "window.print()")
			} else {
				assert.NotContains(t, body, "window.print()")
			}
		})
	}
}

func TestReceiptHandler_RenderHTMLCompositionFailure(t *testing.T) {
	engine := newReceiptEngine()
	w := postReceipt(engine, "/api/v1/receipts/render", `{"venda_id": 1, "total": 5}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeCompositionFailed, resp.Error.Code)
}

func TestReceiptHandler_RenderPDF(t *testing.T) {
	engine := newReceiptEngine()
	w := postReceipt(engine, "/api/v1/receipts/pdf", fmt.Sprintf(saleJSON, ""))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestReceiptHandler_BadBody(t *testing.T) {
	engine := newReceiptEngine()
	for _, path := range []string{"/api/v1/receipts/render", "/api/v1/receipts/pdf"} {
		w := postReceipt(engine, path, `{"total": [1]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}
