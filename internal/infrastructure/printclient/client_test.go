package printclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/receipt/internal/application/printing"
)

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
	_, err = New(nil)
	assert.Error(t, err)
}

func TestClient_Submit(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      printing.SubmitResult
		transport bool
	}{
		{
			name:   "accepted",
			status: http.StatusOK,
			body:   `{"success":true,"message":"Comprovante enviado para impressão"}`,
			want:   printing.SubmitResult{Success: true, Message: "Comprovante enviado para impressão"},
		},
		{
			name:   "rejected with error",
			status: http.StatusInternalServerError,
			body:   `{"success":false,"error":"impressora offline"}`,
			want:   printing.SubmitResult{Success: false, Error: "impressora offline"},
		},
		{
			name:   "rejected without error",
			status: http.StatusBadGateway,
			body:   `{"success":false}`,
			want:   printing.SubmitResult{Success: false, Error: "HTTP 502"},
		},
		{
			name:   "rejected by auth middleware",
			status: http.StatusUnauthorized,
			body:   `{"success":false,"error":{"code":"ERR_UNAUTHORIZED","message":"Invalid or expired token","timestamp":"2026-10-14T10:30:00Z"}}`,
			want:   printing.SubmitResult{Success: false, Error: "Invalid or expired token"},
		},
		{
			name:   "rate limited envelope without message",
			status: http.StatusTooManyRequests,
			body:   `{"success":false,"error":{"code":"ERR_RATE_LIMITED"}}`,
			want:   printing.SubmitResult{Success: false, Error: "ERR_RATE_LIMITED"},
		},
		{
			name:   "null error",
			status: http.StatusOK,
			body:   `{"success":true,"error":null}`,
			want:   printing.SubmitResult{Success: true},
		},
		{
			name:      "non json answer",
			status:    http.StatusBadGateway,
			body:      `<html>bad gateway</html>`,
			transport: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/imprimir-direto", r.URL.Path)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

				var req printing.SubmitRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "<html></html>", req.Document)
				assert.Equal(t, "EPSON", req.PrinterName)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := New(&Config{BaseURL: server.URL + "/", Token: "tok"})
			require.NoError(t, err)

			got, err := client.Submit(context.Background(), printing.SubmitRequest{Document: "<html></html>", PrinterName: "EPSON"})
			if tt.transport {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_SubmitUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := New(&Config{BaseURL: url})
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), printing.SubmitRequest{Document: "x"})
	assert.Error(t, err)
}
