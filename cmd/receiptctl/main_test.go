package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const saleYAML = `venda_id: 1042
cliente: Maria
vendedor: Ana
data: "14/10/2026 10:30"
itens:
  - descricao: Chinelo
    quantidade: 2
    preco: "39,90"
subtotal: 79.8
total: 79.8
forma_pagamento: Pix
`

func writeSale(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRender(t *testing.T) {
	yamlPath := writeSale(t, "sale.yaml", saleYAML)

	tests := []struct {
		name        string
		args        []string
		contains    []string
		notContains []string
	}{
		{
			name:     "dialog mode from yaml",
			args:     []string{"render", "--input", yamlPath},
			contains: []string{"<html", "Maria", "window.print()"},
		},
		{
			name:        "automatic mode has no trigger",
			args:        []string{"render", "--input", yamlPath, "--mode", "automatico"},
			contains:    []string{"Maria"},
			notContains: []string{"window.print()"},
		},
		{
			name:     "footer override",
			args:     []string{"render", "--input", yamlPath, "--footer", "Volte sempre"},
			contains: []string{"Volte sempre"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", tt.args...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRender_JSONFromStdin(t *testing.T) {
	sale := `{"venda_id": 7, "cliente": "Joana", "itens": [], "total": 0}`
	out, err := run(t, sale, "render", "--input", "-", "--mode", "automatico")
	require.NoError(t, err)
	assert.Contains(t, out, "Joana")
}

func TestRender_PDF(t *testing.T) {
	yamlPath := writeSale(t, "sale.yml", saleYAML)
	outPath := filepath.Join(t.TempDir(), "receipt.pdf")

	_, err := run(t, "", "render", "--input", yamlPath, "--format", "pdf", "--out", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRender_Rejections(t *testing.T) {
	yamlPath := writeSale(t, "sale.yaml", saleYAML)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing input flag", []string{"render"}, "input"},
		{"unknown format", []string{"render", "--input", yamlPath, "--format", "png"}, "unknown format"},
		{"bad paper", []string{"render", "--input", yamlPath, "--paper", "letter"}, "invalid paper size"},
		{"zero copies", []string{"render", "--input", yamlPath, "--copies", "0"}, "copies"},
		{"missing file", []string{"render", "--input", filepath.Join(t.TempDir(), "none.json")}, "failed to read sale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPrint_DialogWritesSurface(t *testing.T) {
	yamlPath := writeSale(t, "sale.yaml", saleYAML)
	dir := t.TempDir()

	out, err := run(t, "", "print", "--input", yamlPath, "--surface-dir", dir)
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, dir, filepath.Dir(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "window.print()")
}

func TestPrint_AutomaticSubmits(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/imprimir-direto", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"ok"}`))
	}))
	defer srv.Close()

	yamlPath := writeSale(t, "sale.yaml", saleYAML)
	out, err := run(t, "", "print", "--input", yamlPath, "--mode", "automatico",
		"--server", srv.URL, "--token", "tok", "--printer", "Caixa 2")
	require.NoError(t, err)

	assert.Contains(t, out, "Comprovante enviado para impressão!")
	assert.Equal(t, "Caixa 2", got["impressora"])
	assert.Contains(t, got["html"], "Maria")
}

func TestPrint_Failures(t *testing.T) {
	yamlPath := writeSale(t, "sale.yaml", saleYAML)
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"printer offline"}`))
	}))
	defer rejecting.Close()
	unauthorized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"ERR_UNAUTHORIZED","message":"Invalid or expired token"}}`))
	}))
	defer unauthorized.Close()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"automatic without server", []string{"print", "--input", yamlPath, "--mode", "automatico"}, "--server"},
		{"service rejects", []string{"print", "--input", yamlPath, "--mode", "automatico", "--server", rejecting.URL}, "printer offline"},
		{"service refuses token", []string{"print", "--input", yamlPath, "--mode", "automatico", "--server", unauthorized.URL}, "Invalid or expired token"},
		{"surface dir missing", []string{"print", "--input", yamlPath, "--surface-dir", filepath.Join(t.TempDir(), "gone")}, "dispatch ended"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTerminalHashSecret(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"argument", "", []string{"terminal", "hash-secret", "caixa-secret-1"}},
		{"stdin", "caixa-secret-1\n", []string{"terminal", "hash-secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.stdin, tt.args...)
			require.NoError(t, err)
			hash := strings.TrimSpace(out)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("caixa-secret-1")))
		})
	}
}

func TestTerminalHashSecret_TooShort(t *testing.T) {
	_, err := run(t, "", "terminal", "hash-secret", "short")
	assert.Error(t, err)
}
