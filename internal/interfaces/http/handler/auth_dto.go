package handler

import "time"

// =====================
// Auth Request DTOs
// =====================

// TokenRequest is a terminal asking for an access token
type TokenRequest struct {
	TerminalID string `json:"terminal_id" binding:"required,max=64"`
	Secret     string `json:"secret" binding:"required,min=8,max=128"`
}

// RevokeRequest revokes the caller's token, or every token of its terminal
type RevokeRequest struct {
	AllTokens bool `json:"all_tokens"`
}

// =====================
// Auth Response DTOs
// =====================

// TokenResponse represents an issued access token
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
	TerminalID  string    `json:"terminal_id"`
}

// RevokeResponse confirms a revocation
type RevokeResponse struct {
	Message string `json:"message"`
}
