package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/receipt/internal/infrastructure/auth"
	"github.com/erp/receipt/internal/interfaces/http/dto"
	"github.com/erp/receipt/internal/interfaces/http/middleware"
)

// AuthHandler issues and revokes terminal tokens
type AuthHandler struct {
	BaseHandler
	terminals *auth.TerminalAuthenticator
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
}

// NewAuthHandler creates a new auth handler. blacklist may be nil, in which
// case revocation answers 503.
func NewAuthHandler(terminals *auth.TerminalAuthenticator, jwt *auth.JWTService, blacklist auth.TokenBlacklist, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		terminals: terminals,
		jwt:       jwt,
		blacklist: blacklist,
		logger:    logger,
	}
}

// IssueToken exchanges a terminal id and secret for an access token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.terminals.Authenticate(req.TerminalID, req.Secret); err != nil {
		h.logger.Warn("terminal authentication failed",
			zap.String("terminal_id", req.TerminalID),
			zap.String("client_ip", c.ClientIP()))
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials, "Invalid terminal credentials")
		return
	}

	token, err := h.jwt.IssueToken(req.TerminalID)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err), zap.String("terminal_id", req.TerminalID))
		h.InternalError(c, "Failed to issue token")
		return
	}

	h.Success(c, TokenResponse{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		TerminalID:  req.TerminalID,
	})
}

// RevokeToken revokes the presented token. With all_tokens it revokes every
// token issued to the terminal so far.
func (h *AuthHandler) RevokeToken(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	if h.blacklist == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeServiceUnavailable, "Token revocation is not configured")
		return
	}

	var req RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	ttl := claims.RemainingTTL(time.Now())
	var err error
	if req.AllTokens {
		err = h.blacklist.RevokeTerminal(ctx, claims.TerminalID, h.jwt.Expiration())
	} else {
		err = h.blacklist.Revoke(ctx, claims.ID, ttl)
	}
	if err != nil {
		h.logger.Error("failed to revoke token", zap.Error(err), zap.String("terminal_id", claims.TerminalID))
		h.InternalError(c, "Failed to revoke token")
		return
	}

	message := "Token revoked"
	if req.AllTokens {
		message = "All terminal tokens revoked"
	}
	h.Success(c, RevokeResponse{Message: message})
}
