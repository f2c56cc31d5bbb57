package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/erp/receipt/internal/interfaces/http/dto"
)

// SwaggerConfig guards the API documentation routes
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool     // run the JWT middleware before serving the docs
	AllowedIPs  []string // single IPs or CIDR ranges, empty allows every client
}

// SwaggerProtection serves 404 while the docs are disabled, 403 to clients
// outside AllowedIPs and delegates to auth when RequireAuth is set.
// Entries in AllowedIPs that do not parse are ignored.
func SwaggerProtection(cfg SwaggerConfig, auth gin.HandlerFunc) gin.HandlerFunc {
	allowed := parsePrefixes(cfg.AllowedIPs)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound, "API documentation is not available", getRequestID(c)))
			return
		}

		if len(cfg.AllowedIPs) > 0 && !clientAllowed(c, allowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Access to API documentation is restricted", getRequestID(c)))
			return
		}

		if cfg.RequireAuth && auth != nil {
			auth(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

// parsePrefixes turns IPs and CIDR ranges into prefixes; a bare IP becomes a
// single-address prefix.
func parsePrefixes(entries []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			if p, err := netip.ParsePrefix(entry); err == nil {
				prefixes = append(prefixes, p.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}

func clientAllowed(c *gin.Context, allowed []netip.Prefix) bool {
	addr, ok := clientAddr(c)
	if !ok {
		return false
	}
	for _, p := range allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// clientAddr prefers gin's ClientIP, which honours the trusted proxies, and
// falls back to the raw remote address.
func clientAddr(c *gin.Context) (netip.Addr, bool) {
	if addr, err := netip.ParseAddr(c.ClientIP()); err == nil {
		return addr.Unmap(), true
	}
	if ap, err := netip.ParseAddrPort(c.Request.RemoteAddr); err == nil {
		return ap.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(c.Request.RemoteAddr); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}
