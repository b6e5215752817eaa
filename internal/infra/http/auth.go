package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CallerHeader carries the caller's ledger address. Identity proofing
// happens upstream at the gateway; the daemon trusts this header and
// enforces authorization on top of it.
const CallerHeader = "X-Caller-Address"

func callerAddress(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(CallerHeader))
}

func (s *Server) requireCaller(c *gin.Context) (string, bool) {
	caller := callerAddress(c)
	if caller == "" {
		writeErrorCode(c, http.StatusUnauthorized, "MISSING_CALLER", "caller address header required")
		return "", false
	}
	return caller, true
}
