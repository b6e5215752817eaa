package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"medsupply/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	routeRolesGrant       = "roles:grant"
	routeRolesRegister    = "roles:register_patient"
	routeDrugsMint        = "drugs:mint"
	routeDrugsTransfer    = "drugs:transfer"
	routeDrugsDispense    = "drugs:dispense"
	routePrescriptionsNew = "prescriptions:create"
	routeClaimsCreate     = "claims:create"
	routeClaimsProcess    = "claims:process"
)

func (s *Server) enforceRateLimit(c *gin.Context, routeID, caller string) bool {
	if s.rateLimiter == nil || s.rateLimitRequests <= 0 {
		return true
	}
	key := fmt.Sprintf("caller:%s:endpoint:%s", caller, routeID)
	decision, err := s.rateLimiter.Allow(c.Request.Context(), key, s.rateLimitRequests, s.rateLimitWindow)
	if err != nil {
		if s.rateLimitFailClosed {
			writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable")
			return false
		}
		return true
	}
	writeRateLimitHeaders(c, decision)
	if !decision.Allowed {
		writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
		return false
	}
	return true
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if !decision.ResetAt.IsZero() {
		c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		if !decision.Allowed {
			retryAfter := int64(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
		}
	}
}
