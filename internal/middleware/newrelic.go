package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicCaller tags the request's New Relic transaction with the caller
// identity and ride ID. Must run after nrgin.Middleware and AuthMiddleware.
func NewRelicCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if txn := nrgin.Transaction(c); txn != nil {
			if id := CallerID(c); id != "" {
				txn.AddAttribute("caller_id", id)
				txn.AddAttribute("caller_role", CallerRole(c))
			}
			if rideID := c.Param("id"); rideID != "" {
				txn.AddAttribute("path_id", rideID)
			}
		}

		c.Next()

		if txn := nrgin.Transaction(c); txn != nil {
			for _, err := range c.Errors {
				txn.NoticeError(err.Err)
			}
		}
	}
}
