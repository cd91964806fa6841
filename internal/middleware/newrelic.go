package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicActorMiddleware tags the transaction started by nrgin with the
// authenticated actor so traces can be filtered by role and subject.
// It must run after AuthMiddleware.
func NewRelicActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if actor, ok := ActorFrom(c); ok {
			txn.AddAttribute("actor.id", actor.ID)
			txn.AddAttribute("actor.role", string(actor.Role))
		}

		c.Next()

		// Record error if present.
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
