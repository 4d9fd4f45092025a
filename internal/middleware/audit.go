package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/BrooksCoder/RegistrationApp/internal/service"
)

// RequestMeta stores the caller identity on the request context so that audit
// entries written further down carry the actor, client IP and user agent.
// It must run after OptionalJWT.
func RequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := service.RequestMeta{
			Actor:     ClaimsFromContext(c).Actor(),
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		c.Request = c.Request.WithContext(service.WithRequestMeta(c.Request.Context(), meta))
		c.Next()
	}
}
