package middleware

import "github.com/gin-gonic/gin"

// Authenticator abstracts the auth middleware; anything exposing Handle() can
// be mounted on the protected route groups.
type Authenticator interface {
	Handle() gin.HandlerFunc
}
