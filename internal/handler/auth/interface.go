package auth

import "github.com/gin-gonic/gin"

type IHandler interface {
	AnonymousToken(c *gin.Context)
}
