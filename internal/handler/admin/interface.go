package admin

import "github.com/gin-gonic/gin"

type IHandler interface {
	ListOverrides(c *gin.Context)
	GetOverride(c *gin.Context)
	SetOverride(c *gin.Context)
}
