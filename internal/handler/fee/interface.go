package fee

import "github.com/gin-gonic/gin"

type IHandler interface {
	EstimateFee(c *gin.Context)
	CheckAllowance(c *gin.Context)
}
