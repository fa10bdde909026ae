package price

import "github.com/gin-gonic/gin"

type IHandler interface {
	ListPrices(c *gin.Context)
	ConvertToUSD(c *gin.Context)
}
