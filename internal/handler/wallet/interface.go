package wallet

import "github.com/gin-gonic/gin"

type IHandler interface {
	Connect(c *gin.Context)
	Get(c *gin.Context)
	Refresh(c *gin.Context)
	ChangeAccount(c *gin.Context)
	ChangeChainRef(c *gin.Context)
	Disconnect(c *gin.Context)
	TokenBalances(c *gin.Context)
}
