package token

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type IHandler interface {
	ListChains(c *gin.Context)
	GetChain(c *gin.Context)
	ListTokens(c *gin.Context)
	AddCustomToken(c *gin.Context)
}

// Registry is satisfied by *tokenregistry.Registry.
type Registry interface {
	Chains() []model.ChainInfo
	Chain(chain model.Chain, ref string) (model.ChainInfo, error)
	Tokens(chain model.Chain, ref string) ([]model.Token, error)
	AddCustomToken(ctx context.Context, token model.Token) (model.Token, error)
}
