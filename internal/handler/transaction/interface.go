package transaction

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type IHandler interface {
	Prepare(c *gin.Context)
	Submit(c *gin.Context)
	Record(c *gin.Context)

	// GetTransactions lists recorded transactions with optional filtering
	GetTransactions(c *gin.Context)
	GetTransaction(c *gin.Context)
}

type TransferRequest struct {
	Chain        string `json:"chain" binding:"required"`
	ChainRef     string `json:"chain_ref" binding:"required"`
	From         string `json:"from" binding:"required"`
	To           string `json:"to" binding:"required"`
	TokenAddress string `json:"token_address"`
	Amount       string `json:"amount" binding:"required,decimal_amount"`
}

type SubmitRequest struct {
	TransferRequest
	SignedTransaction string `json:"signed_transaction" binding:"required"`
}

type RecordRequest struct {
	TransferRequest
	TxHash    string    `json:"tx_hash" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
}

type GetTransactionsRequest struct {
	Limit   int    `form:"limit" json:"limit"`
	Offset  int    `form:"offset" json:"offset"`
	Chain   string `form:"chain" json:"chain"`
	Address string `form:"address" json:"address"`
	Status  string `form:"status" json:"status"`
}

type GetTransactionsResponse struct {
	Total        int64                     `json:"total"`
	Transactions []model.TransactionRecord `json:"transactions"`
}
