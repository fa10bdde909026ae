package controller

import (
	"time"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type TransferRequest struct {
	Chain        model.Chain
	ChainRef     string
	From         string
	To           string
	TokenAddress string
	Amount       string
}

type SubmitTransferRequest struct {
	TransferRequest
	// SignedTransaction is 0x-hex (EVM) or base64 (Solana)
	SignedTransaction string
}

type RecordTransferRequest struct {
	TransferRequest
	TxHash    string
	Timestamp time.Time
}

type AllowanceRequest struct {
	Chain        model.Chain
	ChainRef     string
	TokenAddress string
	Owner        string
	Spender      string
	Amount       string
}

type AllowanceResult struct {
	Allowance     *model.Web3BigInt `json:"allowance"`
	Required      *model.Web3BigInt `json:"required"`
	NeedsApproval bool              `json:"needs_approval"`
}

type OverrideRequest struct {
	Chain     model.Chain
	Address   string
	Enabled   bool
	UpdatedBy string
}
