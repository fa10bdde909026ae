package model

// TransferIntent is a validated request to move Amount of Token from From to To.
type TransferIntent struct {
	Chain    Chain
	ChainRef string
	From     string
	To       string
	Token    Token
	Amount   *Web3BigInt
	// AmountText is the validated decimal string as the user entered it.
	AmountText string
}

// UnsignedTransfer is handed to the browser wallet for signing. Exactly one of EVM or Solana is set.
type UnsignedTransfer struct {
	Chain    Chain              `json:"chain"`
	ChainRef string             `json:"chain_ref"`
	From     string             `json:"from"`
	To       string             `json:"to"`
	Amount   string             `json:"amount"`
	Currency string             `json:"currency"`
	Token    Token              `json:"token"`
	Fee      *Web3BigInt        `json:"fee,omitempty"`
	EVM      *EVMTransaction    `json:"evm,omitempty"`
	Solana   *SolanaTransaction `json:"solana,omitempty"`
}

// EVMTransaction carries hex quantities as expected by eth_sendTransaction.
type EVMTransaction struct {
	ChainID  string `json:"chainId"`
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value"`
	Data     string `json:"data,omitempty"`
	Gas      string `json:"gas"`
	GasPrice string `json:"gasPrice"`
	Nonce    string `json:"nonce"`
}

type SolanaTransaction struct {
	// Transaction is the base64 wire transaction with empty signature slots.
	Transaction          string `json:"transaction"`
	Message              string `json:"message"`
	RecentBlockhash      string `json:"recent_blockhash"`
	LastValidBlockHeight uint64 `json:"last_valid_block_height"`
}

type FeeEstimate struct {
	Chain       Chain       `json:"chain"`
	ChainRef    string      `json:"chain_ref"`
	Symbol      string      `json:"symbol"`
	Fee         *Web3BigInt `json:"fee"`
	Formatted   string      `json:"formatted"`
	MaxSendable string      `json:"max_sendable,omitempty"`
}
