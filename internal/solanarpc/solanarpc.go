package solanarpc

import (
	"context"
	"encoding/base64"
	"math/big"
	"sort"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

const (
	NativeDecimals = 9

	// base fee for one signature, used when getFeeForMessage fails
	defaultSignatureFee uint64 = 5000
)

type SolanaRPC struct {
	clients map[string]RPCClient
	logger  *logger.Logger
}

func New(cfg config.SolanaConfig, logger *logger.Logger) *SolanaRPC {
	clients := make(map[string]RPCClient, len(cfg.RPCEndpoints))
	for network, endpoint := range cfg.RPCEndpoints {
		clients[network] = rpc.New(endpoint)
	}
	return NewWithClients(clients, logger)
}

func NewWithClients(clients map[string]RPCClient, logger *logger.Logger) *SolanaRPC {
	return &SolanaRPC{
		clients: clients,
		logger:  logger,
	}
}

func (s *SolanaRPC) Chain() model.Chain {
	return model.ChainSolana
}

func (s *SolanaRPC) Networks() []string {
	networks := make([]string, 0, len(s.clients))
	for n := range s.clients {
		networks = append(networks, n)
	}
	sort.Strings(networks)
	return networks
}

func (s *SolanaRPC) client(network string) (RPCClient, error) {
	c, ok := s.clients[strings.TrimSpace(network)]
	if !ok {
		return nil, errors.Wrapf(model.ErrUnsupportedChainRef, "no rpc endpoint for network %q", network)
	}
	return c, nil
}

func parsePublicKey(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(address))
	if err != nil {
		return solana.PublicKey{}, errors.Wrapf(model.ErrInvalidAddress, "%q is not a solana address", address)
	}
	return pk, nil
}

func (s *SolanaRPC) ValidateAddress(address string) error {
	_, err := parsePublicKey(address)
	return err
}

func (s *SolanaRPC) ValidateTxHash(txHash string) error {
	_, err := parseSignature(txHash)
	return err
}

func parseSignature(txHash string) (solana.Signature, error) {
	sig, err := solana.SignatureFromBase58(strings.TrimSpace(txHash))
	if err != nil {
		return solana.Signature{}, errors.Wrapf(model.ErrInvalidTxHash, "%q is not a base58 signature", txHash)
	}
	return sig, nil
}

func (s *SolanaRPC) NativeBalance(ctx context.Context, chainRef, address string) (*model.Web3BigInt, error) {
	owner, err := parsePublicKey(address)
	if err != nil {
		return nil, err
	}
	c, err := s.client(chainRef)
	if err != nil {
		return nil, err
	}

	res, err := c.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, errors.Wrap(err, "getBalance")
	}
	return model.NewWeb3BigInt(new(big.Int).SetUint64(res.Value), NativeDecimals), nil
}

// TokenBalance reads the owner's associated token account. A missing account is a zero balance.
func (s *SolanaRPC) TokenBalance(ctx context.Context, chainRef string, tok model.Token, address string) (*model.Web3BigInt, error) {
	if tok.IsNative || model.IsNativeAddress(tok.Address) {
		return s.NativeBalance(ctx, chainRef, address)
	}

	owner, err := parsePublicKey(address)
	if err != nil {
		return nil, err
	}
	mint, err := parsePublicKey(tok.Address)
	if err != nil {
		return nil, err
	}
	c, err := s.client(chainRef)
	if err != nil {
		return nil, err
	}

	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, errors.Wrap(err, "derive associated token account")
	}

	exists, err := accountExists(ctx, c, ata)
	if err != nil {
		return nil, err
	}
	if !exists {
		return model.ZeroWeb3BigInt(tok.Decimals), nil
	}

	res, err := c.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, errors.Wrap(err, "getTokenAccountBalance")
	}

	amount, ok := new(big.Int).SetString(res.Value.Amount, 10)
	if !ok {
		return nil, errors.Errorf("unexpected token amount %q", res.Value.Amount)
	}
	return model.NewWeb3BigInt(amount, int(res.Value.Decimals)), nil
}

func accountExists(ctx context.Context, c RPCClient, account solana.PublicKey) (bool, error) {
	res, err := c.GetAccountInfo(ctx, account)
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "getAccountInfo")
	}
	return res != nil && res.Value != nil, nil
}

// EstimateTransferFee prices a one-signature system transfer. RPC failures fall back to the base fee.
func (s *SolanaRPC) EstimateTransferFee(ctx context.Context, chainRef string) (*model.Web3BigInt, error) {
	c, err := s.client(chainRef)
	if err != nil {
		return nil, err
	}

	payer := solana.SystemProgramID
	fee, err := s.feeForInstructions(ctx, c, payer, system.NewTransferInstruction(1, payer, payer).Build())
	if err != nil {
		s.logger.Error("[EstimateTransferFee][feeForInstructions]", map[string]string{
			"chain_ref": chainRef,
			"error":     err.Error(),
		})
		fee = defaultSignatureFee
	}
	return model.NewWeb3BigInt(new(big.Int).SetUint64(fee), NativeDecimals), nil
}

func (s *SolanaRPC) feeForInstructions(ctx context.Context, c RPCClient, payer solana.PublicKey, ixs ...solana.Instruction) (uint64, error) {
	blockhash, err := c.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return 0, errors.Wrap(err, "getLatestBlockhash")
	}

	builder := solana.NewTransactionBuilder().
		SetRecentBlockHash(blockhash.Value.Blockhash).
		SetFeePayer(payer)
	for _, ix := range ixs {
		builder = builder.AddInstruction(ix)
	}
	tx, err := builder.Build()
	if err != nil {
		return 0, err
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return 0, err
	}

	res, err := c.GetFeeForMessage(ctx, base64.StdEncoding.EncodeToString(msg), rpc.CommitmentConfirmed)
	if err != nil {
		return 0, errors.Wrap(err, "getFeeForMessage")
	}
	if res.Value == nil {
		return 0, errors.New("getFeeForMessage returned no value")
	}
	return *res.Value, nil
}

// PrepareTransfer builds an unsigned transfer with the sender as fee payer.
func (s *SolanaRPC) PrepareTransfer(ctx context.Context, intent model.TransferIntent) (*model.UnsignedTransfer, error) {
	from, err := parsePublicKey(intent.From)
	if err != nil {
		return nil, err
	}
	to, err := parsePublicKey(intent.To)
	if err != nil {
		return nil, err
	}
	c, err := s.client(intent.ChainRef)
	if err != nil {
		return nil, err
	}

	if !intent.Amount.BigInt().IsUint64() {
		return nil, errors.Wrap(model.ErrInvalidAmount, "amount exceeds u64")
	}
	amount := intent.Amount.BigInt().Uint64()

	var ixs []solana.Instruction
	if intent.Token.IsNative || model.IsNativeAddress(intent.Token.Address) {
		ixs = append(ixs, system.NewTransferInstruction(amount, from, to).Build())
	} else {
		ixs, err = s.tokenTransferInstructions(ctx, c, from, to, intent.Token, amount)
		if err != nil {
			return nil, err
		}
	}

	blockhash, err := c.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, errors.Wrap(err, "getLatestBlockhash")
	}

	builder := solana.NewTransactionBuilder().
		SetRecentBlockHash(blockhash.Value.Blockhash).
		SetFeePayer(from)
	for _, ix := range ixs {
		builder = builder.AddInstruction(ix)
	}
	tx, err := builder.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build transaction")
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, err
	}
	// wallets expect one empty slot per required signer
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	wire, err := tx.MarshalBinary()
	if err != nil {
		return nil, err
	}

	encodedMsg := base64.StdEncoding.EncodeToString(msg)
	fee := defaultSignatureFee
	if res, err := c.GetFeeForMessage(ctx, encodedMsg, rpc.CommitmentConfirmed); err == nil && res.Value != nil {
		fee = *res.Value
	}

	return &model.UnsignedTransfer{
		Chain:    model.ChainSolana,
		ChainRef: intent.ChainRef,
		From:     from.String(),
		To:       to.String(),
		Amount:   intent.Amount.Format(),
		Currency: intent.Token.Symbol,
		Token:    intent.Token,
		Fee:      model.NewWeb3BigInt(new(big.Int).SetUint64(fee), NativeDecimals),
		Solana: &model.SolanaTransaction{
			Transaction:          base64.StdEncoding.EncodeToString(wire),
			Message:              encodedMsg,
			RecentBlockhash:      blockhash.Value.Blockhash.String(),
			LastValidBlockHeight: blockhash.Value.LastValidBlockHeight,
		},
	}, nil
}

func (s *SolanaRPC) tokenTransferInstructions(ctx context.Context, c RPCClient, from, to solana.PublicKey, tok model.Token, amount uint64) ([]solana.Instruction, error) {
	mint, err := parsePublicKey(tok.Address)
	if err != nil {
		return nil, err
	}
	sourceATA, _, err := solana.FindAssociatedTokenAddress(from, mint)
	if err != nil {
		return nil, errors.Wrap(err, "derive source token account")
	}
	destinationATA, _, err := solana.FindAssociatedTokenAddress(to, mint)
	if err != nil {
		return nil, errors.Wrap(err, "derive destination token account")
	}

	var ixs []solana.Instruction
	exists, err := accountExists(ctx, c, destinationATA)
	if err != nil {
		return nil, err
	}
	if !exists {
		ixs = append(ixs, associatedtokenaccount.NewCreateInstruction(from, to, mint).Build())
	}

	transferIx, err := token.NewTransferCheckedInstructionBuilder().
		SetAmount(amount).
		SetDecimals(uint8(tok.Decimals)).
		SetSourceAccount(sourceATA).
		SetMintAccount(mint).
		SetDestinationAccount(destinationATA).
		SetOwnerAccount(from).
		ValidateAndBuild()
	if err != nil {
		return nil, errors.Wrap(err, "build transferChecked")
	}
	return append(ixs, transferIx), nil
}

// SubmitSignedTransaction broadcasts a base64 wire transaction fully signed by the wallet.
func (s *SolanaRPC) SubmitSignedTransaction(ctx context.Context, chainRef, payload string) (string, error) {
	c, err := s.client(chainRef)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", errors.Wrap(model.ErrInvalidSignedTransaction, err.Error())
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return "", errors.Wrap(model.ErrInvalidSignedTransaction, err.Error())
	}
	if len(tx.Signatures) == 0 {
		return "", errors.Wrap(model.ErrInvalidSignedTransaction, "transaction has no signatures")
	}
	if err := tx.VerifySignatures(); err != nil {
		return "", errors.Wrap(model.ErrInvalidSignedTransaction, err.Error())
	}

	sig, err := c.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", errors.Wrap(err, "sendTransaction")
	}

	s.logger.Info("[SubmitSignedTransaction] broadcast", map[string]string{
		"chain_ref": chainRef,
		"signature": sig.String(),
	})
	return sig.String(), nil
}

func (s *SolanaRPC) TransactionStatus(ctx context.Context, chainRef, txHash string) (model.TransactionStatus, error) {
	sig, err := parseSignature(txHash)
	if err != nil {
		return "", err
	}
	c, err := s.client(chainRef)
	if err != nil {
		return "", err
	}

	res, err := c.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return "", errors.Wrap(err, "getSignatureStatuses")
	}
	if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
		return model.TransactionStatusPending, nil
	}

	st := res.Value[0]
	if st.Err != nil {
		return model.TransactionStatusFailed, nil
	}
	switch st.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return model.TransactionStatusConfirmed, nil
	}
	return model.TransactionStatusPending, nil
}

// FormatLamports renders lamports as SOL with four decimals, the precision wallets display.
func FormatLamports(lamports uint64) string {
	w := model.NewWeb3BigInt(new(big.Int).SetUint64(lamports), NativeDecimals)
	return w.FormatFixed(4)
}
