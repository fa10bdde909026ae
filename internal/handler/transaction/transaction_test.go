package transaction_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dwarvesf/walletpay-backend/internal/controller"
	"github.com/dwarvesf/walletpay-backend/internal/events"
	"github.com/dwarvesf/walletpay-backend/internal/handler/transaction"
	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/store"
	"github.com/dwarvesf/walletpay-backend/internal/store/storetest"
	"github.com/dwarvesf/walletpay-backend/internal/telemetry"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/view"
	"github.com/dwarvesf/walletpay-backend/internal/wallet"
	"github.com/dwarvesf/walletpay-backend/internal/wallet/wallettest"
)

const (
	alice = "0x00000000000000000000000000000000000a11ce"
	bob   = "0x0000000000000000000000000000000000000b0b"
)

func transferBody(amount string, extra ...string) string {
	fields := []string{
		`"chain":"ethereum"`,
		`"chain_ref":"11155111"`,
		`"from":"` + alice + `"`,
		`"to":"` + bob + `"`,
		`"token_address":"0xNative"`,
		`"amount":"` + amount + `"`,
	}
	return "{" + strings.Join(append(fields, extra...), ",") + "}"
}

var _ = Describe("Transaction handler", func() {
	var (
		router    *gin.Engine
		evm       *wallettest.FakeAdapter
		publisher *events.MockPublisher
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		evm = wallettest.NewFakeAdapter(model.ChainEthereum)
		evm.NativeBalanceFn = func(chainRef, address string) (*model.Web3BigInt, error) {
			return &model.Web3BigInt{Value: "5000000000000000000", Decimal: 18}, nil
		}
		publisher = events.NewMockPublisher()

		s := &store.Store{
			TransactionRecord: storetest.NewMemoryTransactionRecords(),
			WalletOverride:    storetest.NewMemoryWalletOverrides(),
		}
		adapters := wallet.NewAdapters(evm, wallettest.NewFakeAdapter(model.ChainSolana))
		ctrl := controller.New(nil, s, adapters, wallettest.DefaultTokens(), publisher, logger.NewNop())
		tel := telemetry.New(nil, s, &config.AppConfig{}, logger.NewNop(), adapters, publisher)

		h := transaction.NewTransactionHandler(ctrl, tel, logger.NewNop(), nil)
		router = gin.New()
		router.POST("/transactions/prepare", h.Prepare)
		router.POST("/transactions/submit", h.Submit)
		router.POST("/transactions", h.Record)
		router.GET("/transactions", h.GetTransactions)
		router.GET("/transactions/:chain/:tx_hash", h.GetTransaction)
	})

	Describe("prepare", func() {
		It("returns the unsigned transfer", func() {
			w := do(http.MethodPost, "/transactions/prepare", transferBody("1.5"))
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp view.Response[model.UnsignedTransfer]
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Data.Amount).To(Equal("1.5"))
			Expect(resp.Data.Currency).To(Equal("ETH"))
			Expect(resp.Data.To).To(Equal(bob))
		})

		It("rejects malformed amounts without touching the chain", func() {
			for _, amount := range []string{"abc", "1,5", "-2", "1e3"} {
				w := do(http.MethodPost, "/transactions/prepare", transferBody(amount))
				Expect(w.Code).To(Equal(http.StatusBadRequest), amount)
			}
			Expect(evm.TotalCalls()).To(BeZero())
		})

		It("maps insufficient balance to 422", func() {
			w := do(http.MethodPost, "/transactions/prepare", transferBody("10"))
			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(w.Body.String()).To(ContainSubstring("insufficient balance"))
		})

		It("rejects unknown chains", func() {
			body := strings.Replace(transferBody("1"), `"chain":"ethereum"`, `"chain":"bitcoin"`, 1)
			Expect(do(http.MethodPost, "/transactions/prepare", body).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for unknown tokens", func() {
			body := strings.Replace(transferBody("1"), `"0xNative"`, `"0x000000000000000000000000000000000000dead"`, 1)
			Expect(do(http.MethodPost, "/transactions/prepare", body).Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("submit and record", func() {
		It("submits, publishes and reads back", func() {
			w := do(http.MethodPost, "/transactions/submit", transferBody("1", `"signed_transaction":"0xf86b"`))
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp view.Response[model.TransactionRecord]
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Data.TxHash).To(Equal("hash-0xf86b"))
			Expect(resp.Data.Status).To(Equal(model.TransactionStatusPending))
			Expect(publisher.EventsOfType(events.EventTransactionCreated)).To(HaveLen(1))

			w = do(http.MethodGet, "/transactions/ethereum/hash-0xf86b", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			var got view.Response[model.TransactionRecord]
			Expect(json.Unmarshal(w.Body.Bytes(), &got)).To(Succeed())
			Expect(got.Data.Amount).To(Equal("1"))
			Expect(got.Data.FromAddress).To(Equal(alice))
		})

		It("requires the signed payload", func() {
			Expect(do(http.MethodPost, "/transactions/submit", transferBody("1")).Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects duplicate hashes with 409", func() {
			body := transferBody("1", `"tx_hash":"0xabc"`)
			Expect(do(http.MethodPost, "/transactions", body).Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodPost, "/transactions", body).Code).To(Equal(http.StatusConflict))
		})

		It("reconciles on refresh", func() {
			Expect(do(http.MethodPost, "/transactions", transferBody("1", `"tx_hash":"0xabc"`)).Code).To(Equal(http.StatusOK))
			evm.StatusFn = func(chainRef, txHash string) (model.TransactionStatus, error) {
				return model.TransactionStatusConfirmed, nil
			}

			w := do(http.MethodGet, "/transactions/ethereum/0xabc", "")
			var resp view.Response[model.TransactionRecord]
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Data.Status).To(Equal(model.TransactionStatusPending))

			w = do(http.MethodGet, "/transactions/ethereum/0xabc?refresh=true", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Data.Status).To(Equal(model.TransactionStatusConfirmed))
		})

		It("returns 404 for unknown hashes", func() {
			Expect(do(http.MethodGet, "/transactions/ethereum/0xmissing", "").Code).To(Equal(http.StatusNotFound))
			Expect(do(http.MethodGet, "/transactions/bitcoin/0xmissing", "").Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("list", func() {
		BeforeEach(func() {
			for _, hash := range []string{"0x01", "0x02", "0x03"} {
				Expect(do(http.MethodPost, "/transactions", transferBody("1", `"tx_hash":"`+hash+`"`)).Code).To(Equal(http.StatusOK))
			}
		})

		It("pages and filters", func() {
			w := do(http.MethodGet, "/transactions?chain=ethereum&limit=2", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp view.Response[transaction.GetTransactionsResponse]
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Data.Total).To(BeEquivalentTo(3))
			Expect(resp.Data.Transactions).To(HaveLen(2))

			w = do(http.MethodGet, "/transactions?status=confirmed", "")
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Data.Total).To(BeZero())
		})

		It("rejects unknown filters", func() {
			Expect(do(http.MethodGet, "/transactions?status=done", "").Code).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodGet, "/transactions?chain=bitcoin", "").Code).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodGet, "/transactions?limit=abc", "").Code).To(Equal(http.StatusBadRequest))
		})
	})
})
