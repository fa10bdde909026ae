package wallet_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	handler "github.com/dwarvesf/walletpay-backend/internal/handler/wallet"
	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/view"
	"github.com/dwarvesf/walletpay-backend/internal/wallet"
	"github.com/dwarvesf/walletpay-backend/internal/wallet/wallettest"
)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
)

func decodeState(w *httptest.ResponseRecorder) model.WalletState {
	var resp view.Response[model.WalletState]
	Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
	return resp.Data
}

var _ = Describe("Wallet handler", func() {
	var (
		router *gin.Engine
		eth    *wallettest.FakeAdapter
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

	connect := func() model.WalletState {
		w := do(http.MethodPost, "/wallets/connect", `{"chain":"ethereum","chain_ref":"11155111","address":"`+alice+`","wallet_name":"MetaMask"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		return decodeState(w)
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		eth = wallettest.NewFakeAdapter(model.ChainEthereum)
		eth.NativeBalanceFn = func(chainRef, address string) (*model.Web3BigInt, error) {
			return &model.Web3BigInt{Value: "2500000000000000000", Decimal: 18}, nil
		}

		manager := wallet.NewManager(wallet.NewAdapters(eth), wallettest.DefaultTokens(), wallet.Options{
			RefreshAttempts: 3,
			RefreshDelay:    time.Millisecond,
		}, logger.NewNop())
		h := handler.New(manager, logger.NewNop(), nil)

		router = gin.New()
		router.POST("/wallets/connect", h.Connect)
		router.GET("/wallets/:session_id", h.Get)
		router.POST("/wallets/:session_id/refresh", h.Refresh)
		router.PUT("/wallets/:session_id/account", h.ChangeAccount)
		router.PUT("/wallets/:session_id/chain", h.ChangeChainRef)
		router.DELETE("/wallets/:session_id", h.Disconnect)
		router.GET("/wallets/:session_id/tokens", h.TokenBalances)
	})

	Describe("connect", func() {
		It("populates account and balance", func() {
			state := connect()
			Expect(state.SessionID).NotTo(BeEmpty())
			Expect(state.Connected).To(BeTrue())
			Expect(state.Account).To(Equal(alice))
			Expect(state.Symbol).To(Equal("ETH"))
			Expect(state.Balance).To(Equal("2.5"))
		})

		It("rejects unknown chains", func() {
			w := do(http.MethodPost, "/wallets/connect", `{"chain":"bitcoin","chain_ref":"main","address":"bc1q"}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects invalid addresses", func() {
			w := do(http.MethodPost, "/wallets/connect", `{"chain":"ethereum","chain_ref":"11155111","address":"not an address"}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("reports missing fields", func() {
			w := do(http.MethodPost, "/wallets/connect", `{"chain":"ethereum"}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))

			var resp view.ErrorResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Errors).NotTo(BeEmpty())
		})
	})

	Describe("session lifecycle", func() {
		It("gets, switches account and disconnects", func() {
			state := connect()

			w := do(http.MethodGet, "/wallets/"+state.SessionID, "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decodeState(w).Account).To(Equal(alice))

			w = do(http.MethodPut, "/wallets/"+state.SessionID+"/account", `{"address":"`+bob+`"}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decodeState(w).Account).To(Equal(bob))

			w = do(http.MethodDelete, "/wallets/"+state.SessionID, "")
			Expect(w.Code).To(Equal(http.StatusOK))
			disconnected := decodeState(w)
			Expect(disconnected.Connected).To(BeFalse())
			Expect(disconnected.Balance).To(Equal("0"))

			w = do(http.MethodGet, "/wallets/"+state.SessionID, "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("zeroes the balance after three failed refreshes", func() {
			state := connect()
			eth.NativeBalanceFn = func(chainRef, address string) (*model.Web3BigInt, error) {
				return nil, errors.New("rpc unavailable")
			}
			before := eth.Calls("NativeBalance")

			w := do(http.MethodPost, "/wallets/"+state.SessionID+"/refresh", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			refreshed := decodeState(w)
			Expect(refreshed.Balance).To(Equal("0"))
			Expect(refreshed.RefreshError).To(ContainSubstring("rpc unavailable"))
			Expect(eth.Calls("NativeBalance") - before).To(Equal(3))
		})

		It("rejects an unknown network switch", func() {
			state := connect()
			w := do(http.MethodPut, "/wallets/"+state.SessionID+"/chain", `{"chain_ref":"1"}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("lists token balances", func() {
			state := connect()
			w := do(http.MethodGet, "/wallets/"+state.SessionID+"/tokens", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp view.Response[[]model.TokenBalance]
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Data).To(HaveLen(2))
		})

		It("returns 404 for unknown sessions", func() {
			Expect(do(http.MethodPost, "/wallets/missing/refresh", "").Code).To(Equal(http.StatusNotFound))
			Expect(do(http.MethodGet, "/wallets/missing/tokens", "").Code).To(Equal(http.StatusNotFound))
			Expect(do(http.MethodDelete, "/wallets/missing", "").Code).To(Equal(http.StatusNotFound))
		})
	})
})
