package main

import (
	"github.com/dwarvesf/walletpay-backend/internal/server"
)

// @title Walletpay API
// @version 1.0
// @description Multi-chain wallet payments: sessions, balances, transfers and transaction history.
// @BasePath /
func main() {
	server.Init()
}
