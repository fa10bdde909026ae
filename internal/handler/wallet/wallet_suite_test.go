package wallet_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestWalletHandler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Wallet Handler Suite")
}
