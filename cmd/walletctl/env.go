package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dwarvesf/walletpay-backend/internal/controller"
	"github.com/dwarvesf/walletpay-backend/internal/evmrpc"
	"github.com/dwarvesf/walletpay-backend/internal/solanarpc"
	"github.com/dwarvesf/walletpay-backend/internal/store"
	pgstore "github.com/dwarvesf/walletpay-backend/internal/store/postgres"
	"github.com/dwarvesf/walletpay-backend/internal/tokenregistry"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/wallet"
)

// env is what every command needs. Nothing in it talks to a chain: the adapters only
// validate addresses.
type env struct {
	controller controller.IController
	tokens     *tokenregistry.Registry
	close      func()
}

type envOpener func(c *cli.Context) (*env, error)

func openEnv(c *cli.Context) (*env, error) {
	appConfig := config.New()
	log := logger.New(appConfig.Environment)

	dsn := c.String("database-url")
	if dsn == "" {
		dsn = pgstore.DSN(appConfig.Postgres)
	}
	db, err := pgstore.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	s := store.New()
	adapters := offlineAdapters(log)
	tokens, err := tokenregistry.New(db, s.CustomToken, adapters, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load token registry: %w", err)
	}
	if _, err := tokens.LoadCustomTokens(c.Context); err != nil {
		return nil, fmt.Errorf("failed to load custom tokens: %w", err)
	}

	return &env{
		controller: controller.New(db, s, adapters, tokens, nil, log),
		tokens:     tokens,
		close:      func() { _ = sqlDB.Close() },
	}, nil
}

func offlineAdapters(log *logger.Logger) *wallet.Adapters {
	return wallet.NewAdapters(
		evmrpc.NewWithClients(nil, log),
		solanarpc.NewWithClients(nil, log),
	)
}

func outputJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
