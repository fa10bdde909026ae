package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dwarvesf/walletpay-backend/internal/types/environments"
)

type AppConfig struct {
	Environment environments.Environment
	ApiServer   ApiServerConfig
	Postgres    DBConnection
	Ethereum    EthereumConfig
	Solana      SolanaConfig
	Firebase    FirebaseConfig
	NATS        NATSConfig
	Vault       VaultConfig
	Wallet      WalletConfig
	Reconcile   ReconcileConfig
	Oracle      OracleConfig
	Admin       AdminConfig
	Monitoring  MonitoringConfig
}

type ApiServerConfig struct {
	Port           string
	AllowedOrigins string
}

type DBConnection struct {
	Host string
	Port string
	User string
	Name string
	Pass string

	SSLMode string
}

// EthereumConfig maps an EVM chain id to its RPC endpoint.
type EthereumConfig struct {
	RPCEndpoints   map[int64]string
	DefaultChainID int64
}

// SolanaConfig maps a cluster name (mainnet-beta, devnet) to its RPC endpoint.
type SolanaConfig struct {
	RPCEndpoints   map[string]string
	DefaultNetwork string
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	// VaultSecretKey is the KV key holding the service account json when Vault is enabled.
	VaultSecretKey string
}

type NATSConfig struct {
	URL        string
	StreamName string
}

type VaultConfig struct {
	Address      string
	KVSecretPath string
	Role         string
}

type WalletConfig struct {
	BalanceRefreshAttempts int
	BalanceRefreshDelay    time.Duration
	BalanceRefreshPeriod   string
}

type ReconcileConfig struct {
	Period        string
	MaxPendingAge time.Duration
	BatchSize     int
}

type OracleConfig struct {
	PriceAPIURL   string
	CacheTTL      time.Duration
	RefreshPeriod string
}

type AdminConfig struct {
	APIKey string
}

type MonitoringConfig struct {
	UptimeWebhookURL        string
	JobTimeout              time.Duration
	StalledJobThreshold     time.Duration
	CircuitBreakerThreshold uint32
	ChainCallTimeout        time.Duration
}

func New() *AppConfig {
	env := environments.Parse(os.Getenv("APP_ENV"))

	// this will not override env variables if they already exist
	godotenv.Load(".env." + string(env))

	return &AppConfig{
		Environment: env,
		ApiServer: ApiServerConfig{
			Port:           envVarOrDefault("PORT", "8080"),
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		},
		Postgres: DBConnection{
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			User:    os.Getenv("DB_USER"),
			Name:    os.Getenv("DB_NAME"),
			Pass:    os.Getenv("DB_PASS"),
			SSLMode: os.Getenv("DB_SSL_MODE"),
		},
		Ethereum: EthereumConfig{
			RPCEndpoints:   parseChainIDEndpoints(os.Getenv("EVM_RPC_ENDPOINTS")),
			DefaultChainID: int64(envVarAtoiOrDefault("EVM_DEFAULT_CHAIN_ID", 11155111)),
		},
		Solana: SolanaConfig{
			RPCEndpoints:   parseNamedEndpoints(os.Getenv("SOLANA_RPC_ENDPOINTS")),
			DefaultNetwork: envVarOrDefault("SOLANA_DEFAULT_NETWORK", "devnet"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
			CredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
			VaultSecretKey:  envVarOrDefault("FIREBASE_VAULT_SECRET_KEY", "FIREBASE_SERVICE_ACCOUNT"),
		},
		NATS: NATSConfig{
			URL:        os.Getenv("NATS_URL"),
			StreamName: envVarOrDefault("NATS_STREAM_NAME", "WALLET_TRANSACTIONS"),
		},
		Vault: VaultConfig{
			Address:      os.Getenv("VAULT_ADDR"),
			KVSecretPath: os.Getenv("VAULT_KV_SECRET_PATH"),
			Role:         os.Getenv("VAULT_ROLE"),
		},
		Wallet: WalletConfig{
			BalanceRefreshAttempts: envVarAtoiOrDefault("BALANCE_REFRESH_ATTEMPTS", 3),
			BalanceRefreshDelay:    envVarDurationOrDefault("BALANCE_REFRESH_DELAY", time.Second),
			BalanceRefreshPeriod:   envVarOrDefault("BALANCE_REFRESH_PERIOD", "@every 30s"),
		},
		Reconcile: ReconcileConfig{
			Period:        envVarOrDefault("RECONCILE_PERIOD", "@every 1m"),
			MaxPendingAge: envVarDurationOrDefault("RECONCILE_MAX_PENDING_AGE", 24*time.Hour),
			BatchSize:     envVarAtoiOrDefault("RECONCILE_BATCH_SIZE", 100),
		},
		Oracle: OracleConfig{
			PriceAPIURL:   envVarOrDefault("PRICE_API_URL", "https://api.coingecko.com/api/v3"),
			CacheTTL:      envVarDurationOrDefault("PRICE_CACHE_TTL", 5*time.Minute),
			RefreshPeriod: envVarOrDefault("PRICE_REFRESH_PERIOD", "@every 1h"),
		},
		Admin: AdminConfig{
			APIKey: os.Getenv("ADMIN_API_KEY"),
		},
		Monitoring: MonitoringConfig{
			UptimeWebhookURL:        os.Getenv("UPTIME_WEBHOOK_URL"),
			JobTimeout:              envVarDurationOrDefault("JOB_TIMEOUT", 2*time.Minute),
			StalledJobThreshold:     envVarDurationOrDefault("STALLED_JOB_THRESHOLD", 10*time.Minute),
			CircuitBreakerThreshold: uint32(envVarAtoiOrDefault("CIRCUIT_BREAKER_THRESHOLD", 5)),
			ChainCallTimeout:        envVarDurationOrDefault("CHAIN_CALL_TIMEOUT", 10*time.Second),
		},
	}
}

// parseChainIDEndpoints reads "1=https://a;137=https://b". Malformed pairs are skipped.
func parseChainIDEndpoints(raw string) map[int64]string {
	out := map[int64]string{}
	for name, url := range parseNamedEndpoints(raw) {
		id, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			continue
		}
		out[id] = url
	}
	return out
}

func parseNamedEndpoints(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, ";") {
		name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || url == "" {
			continue
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(url)
	}
	return out
}

func envVarOrDefault(envName, fallback string) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}
	return fallback
}

func envVarAtoiOrDefault(envName string, fallback int) int {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		panic(err)
	}

	return value
}

func envVarDurationOrDefault(envName string, fallback time.Duration) time.Duration {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		panic(err)
	}

	return value
}
