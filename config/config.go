package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

// DefaultContractAddress es el contrato de portfolios desplegado en mainnet.
const DefaultContractAddress = "KT18q4si6YmzJjbgZ3wV7HYfds1E3EbD7tBx"

// Config es la configuración completa de tezfolio.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Policy  PolicyConfig  `yaml:"policy"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig contiene el base URL del servicio de analytics.
type APIConfig struct {
	AnalyticsBase string `yaml:"analytics_base"`
}

// WalletConfig controla el bridge JSON-RPC de la wallet.
type WalletConfig struct {
	RPCURL                     string `yaml:"rpc_url"`
	ContractAddress            string `yaml:"contract_address"`
	ForcePermissions           bool   `yaml:"force_permissions"`
	Confirmations              int    `yaml:"confirmations"`
	ConfirmationTimeoutSeconds int    `yaml:"confirmation_timeout_seconds"`
}

// PolicyConfig son las constantes de protocolo del rebalance.
type PolicyConfig struct {
	SlippageTolerance  int64  `yaml:"slippage_tolerance"`
	ReferenceAmountTez string `yaml:"reference_amount_tez"` // string para no perder precisión
}

// StorageConfig controla dónde se persiste el journal.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, ":memory:", o vacío para desactivar
}

// ServerConfig controla la API HTTP local.
type ServerConfig struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if _, err := cfg.RebalancePolicy(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// ConfirmationTimeout devuelve el timeout de confirmación como time.Duration.
func (c *Config) ConfirmationTimeout() time.Duration {
	return time.Duration(c.Wallet.ConfirmationTimeoutSeconds) * time.Second
}

// RebalancePolicy convierte la política configurada (tez) a la del dominio (mutez).
func (c *Config) RebalancePolicy() (domain.RebalancePolicy, error) {
	amount, err := decimal.NewFromString(c.Policy.ReferenceAmountTez)
	if err != nil {
		return domain.RebalancePolicy{}, fmt.Errorf("policy.reference_amount_tez %q: %w", c.Policy.ReferenceAmountTez, err)
	}
	if !amount.IsPositive() {
		return domain.RebalancePolicy{}, fmt.Errorf("policy.reference_amount_tez must be positive, got %s", amount)
	}
	return domain.RebalancePolicy{
		SlippageTolerance: c.Policy.SlippageTolerance,
		ReferenceAmount:   domain.TezToMutez(amount),
	}, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TEZFOLIO_ANALYTICS_BASE"); v != "" {
		cfg.API.AnalyticsBase = v
	}
	if v := os.Getenv("TEZFOLIO_WALLET_RPC"); v != "" {
		cfg.Wallet.RPCURL = v
	}
	if v := os.Getenv("TEZFOLIO_CONTRACT"); v != "" {
		cfg.Wallet.ContractAddress = v
	}
	if v := os.Getenv("TEZFOLIO_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("TEZFOLIO_CONFIRMATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Wallet.Confirmations = n
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.API.AnalyticsBase == "" {
		cfg.API.AnalyticsBase = "http://localhost:8000"
	}
	if cfg.Wallet.RPCURL == "" {
		cfg.Wallet.RPCURL = "http://localhost:8732"
	}
	if cfg.Wallet.ContractAddress == "" {
		cfg.Wallet.ContractAddress = DefaultContractAddress
	}
	if cfg.Wallet.Confirmations <= 0 {
		cfg.Wallet.Confirmations = 1
	}
	if cfg.Wallet.ConfirmationTimeoutSeconds <= 0 {
		cfg.Wallet.ConfirmationTimeoutSeconds = 180
	}
	if cfg.Policy.SlippageTolerance <= 0 {
		cfg.Policy.SlippageTolerance = domain.DefaultSlippageTolerance
	}
	if cfg.Policy.ReferenceAmountTez == "" {
		cfg.Policy.ReferenceAmountTez = domain.MutezToTez(domain.DefaultReferenceAmount).String()
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "127.0.0.1:8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
