package config

import (
	"fmt"
	"os"

	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the top-level process configuration, loaded from an optional
// YAML file and then overridden by environment variables.
type Config struct {
	Logging      LoggingConfig  `yaml:"logging"`
	Debug        DebugConfig    `yaml:"debug"`
	Storage      StorageConfig  `yaml:"storage"`
	Builder      BuilderConfig  `yaml:"builder"`
	Maestro      MaestroConfig  `yaml:"maestro"`
	Network      string         `yaml:"network" envconfig:"NETWORK"`
	NetworkMagic uint32
}

type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LOGGING_LEVEL"`
}

type DebugConfig struct {
	ListenAddress string `yaml:"address" envconfig:"DEBUG_ADDRESS"`
	ListenPort    uint   `yaml:"port"    envconfig:"DEBUG_PORT"`
}

type StorageConfig struct {
	Directory string `yaml:"dir" envconfig:"STORAGE_DIR"`
}

// BuilderConfig holds balancing-loop settings (spec §4.6). The txbuilder
// package does not read them: it uses its own MaxIters constant, derives
// the fee ceiling from MaxTxSize, and pads a fixed 100 bytes per signer.
type BuilderConfig struct {
	MaxIters          int    `yaml:"maxIters"          envconfig:"BUILDER_MAX_ITERS"`
	MaxTxFee          uint64 `yaml:"maxTxFee"          envconfig:"BUILDER_MAX_TX_FEE"`
	SignerPadBytes    uint64 `yaml:"signerPadBytes"    envconfig:"BUILDER_SIGNER_PAD_BYTES"`
}

// MaestroConfig configures the optional Maestro-backed provider.
type MaestroConfig struct {
	ProjectId string `yaml:"projectId" envconfig:"MAESTRO_PROJECT_ID"`
	Network   string `yaml:"network"   envconfig:"MAESTRO_NETWORK"`
}

// Singleton config instance with default values.
var globalConfig = &Config{
	Network: "mainnet",
	Logging: LoggingConfig{
		Level: "info",
	},
	Debug: DebugConfig{
		ListenAddress: "localhost",
		ListenPort:    0,
	},
	Storage: StorageConfig{
		Directory: "./.txbuild",
	},
	Builder: BuilderConfig{
		MaxIters:       5,
		MaxTxFee:       5_000_000,
		SignerPadBytes: 100,
	},
}

func Load(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %s", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %s", err)
		}
	}
	// Load config values from environment variables
	// We use "dummy" as the app name here to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	err := envconfig.Process("dummy", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %s", err)
	}
	// Populate network magic from network name
	network := ouroboros.NetworkByName(globalConfig.Network)
	if network == ouroboros.NetworkInvalid {
		return nil, fmt.Errorf("unknown network name: %s", globalConfig.Network)
	}
	globalConfig.NetworkMagic = network.NetworkMagic
	return globalConfig, nil
}

// Return global config instance
func GetConfig() *Config {
	return globalConfig
}
