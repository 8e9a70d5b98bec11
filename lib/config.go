package lib

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/units"
)

/* This file implements logic for 'user controlled' global configurations of each module of the pool node */

const (
	// FILE NAMES in the 'data directory'
	ConfigFilePath = "config.json" // the file path for the node configuration

	// DefaultProgramID is the address the pool program accounts are derived from
	DefaultProgramID = "6aaiUUVLjJaiqcdTRNcJy5Ekb8XQu3AY2nfB3q2KhvzH"
	// DefaultValidator is the rollup validator accounts are delegated to when none is given
	DefaultValidator = "MAS1Dt9qreoRMQ14YQuhg8UTZMMzDdKhmkZMECCzk57"
)

// Config is the structure of the user configuration options for a pool node
type Config struct {
	MainConfig     // main options spanning over all modules
	RPCConfig      // rpc API options
	StoreConfig    // persistence options
	RollupConfig   // delegation and commit options
	DispatchConfig // follow-up delivery options
	MetricsConfig  // telemetry options
}

// DefaultConfig() returns a Config with developer set options
func DefaultConfig() Config {
	return Config{
		MainConfig:     DefaultMainConfig(),
		RPCConfig:      DefaultRPCConfig(),
		StoreConfig:    DefaultStoreConfig(),
		RollupConfig:   DefaultRollupConfig(),
		DispatchConfig: DefaultDispatchConfig(),
		MetricsConfig:  DefaultMetricsConfig(),
	}
}

// MAIN CONFIG BELOW

type MainConfig struct {
	LogLevel string `json:"logLevel"` // any level includes the levels above it: debug < info < warning < error
}

// DefaultMainConfig() sets log level to 'info'
func DefaultMainConfig() MainConfig {
	return MainConfig{
		LogLevel: "info", // everything but debug is the default
	}
}

// GetLogLevel() parses the log string in the config file into a LogLevel Enum
func (m *MainConfig) GetLogLevel() int32 {
	switch {
	case strings.Contains(strings.ToLower(m.LogLevel), "deb"):
		return DebugLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "inf"):
		return InfoLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "war"):
		return WarnLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "err"):
		return ErrorLevel
	default:
		return DebugLevel
	}
}

// RPC CONFIG BELOW

type RPCConfig struct {
	RPCPort         string `json:"rpcPort"`         // the port where the query rpc server is hosted
	AdminPort       string `json:"adminPort"`       // the port where the admin rpc server is hosted
	RPCUrl          string `json:"rpcURL"`          // the url where the query rpc server is hosted
	AdminRPCUrl     string `json:"adminRPCUrl"`     // the url where the admin rpc server is hosted
	TimeoutS        int    `json:"timeoutS"`        // the rpc request timeout in seconds
	MaxRequestBytes int64  `json:"maxRequestBytes"` // the largest request body the rpc accepts
}

// DefaultRPCConfig() sets rpc url to localhost and sets rpc and admin ports to 50002 and 50003
func DefaultRPCConfig() RPCConfig {
	return RPCConfig{
		RPCPort:         "50002",                  // the rpc is served on localhost:50002
		AdminPort:       "50003",                  // the admin rpc is served on localhost:50003
		RPCUrl:          "http://localhost:50002", // use a local rpc by default
		AdminRPCUrl:     "http://localhost:50003", // use a local admin rpc by default
		TimeoutS:        3,                        // the rpc timeout is 3 seconds
		MaxRequestBytes: int64(units.MiB),         // 1 MiB request bodies
	}
}

// STORE CONFIG BELOW

// StoreConfig is user configurations for the key value databases
type StoreConfig struct {
	DataDirPath  string `json:"dataDirPath"`  // path of the designated folder where the application stores its data
	BaseDBName   string `json:"baseDBName"`   // name of the base ledger database
	RollupDBName string `json:"rollupDBName"` // name of the delegated context database
	InMemory     bool   `json:"inMemory"`     // non-disk database, only for testing
}

// DefaultDataDirPath() is $USERHOME/.rollup-pool
func DefaultDataDirPath() string {
	// get the user home
	home, err := os.UserHomeDir()
	// if unable to get the user home
	if err != nil {
		// fatal error
		panic(err)
	}
	// exit with full default data directory path
	return filepath.Join(home, ".rollup-pool")
}

// DefaultStoreConfig() returns the developer recommended store configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DataDirPath:  DefaultDataDirPath(), // use the default data dir path
		BaseDBName:   "base",               // 'base' ledger database name
		RollupDBName: "rollup",             // 'rollup' delegated context database name
		InMemory:     false,                // persist to disk, not memory
	}
}

// ROLLUP CONFIG BELOW

// RollupConfig controls account delegation and the periodic commit scheduler
type RollupConfig struct {
	ProgramID                string `json:"programID"`                // base58 address every pool account is derived from
	Admin                    string `json:"admin"`                    // base58 key allowed to create pools and toggle their status
	DefaultCommitFrequencyMS uint32 `json:"defaultCommitFrequencyMS"` // commit cadence used when a delegation doesn't set one
	DefaultValidator         string `json:"defaultValidator"`         // rollup validator used when a delegation doesn't set one
	SchedulerTickMS          uint64 `json:"schedulerTickMS"`          // how often the scheduler looks for accounts due for commit
}

// DefaultRollupConfig() returns the default delegation options
func DefaultRollupConfig() RollupConfig {
	return RollupConfig{
		ProgramID:                DefaultProgramID,
		DefaultCommitFrequencyMS: 30_000, // commit delegated accounts every 30 seconds
		DefaultValidator:         DefaultValidator,
		SchedulerTickMS:          1_000, // check for due commits every second
	}
}

// DISPATCH CONFIG BELOW

// DispatchConfig controls how follow-up instructions are delivered to the base context
type DispatchConfig struct {
	ComputeUnits      uint32  `json:"computeUnits"`      // compute budget attached to each follow-up
	RetryInitialMS    uint64  `json:"retryInitialMS"`    // first backoff interval for a failed delivery
	RetryMaxMS        uint64  `json:"retryMaxMS"`        // largest backoff interval for a failed delivery
	MaxAttempts       uint64  `json:"maxAttempts"`       // attempts per drain before the intent is left for the next drain
	DeliveriesPerSec  float64 `json:"deliveriesPerSec"`  // delivery rate limit
	DeliveryBurst     int     `json:"deliveryBurst"`     // delivery rate limit burst
	PollIntervalMS    uint64  `json:"pollIntervalMS"`    // how often the worker drains the outbox when idle
	MaxDeliveryPerRun int     `json:"maxDeliveryPerRun"` // intents delivered per drain
}

// DefaultDispatchConfig() returns the default delivery options
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		ComputeUnits:      200_000,
		RetryInitialMS:    100,
		RetryMaxMS:        5_000,
		MaxAttempts:       5,
		DeliveriesPerSec:  50,
		DeliveryBurst:     10,
		PollIntervalMS:    250,
		MaxDeliveryPerRun: 100,
	}
}

// MetricsConfig represents the configuration for the metrics server
type MetricsConfig struct {
	Enabled           bool   `json:"enabled"`           // if the metrics are enabled
	PrometheusAddress string `json:"prometheusAddress"` // the address of the server
}

// DefaultMetricsConfig() returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:           true,           // enabled by default
		PrometheusAddress: "0.0.0.0:9090", // the default prometheus address
	}
}

// WriteToFile() saves the Config object to a JSON file
func (c Config) WriteToFile(filepath string) error {
	// convert the config to indented 'pretty' json bytes
	jsonBytes, err := json.MarshalIndent(c, "", "  ")
	// if an error occurred during the conversion
	if err != nil {
		// exit with error
		return err
	}
	// write the config.json file to the data directory
	return os.WriteFile(filepath, jsonBytes, os.ModePerm)
}

// NewConfigFromFile() populates a Config object from a JSON file
func NewConfigFromFile(filepath string) (Config, error) {
	// read the file into bytes using
	fileBytes, err := os.ReadFile(filepath)
	// if an error occurred
	if err != nil {
		// exit with error
		return Config{}, err
	}
	// define the default config to fill in any blanks in the file
	c := DefaultConfig()
	// populate the default config with the file bytes
	if err = json.Unmarshal(fileBytes, &c); err != nil {
		// exit with error
		return Config{}, err
	}
	// exit
	return c, nil
}
