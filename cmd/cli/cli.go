package cli

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/canopy-network/rollup-pool/cmd/rpc"
	"github.com/canopy-network/rollup-pool/controller"
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/canopy-network/rollup-pool/store"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rootCmd = &cobra.Command{
	Use:   "rollup-pool",
	Short: "a liquidity pool node with a base ledger and a delegated rollup context",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(rpc.SoftwareVersion)
	},
}

var (
	client, config, l = &rpc.Client{}, lib.Config{}, lib.LoggerI(nil)
	DataDir           = ""
)

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.PersistentFlags().StringVar(&DataDir, "data-dir", lib.DefaultDataDirPath(), "custom data directory location")
	// the data directory is only known once the flags are parsed
	cobra.OnInitialize(func() {
		config = InitializeDataDirectory(DataDir, lib.NewDefaultLogger())
		l = lib.NewLogger(lib.LoggerConfig{Level: config.GetLogLevel()}, config.DataDirPath)
		client = rpc.NewClient(config.RPCUrl, config.AdminRPCUrl, time.Duration(config.TimeoutS)*time.Second)
	})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "start the pool node",
	Run: func(cmd *cobra.Command, args []string) {
		Start()
	},
}

// Start() is the entrypoint of the application
func Start() {
	// initialize the metrics server
	metrics := lib.NewMetricsServer(config.MetricsConfig, l)
	// open the base ledger and the delegated context databases
	baseDB, err := store.New(config.StoreConfig, config.BaseDBName, l)
	if err != nil {
		l.Fatal(err.Error())
	}
	rollupDB, err := store.New(config.StoreConfig, config.RollupDBName, l)
	if err != nil {
		l.Fatal(err.Error())
	}
	// create a new instance of the application
	app, err := controller.New(config, baseDB, rollupDB, metrics, l)
	if err != nil {
		l.Fatal(err.Error())
	}
	// initialize the rpc server
	rpcServer := rpc.NewServer(app, config, l)
	// start the metrics server
	metrics.Start()
	// start the application
	app.Start()
	// start the rpc server
	rpcServer.Start()
	// block until a kill signal is received
	waitForKill()
	// gracefully stop the app
	app.Stop()
	// gracefully stop the metrics server
	metrics.Stop()
	// exit
	os.Exit(0)
}

// waitForKill() blocks until a kill signal is received
func waitForKill() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGABRT)
	// block until kill signal is received
	s := <-stop
	l.Infof("Exit command %s received", s)
}

// InitializeDataDirectory() populates the data directory with the configuration file if missing
func InitializeDataDirectory(dataDirPath string, log lib.LoggerI) (c lib.Config) {
	// make the data dir if missing
	if err := os.MkdirAll(dataDirPath, os.ModePerm); err != nil {
		log.Fatal(err.Error())
	}
	// make the config.json file if missing
	configFilePath := filepath.Join(dataDirPath, lib.ConfigFilePath)
	if _, err := os.Stat(configFilePath); errors.Is(err, os.ErrNotExist) {
		log.Infof("Creating %s file", lib.ConfigFilePath)
		defaults := lib.DefaultConfig()
		defaults.DataDirPath = dataDirPath
		if err = defaults.WriteToFile(configFilePath); err != nil {
			log.Fatal(err.Error())
		}
	}
	// load the config object
	c, err := lib.NewConfigFromFile(configFilePath)
	if err != nil {
		log.Fatal(err.Error())
	}
	c.DataDirPath = dataDirPath
	return
}

// writeToConsole() prints a query result: amounts with digit grouping, everything else as json
func writeToConsole(a any, err error) {
	if err != nil {
		l.Fatal(err.Error())
	}
	switch a.(type) {
	case int, uint32, uint64:
		p := message.NewPrinter(language.English)
		if _, err := p.Printf("%d\n", a); err != nil {
			l.Fatal(err.Error())
		}
	case string, *string:
		fmt.Println(a)
	default:
		s, err := lib.MarshalJSONIndentString(a)
		if err != nil {
			l.Fatal(err.Error())
		}
		fmt.Println(s)
	}
}
