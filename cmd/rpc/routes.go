package rpc

import (
	"net/http"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/julienschmidt/httprouter"
)

// Pool node RPC Paths
const (
	VersionRoutePath         = "/v1/"
	PoolRoutePath            = "/v1/query/pool"
	PoolsRoutePath           = "/v1/query/pools"
	ProviderRoutePath        = "/v1/query/provider"
	DepositReceiptRoutePath  = "/v1/query/deposit-receipt"
	WithdrawReceiptRoutePath = "/v1/query/withdraw-receipt"
	DelegationRoutePath      = "/v1/query/delegation"
	BalanceRoutePath         = "/v1/query/balance"
	OutboxRoutePath          = "/v1/query/outbox"
	QuoteDepositRoutePath    = "/v1/query/quote-deposit"
	QuoteWithdrawRoutePath   = "/v1/query/quote-withdraw"
	// admin
	TxInitPoolRoutePath          = "/v1/admin/tx-init-pool"
	TxSetPoolStatusRoutePath     = "/v1/admin/tx-set-pool-status"
	TxInitProviderRoutePath      = "/v1/admin/tx-init-provider"
	TxDelegateRoutePath          = "/v1/admin/tx-delegate"
	TxDepositRoutePath           = "/v1/admin/tx-deposit"
	TxAddLiquidityERRoutePath    = "/v1/admin/tx-add-liquidity-er"
	TxCommitDepositRoutePath     = "/v1/admin/tx-commit-deposit"
	TxWithdrawRoutePath          = "/v1/admin/tx-withdraw"
	TxRemoveLiquidityERRoutePath = "/v1/admin/tx-remove-liquidity-er"
	TxCommitWithdrawRoutePath    = "/v1/admin/tx-commit-withdraw"
	TxCommitRoutePath            = "/v1/admin/tx-commit"
	TxUndelegateRoutePath        = "/v1/admin/tx-undelegate"
	TxFaucetRoutePath            = "/v1/admin/tx-faucet"
	ConfigRoutePath              = "/v1/admin/config"
	LogsRoutePath                = "/v1/admin/log"
)

const (
	VersionRouteName         = "version"
	PoolRouteName            = "pool"
	PoolsRouteName           = "pools"
	ProviderRouteName        = "provider"
	DepositReceiptRouteName  = "deposit-receipt"
	WithdrawReceiptRouteName = "withdraw-receipt"
	DelegationRouteName      = "delegation"
	BalanceRouteName         = "balance"
	OutboxRouteName          = "outbox"
	QuoteDepositRouteName    = "quote-deposit"
	QuoteWithdrawRouteName   = "quote-withdraw"
	// admin
	TxInitPoolRouteName          = "tx-init-pool"
	TxSetPoolStatusRouteName     = "tx-set-pool-status"
	TxInitProviderRouteName      = "tx-init-provider"
	TxDelegateRouteName          = "tx-delegate"
	TxDepositRouteName           = "tx-deposit"
	TxAddLiquidityERRouteName    = "tx-add-liquidity-er"
	TxCommitDepositRouteName     = "tx-commit-deposit"
	TxWithdrawRouteName          = "tx-withdraw"
	TxRemoveLiquidityERRouteName = "tx-remove-liquidity-er"
	TxCommitWithdrawRouteName    = "tx-commit-withdraw"
	TxCommitRouteName            = "tx-commit"
	TxUndelegateRouteName        = "tx-undelegate"
	TxFaucetRouteName            = "tx-faucet"
	ConfigRouteName              = "config"
	LogsRouteName                = "logs"
)

// routes contains the method and path for a route
type routes map[string]struct {
	Method string
	Path   string
}

// routePaths is a mapping from route names to their corresponding HTTP methods and paths
var routePaths = routes{
	VersionRouteName:         {Method: http.MethodGet, Path: VersionRoutePath},
	PoolRouteName:            {Method: http.MethodPost, Path: PoolRoutePath},
	PoolsRouteName:           {Method: http.MethodPost, Path: PoolsRoutePath},
	ProviderRouteName:        {Method: http.MethodPost, Path: ProviderRoutePath},
	DepositReceiptRouteName:  {Method: http.MethodPost, Path: DepositReceiptRoutePath},
	WithdrawReceiptRouteName: {Method: http.MethodPost, Path: WithdrawReceiptRoutePath},
	DelegationRouteName:      {Method: http.MethodPost, Path: DelegationRoutePath},
	BalanceRouteName:         {Method: http.MethodPost, Path: BalanceRoutePath},
	OutboxRouteName:          {Method: http.MethodPost, Path: OutboxRoutePath},
	QuoteDepositRouteName:    {Method: http.MethodPost, Path: QuoteDepositRoutePath},
	QuoteWithdrawRouteName:   {Method: http.MethodPost, Path: QuoteWithdrawRoutePath},
	// admin
	TxInitPoolRouteName:          {Method: http.MethodPost, Path: TxInitPoolRoutePath},
	TxSetPoolStatusRouteName:     {Method: http.MethodPost, Path: TxSetPoolStatusRoutePath},
	TxInitProviderRouteName:      {Method: http.MethodPost, Path: TxInitProviderRoutePath},
	TxDelegateRouteName:          {Method: http.MethodPost, Path: TxDelegateRoutePath},
	TxDepositRouteName:           {Method: http.MethodPost, Path: TxDepositRoutePath},
	TxAddLiquidityERRouteName:    {Method: http.MethodPost, Path: TxAddLiquidityERRoutePath},
	TxCommitDepositRouteName:     {Method: http.MethodPost, Path: TxCommitDepositRoutePath},
	TxWithdrawRouteName:          {Method: http.MethodPost, Path: TxWithdrawRoutePath},
	TxRemoveLiquidityERRouteName: {Method: http.MethodPost, Path: TxRemoveLiquidityERRoutePath},
	TxCommitWithdrawRouteName:    {Method: http.MethodPost, Path: TxCommitWithdrawRoutePath},
	TxCommitRouteName:            {Method: http.MethodPost, Path: TxCommitRoutePath},
	TxUndelegateRouteName:        {Method: http.MethodPost, Path: TxUndelegateRoutePath},
	TxFaucetRouteName:            {Method: http.MethodPost, Path: TxFaucetRoutePath},
	ConfigRouteName:              {Method: http.MethodGet, Path: ConfigRoutePath},
	LogsRouteName:                {Method: http.MethodGet, Path: LogsRoutePath},
}

// httpRouteHandlers is a custom type that maps strings to httprouter handle functions
type httpRouteHandlers map[string]httprouter.Handle

// createRouter initializes and returns a new HTTP router with the query route handlers
func createRouter(s *Server) *httprouter.Router {
	return newRouter(httpRouteHandlers{
		VersionRouteName:         s.Version,
		PoolRouteName:            s.Pool,
		PoolsRouteName:           s.Pools,
		ProviderRouteName:        s.Provider,
		DepositReceiptRouteName:  s.DepositReceipt,
		WithdrawReceiptRouteName: s.WithdrawReceipt,
		DelegationRouteName:      s.Delegation,
		BalanceRouteName:         s.Balance,
		OutboxRouteName:          s.Outbox,
		QuoteDepositRouteName:    s.QuoteDeposit,
		QuoteWithdrawRouteName:   s.QuoteWithdraw,
	}, s.logger)
}

// createAdminRouter initializes and returns a new HTTP router with the admin route handlers
func createAdminRouter(s *Server) *httprouter.Router {
	return newRouter(httpRouteHandlers{
		TxInitPoolRouteName:          s.TransactionInitPool,
		TxSetPoolStatusRouteName:     s.TransactionSetPoolStatus,
		TxInitProviderRouteName:      s.TransactionInitProvider,
		TxDelegateRouteName:          s.TransactionDelegate,
		TxDepositRouteName:           s.TransactionDeposit,
		TxAddLiquidityERRouteName:    s.TransactionAddLiquidityER,
		TxCommitDepositRouteName:     s.TransactionCommitDeposit,
		TxWithdrawRouteName:          s.TransactionWithdraw,
		TxRemoveLiquidityERRouteName: s.TransactionRemoveLiquidityER,
		TxCommitWithdrawRouteName:    s.TransactionCommitWithdraw,
		TxCommitRouteName:            s.TransactionCommit,
		TxUndelegateRouteName:        s.TransactionUndelegate,
		TxFaucetRouteName:            s.TransactionFaucet,
		ConfigRouteName:              s.Config,
		LogsRouteName:                logsHandler(s),
	}, s.logger)
}

// newRouter() registers each handler at its configured method and path
func newRouter(r httpRouteHandlers, log lib.LoggerI) *httprouter.Router {
	// Initialize a new router using the httprouter package.
	router := httprouter.New()
	for name, handler := range r {
		// Retrieve the path configuration for the current route name.
		path := routePaths[name]
		// Add the handler for the specific path and HTTP method to the router.
		router.Handle(path.Method, path.Path, logHandler{path: path.Path, h: handler, log: log}.Handle)
	}
	return router
}
