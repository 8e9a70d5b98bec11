package rpc

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/canopy-network/rollup-pool/delegation"
	"github.com/canopy-network/rollup-pool/dispatch"
	"github.com/canopy-network/rollup-pool/fsm"
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

type Client struct {
	rpcURL   string
	adminURL string
	client   http.Client
}

func NewClient(rpcURL, adminURL string, timeout time.Duration) *Client {
	return &Client{rpcURL: rpcURL, adminURL: adminURL, client: http.Client{Timeout: timeout}}
}

func (c *Client) Version() (version *string, err lib.ErrorI) {
	version = new(string)
	err = c.get(VersionRouteName, version)
	return
}

func (c *Client) Pool(address solana.PublicKey) (p *PoolResult, err lib.ErrorI) {
	p = new(PoolResult)
	err = c.request(PoolRouteName, poolRequest{Address: address}, p)
	return
}

func (c *Client) PoolByName(name string) (p *PoolResult, err lib.ErrorI) {
	p = new(PoolResult)
	err = c.request(PoolRouteName, poolRequest{Name: name}, p)
	return
}

func (c *Client) Pools() (p []*PoolResult, err lib.ErrorI) {
	err = c.request(PoolsRouteName, struct{}{}, &p)
	return
}

func (c *Client) Provider(owner solana.PublicKey) (p *fsm.LiquidityProvider, err lib.ErrorI) {
	p = new(fsm.LiquidityProvider)
	err = c.request(ProviderRouteName, ownerRequest{Owner: owner}, p)
	return
}

func (c *Client) DepositReceipt(owner solana.PublicKey) (p *fsm.DepositReceipt, err lib.ErrorI) {
	err = c.request(DepositReceiptRouteName, ownerRequest{Owner: owner}, &p)
	return
}

func (c *Client) WithdrawReceipt(owner solana.PublicKey) (p *fsm.WithdrawReceipt, err lib.ErrorI) {
	err = c.request(WithdrawReceiptRouteName, ownerRequest{Owner: owner}, &p)
	return
}

func (c *Client) Delegation(account solana.PublicKey) (p *delegation.Delegation, err lib.ErrorI) {
	p = new(delegation.Delegation)
	err = c.request(DelegationRouteName, accountRequest{Account: account}, p)
	return
}

func (c *Client) Balance(owner, mint solana.PublicKey) (p *BalanceResult, err lib.ErrorI) {
	p = new(BalanceResult)
	err = c.request(BalanceRouteName, balanceRequest{ownerRequest: ownerRequest{owner}, Mint: mint}, p)
	return
}

func (c *Client) Outbox(limit int) (p []*dispatch.Intent, err lib.ErrorI) {
	err = c.request(OutboxRouteName, limitRequest{Limit: limit}, &p)
	return
}

func (c *Client) QuoteDeposit(pool solana.PublicKey, amountA, amountB uint64) (p *QuoteDepositResult, err lib.ErrorI) {
	p = new(QuoteDepositResult)
	err = c.request(QuoteDepositRouteName, quoteDepositRequest{poolRequest: poolRequest{Address: pool}, AmountA: amountA, AmountB: amountB}, p)
	return
}

func (c *Client) QuoteWithdraw(pool solana.PublicKey, lpTokens uint64) (p *QuoteWithdrawResult, err lib.ErrorI) {
	p = new(QuoteWithdrawResult)
	err = c.request(QuoteWithdrawRouteName, quoteWithdrawRequest{poolRequest: poolRequest{Address: pool}, LpTokens: lpTokens}, p)
	return
}

func (c *Client) TxInitPool(signer solana.PublicKey, params fsm.AddPoolParams) (*TxResult, lib.ErrorI) {
	return c.tx(TxInitPoolRouteName, txInitPoolRequest{Signer: signer, AddPoolParams: params})
}

func (c *Client) TxSetPoolStatus(signer, pool solana.PublicKey, paused, migrating bool) (*TxResult, lib.ErrorI) {
	return c.tx(TxSetPoolStatusRouteName, txSetPoolStatusRequest{Signer: signer, Pool: pool, Paused: paused, Migrating: migrating})
}

func (c *Client) TxInitProvider(provider solana.PublicKey) (*TxResult, lib.ErrorI) {
	return c.tx(TxInitProviderRouteName, txProviderRequest{Provider: provider})
}

func (c *Client) TxDelegate(config delegation.DelegateConfig, accounts ...solana.PublicKey) (*TxResult, lib.ErrorI) {
	return c.tx(TxDelegateRouteName, txDelegateRequest{Accounts: accounts, DelegateConfig: config})
}

func (c *Client) TxDelegateDeposit(provider, pool solana.PublicKey, config delegation.DelegateConfig) (*TxResult, lib.ErrorI) {
	return c.tx(TxDelegateRouteName, txDelegateRequest{Receipt: depositReceipt, txProviderRequest: txProviderRequest{provider, pool}, DelegateConfig: config})
}

func (c *Client) TxDelegateWithdraw(provider, pool solana.PublicKey, config delegation.DelegateConfig) (*TxResult, lib.ErrorI) {
	return c.tx(TxDelegateRouteName, txDelegateRequest{Receipt: withdrawReceipt, txProviderRequest: txProviderRequest{provider, pool}, DelegateConfig: config})
}

func (c *Client) TxDeposit(provider, pool solana.PublicKey, amountA, amountB, minLpTokens uint64) (*TxResult, lib.ErrorI) {
	return c.tx(TxDepositRouteName, txDepositRequest{
		txProviderRequest: txProviderRequest{provider, pool},
		AmountA:           amountA,
		AmountB:           amountB,
		MinLpTokens:       minLpTokens,
	})
}

func (c *Client) TxAddLiquidityER(provider, pool solana.PublicKey) (*TxResult, lib.ErrorI) {
	return c.tx(TxAddLiquidityERRouteName, txProviderRequest{provider, pool})
}

func (c *Client) TxCommitDeposit(provider, pool solana.PublicKey) (*TxResult, lib.ErrorI) {
	return c.tx(TxCommitDepositRouteName, txProviderRequest{provider, pool})
}

func (c *Client) TxWithdraw(provider, pool solana.PublicKey, lpTokens, minAmountA, minAmountB uint64) (*TxResult, lib.ErrorI) {
	return c.tx(TxWithdrawRouteName, txWithdrawRequest{
		txProviderRequest: txProviderRequest{provider, pool},
		LpTokens:          lpTokens,
		MinAmountA:        minAmountA,
		MinAmountB:        minAmountB,
	})
}

func (c *Client) TxRemoveLiquidityER(provider, pool solana.PublicKey) (*TxResult, lib.ErrorI) {
	return c.tx(TxRemoveLiquidityERRouteName, txProviderRequest{provider, pool})
}

func (c *Client) TxCommitWithdraw(provider, pool solana.PublicKey) (*TxResult, lib.ErrorI) {
	return c.tx(TxCommitWithdrawRouteName, txProviderRequest{provider, pool})
}

func (c *Client) TxCommit(accounts ...solana.PublicKey) (*TxResult, lib.ErrorI) {
	return c.tx(TxCommitRouteName, txAccountsRequest{Accounts: accounts})
}

func (c *Client) TxUndelegate(accounts ...solana.PublicKey) (*TxResult, lib.ErrorI) {
	return c.tx(TxUndelegateRouteName, txAccountsRequest{Accounts: accounts})
}

func (c *Client) TxFaucet(mint, owner solana.PublicKey, amount uint64) (*TxResult, lib.ErrorI) {
	return c.tx(TxFaucetRouteName, txFaucetRequest{Mint: mint, Owner: owner, Amount: amount})
}

func (c *Client) Config() (p *lib.Config, err lib.ErrorI) {
	p = new(lib.Config)
	err = c.get(ConfigRouteName, p, true)
	return
}

func (c *Client) tx(routeName string, request any) (p *TxResult, err lib.ErrorI) {
	p = new(TxResult)
	err = c.request(routeName, request, p, true)
	return
}

func (c *Client) request(routeName string, request any, ptr any, admin ...bool) (err lib.ErrorI) {
	bz, err := lib.MarshalJSON(request)
	if err != nil {
		return
	}
	err = c.post(routeName, bz, ptr, admin...)
	return
}

func (c *Client) url(routeName string, admin ...bool) string {
	if admin != nil && admin[0] {
		return c.adminURL + routePaths[routeName].Path
	}
	return c.rpcURL + routePaths[routeName].Path
}

func (c *Client) post(routeName string, json []byte, ptr any, admin ...bool) lib.ErrorI {
	resp, err := c.client.Post(c.url(routeName, admin...), ApplicationJSON, bytes.NewBuffer(json))
	if err != nil {
		return ErrPostRequest(err)
	}
	return c.unmarshal(resp, ptr)
}

func (c *Client) get(routeName string, ptr any, admin ...bool) lib.ErrorI {
	resp, err := c.client.Get(c.url(routeName, admin...))
	if err != nil {
		return ErrGetRequest(err)
	}
	return c.unmarshal(resp, ptr)
}

func (c *Client) unmarshal(resp *http.Response, ptr any) lib.ErrorI {
	defer func() { _ = resp.Body.Close() }()
	bz, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrReadBody(err)
	}
	if resp.StatusCode != http.StatusOK {
		return ErrHttpStatus(resp.Status, resp.StatusCode, bz)
	}
	return lib.UnmarshalJSON(bz, ptr)
}
