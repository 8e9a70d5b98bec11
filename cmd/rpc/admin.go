package rpc

import (
	"net/http"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
	"github.com/julienschmidt/httprouter"
)

// receipt kinds accepted by the delegate transaction
const (
	depositReceipt  = "deposit"
	withdrawReceipt = "withdraw"
)

// TransactionInitPool creates a pool
func (s *Server) TransactionInitPool(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txInitPoolRequest)
	s.txHandler(w, r, req, TxInitPoolRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		address, err := s.controller.InitPool(req.Signer, req.AddPoolParams)
		return &address, err
	})
}

// TransactionSetPoolStatus pauses or resumes a pool
func (s *Server) TransactionSetPoolStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txSetPoolStatusRequest)
	s.txHandler(w, r, req, TxSetPoolStatusRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		return nil, s.controller.SetPoolStatus(req.Signer, req.Pool, req.Paused, req.Migrating)
	})
}

// TransactionInitProvider creates the position record of a provider
func (s *Server) TransactionInitProvider(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txProviderRequest)
	s.txHandler(w, r, req, TxInitProviderRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		address, err := s.controller.InitProvider(req.Provider)
		return &address, err
	})
}

// TransactionDelegate delegates accounts to the delegated context
func (s *Server) TransactionDelegate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txDelegateRequest)
	s.txHandler(w, r, req, TxDelegateRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		switch req.Receipt {
		case "":
			return nil, s.controller.Delegate(req.DelegateConfig, req.Accounts...)
		case depositReceipt:
			return nil, s.controller.DelegateDeposit(req.Provider, req.Pool, req.DelegateConfig)
		case withdrawReceipt:
			return nil, s.controller.DelegateWithdraw(req.Provider, req.Pool, req.DelegateConfig)
		default:
			return nil, ErrInvalidReceiptKind(req.Receipt)
		}
	})
}

// TransactionDeposit escrows a deposit and writes its receipt
func (s *Server) TransactionDeposit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txDepositRequest)
	s.txHandler(w, r, req, TxDepositRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		receipt, err := s.controller.Deposit(req.Provider, req.Pool, req.AmountA, req.AmountB, req.MinLpTokens)
		return &receipt, err
	})
}

// TransactionAddLiquidityER applies a deposit receipt in the delegated context
func (s *Server) TransactionAddLiquidityER(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txProviderRequest)
	s.txHandler(w, r, req, TxAddLiquidityERRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		return nil, s.controller.AddLiquidityDelegated(req.Provider, req.Pool)
	})
}

// TransactionCommitDeposit commits an applied deposit and queues its follow-ups
func (s *Server) TransactionCommitDeposit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txProviderRequest)
	s.txHandler(w, r, req, TxCommitDepositRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		return nil, s.controller.CommitDeposit(req.Provider, req.Pool)
	})
}

// TransactionWithdraw burns lp tokens and writes the withdraw receipt
func (s *Server) TransactionWithdraw(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txWithdrawRequest)
	s.txHandler(w, r, req, TxWithdrawRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		receipt, err := s.controller.Withdraw(req.Provider, req.Pool, req.LpTokens, req.MinAmountA, req.MinAmountB)
		return &receipt, err
	})
}

// TransactionRemoveLiquidityER applies a withdraw receipt in the delegated context
func (s *Server) TransactionRemoveLiquidityER(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txProviderRequest)
	s.txHandler(w, r, req, TxRemoveLiquidityERRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		return nil, s.controller.RemoveLiquidityDelegated(req.Provider, req.Pool)
	})
}

// TransactionCommitWithdraw commits an applied withdrawal and queues its follow-ups
func (s *Server) TransactionCommitWithdraw(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txProviderRequest)
	s.txHandler(w, r, req, TxCommitWithdrawRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		return nil, s.controller.CommitWithdraw(req.Provider, req.Pool)
	})
}

// TransactionCommit commits delegated accounts without releasing them
func (s *Server) TransactionCommit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txAccountsRequest)
	s.txHandler(w, r, req, TxCommitRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		return nil, s.controller.Commit(req.Accounts...)
	})
}

// TransactionUndelegate commits delegated accounts and returns them to the base context
func (s *Server) TransactionUndelegate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txAccountsRequest)
	s.txHandler(w, r, req, TxUndelegateRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		return nil, s.controller.Undelegate(req.Accounts...)
	})
}

// TransactionFaucet mints test tokens to an owner
func (s *Server) TransactionFaucet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(txFaucetRequest)
	s.txHandler(w, r, req, TxFaucetRouteName, func() (*solana.PublicKey, lib.ErrorI) {
		if req.Mint.IsZero() || req.Owner.IsZero() {
			return nil, ErrMissingParam("mint and owner")
		}
		account, err := lib.TokenAccountAddress(req.Owner, req.Mint)
		if err != nil {
			return nil, err
		}
		return &account, s.controller.Faucet(req.Mint, req.Owner, req.Amount)
	})
}

// Config responds with the node configuration
func (s *Server) Config(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, s.config, http.StatusOK)
}

// txHandler is a helper function to abstract common workflows around executing an admin instruction
func (s *Server) txHandler(w http.ResponseWriter, r *http.Request, req any, name string, callback func() (*solana.PublicKey, lib.ErrorI)) {
	if ok := s.unmarshal(w, r, req); !ok {
		return
	}
	address, err := callback()
	if err != nil {
		s.logger.Warnf("Instruction %s failed with err: %s", name, err.Error())
		write(w, err, http.StatusBadRequest)
		return
	}
	write(w, &TxResult{Instruction: name, Address: address}, http.StatusOK)
}
