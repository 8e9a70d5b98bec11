package rpc

import (
	"net/http"

	"github.com/canopy-network/rollup-pool/fsm"
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
	"github.com/julienschmidt/httprouter"
)

// Version writes the software version information
func (s *Server) Version(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	write(w, SoftwareVersion, http.StatusOK)
}

// Pool responds with a pool selected by address or name
func (s *Server) Pool(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(poolRequest)
	s.poolParams(w, r, req, req, func(address solana.PublicKey) (any, lib.ErrorI) {
		pool, context, err := s.controller.Pool(address)
		if err != nil {
			return nil, err
		}
		return newPoolResult(address, context, pool), nil
	})
}

// Pools responds with every pool as committed to the base context
func (s *Server) Pools(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pools, err := s.controller.Pools()
	if err != nil {
		write(w, err, http.StatusBadRequest)
		return
	}
	results := make([]*PoolResult, 0, len(pools))
	for _, p := range pools {
		results = append(results, newPoolResult(p.Address, fsm.BaseContext, p.Pool))
	}
	write(w, results, http.StatusOK)
}

// Provider responds with the position record of an owner
func (s *Server) Provider(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.ownerParams(w, r, func(owner solana.PublicKey) (any, lib.ErrorI) {
		return s.controller.Provider(owner)
	})
}

// DepositReceipt responds with the in flight deposit receipt of an owner, null if there is none
func (s *Server) DepositReceipt(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.ownerParams(w, r, func(owner solana.PublicKey) (any, lib.ErrorI) {
		return s.controller.DepositReceipt(owner)
	})
}

// WithdrawReceipt responds with the in flight withdraw receipt of an owner, null if there is none
func (s *Server) WithdrawReceipt(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.ownerParams(w, r, func(owner solana.PublicKey) (any, lib.ErrorI) {
		return s.controller.WithdrawReceipt(owner)
	})
}

// Delegation responds with the delegation record of an account
func (s *Server) Delegation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(accountRequest)
	if ok := s.unmarshal(w, r, req); !ok {
		return
	}
	if req.Account.IsZero() {
		write(w, ErrMissingParam("account"), http.StatusBadRequest)
		return
	}
	respond(w, func() (any, lib.ErrorI) { return s.controller.GetDelegation(req.Account) })
}

// Balance responds with the token balance of an owner for a mint
func (s *Server) Balance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(balanceRequest)
	if ok := s.unmarshal(w, r, req); !ok {
		return
	}
	if req.Owner.IsZero() || req.Mint.IsZero() {
		write(w, ErrMissingParam("owner and mint"), http.StatusBadRequest)
		return
	}
	respond(w, func() (any, lib.ErrorI) {
		account, err := lib.TokenAccountAddress(req.Owner, req.Mint)
		if err != nil {
			return nil, err
		}
		amount, err := s.controller.Balance(req.Owner, req.Mint)
		if err != nil {
			return nil, err
		}
		return &BalanceResult{Owner: req.Owner, Mint: req.Mint, Account: account, Amount: amount}, nil
	})
}

// Outbox responds with the follow-ups waiting for delivery, oldest first
func (s *Server) Outbox(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(limitRequest)
	if ok := s.unmarshal(w, r, req); !ok {
		return
	}
	respond(w, func() (any, lib.ErrorI) { return s.controller.Outbox(req.Limit) })
}

// QuoteDeposit responds with the lp tokens a deposit would mint at the current reserves
func (s *Server) QuoteDeposit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(quoteDepositRequest)
	s.poolParams(w, r, req, &req.poolRequest, func(address solana.PublicKey) (any, lib.ErrorI) {
		lpTokens, pool, err := s.controller.QuoteDeposit(address, req.AmountA, req.AmountB)
		if err != nil {
			return nil, err
		}
		return &QuoteDepositResult{
			Pool:     address,
			LpTokens: lpTokens,
			Share:    ratio(lpTokens, pool.TotalLpSupply+lpTokens),
		}, nil
	})
}

// QuoteWithdraw responds with the amounts burning lp tokens would pay out at the current reserves
func (s *Server) QuoteWithdraw(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(quoteWithdrawRequest)
	s.poolParams(w, r, req, &req.poolRequest, func(address solana.PublicKey) (any, lib.ErrorI) {
		amountA, amountB, pool, err := s.controller.QuoteWithdraw(address, req.LpTokens)
		if err != nil {
			return nil, err
		}
		return &QuoteWithdrawResult{
			Pool:    address,
			AmountA: amountA,
			AmountB: amountB,
			Share:   ratio(req.LpTokens, pool.TotalLpSupply),
		}, nil
	})
}

// poolParams is a helper function to abstract common workflows around a callback requiring a pool
// the request body is unmarshalled into 'body', which is or embeds 'req'
func (s *Server) poolParams(w http.ResponseWriter, r *http.Request, body any, req *poolRequest, callback func(address solana.PublicKey) (any, lib.ErrorI)) {
	if ok := s.unmarshal(w, r, body); !ok {
		return
	}
	respond(w, func() (any, lib.ErrorI) {
		address := req.Address
		if address.IsZero() {
			if req.Name == "" {
				return nil, ErrMissingParam("address or name")
			}
			var err lib.ErrorI
			if address, _, err = lib.PoolAddress(s.controller.Base.ProgramID(), req.Name); err != nil {
				return nil, err
			}
		}
		return callback(address)
	})
}

// ownerParams is a helper function to abstract common workflows around a callback requiring an owner
func (s *Server) ownerParams(w http.ResponseWriter, r *http.Request, callback func(owner solana.PublicKey) (any, lib.ErrorI)) {
	req := new(ownerRequest)
	if ok := s.unmarshal(w, r, req); !ok {
		return
	}
	if req.Owner.IsZero() {
		write(w, ErrMissingParam("owner"), http.StatusBadRequest)
		return
	}
	respond(w, func() (any, lib.ErrorI) { return callback(req.Owner) })
}

// respond() writes the result of a callback, or its error as a bad request
func respond(w http.ResponseWriter, callback func() (any, lib.ErrorI)) {
	p, err := callback()
	if err != nil {
		write(w, err, http.StatusBadRequest)
		return
	}
	write(w, p, http.StatusOK)
}
