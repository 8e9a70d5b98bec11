package fsm

import (
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/* This file implements reading and writing the program accounts of the state */

// accountLayout describes how one account type is stored
type accountLayout struct {
	name          string
	discriminator lib.Discriminator
	space         int
}

var (
	poolLayout              = accountLayout{"pool", poolDiscriminator, PoolSpace}
	liquidityProviderLayout = accountLayout{"liquidity provider", liquidityProviderDiscriminator, LiquidityProviderSpace}
	depositReceiptLayout    = accountLayout{"deposit receipt", depositReceiptDiscriminator, DepositReceiptSpace}
	withdrawReceiptLayout   = accountLayout{"withdraw receipt", withdrawReceiptDiscriminator, WithdrawReceiptSpace}
)

// getAccount() decodes an account into ptr, returning false if it doesn't exist
func (s *StateMachine) getAccount(address solana.PublicKey, layout accountLayout, ptr any) (found bool, err lib.ErrorI) {
	bz, err := s.Get(lib.KeyForAccount(address))
	if err != nil || bz == nil {
		return false, err
	}
	// validate the fixed size and the type tag before decoding
	if len(bz) != layout.space {
		return false, ErrAccountSize(layout.name, len(bz), layout.space)
	}
	if !lib.HasDiscriminator(layout.discriminator, bz) {
		return false, ErrInvalidDiscriminator()
	}
	if err = lib.UnmarshalAccount(layout.discriminator, bz, ptr); err != nil {
		return false, err
	}
	return true, nil
}

// setAccount() encodes an account to its fixed size and writes it
func (s *StateMachine) setAccount(address solana.PublicKey, layout accountLayout, v any) lib.ErrorI {
	bz, err := lib.MarshalAccount(layout.discriminator, layout.space, v)
	if err != nil {
		return err
	}
	return s.Set(lib.KeyForAccount(address), bz)
}

// accountExists() returns true if any account lives at the address
func (s *StateMachine) accountExists(address solana.PublicKey) (bool, lib.ErrorI) {
	bz, err := s.Get(lib.KeyForAccount(address))
	return bz != nil, err
}

// GetPool() returns the pool at an address
func (s *StateMachine) GetPool(address solana.PublicKey) (*Pool, lib.ErrorI) {
	pool := new(Pool)
	found, err := s.getAccount(address, poolLayout, pool)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrAccountNotFound(poolLayout.name, address)
	}
	return pool, nil
}

// GetPoolByName() returns the address and the pool with a name
func (s *StateMachine) GetPoolByName(name string) (solana.PublicKey, *Pool, lib.ErrorI) {
	address, _, err := lib.PoolAddress(s.programID, name)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	pool, err := s.GetPool(address)
	return address, pool, err
}

// SetPool() writes the pool at an address
func (s *StateMachine) SetPool(address solana.PublicKey, pool *Pool) lib.ErrorI {
	return s.setAccount(address, poolLayout, pool)
}

// PoolWithAddress is a pool alongside the address it lives at
type PoolWithAddress struct {
	Address solana.PublicKey `json:"address"`
	*Pool
}

// GetPools() returns every pool in the state
func (s *StateMachine) GetPools() (pools []*PoolWithAddress, err lib.ErrorI) {
	err = s.IterateAndExecute(lib.AccountPrefix(), func(key, value []byte) lib.ErrorI {
		if !lib.HasDiscriminator(poolDiscriminator, value) {
			return nil
		}
		segments := lib.DecodeLengthPrefixed(key)
		if len(segments) != 2 {
			return nil
		}
		pool := new(Pool)
		if e := lib.UnmarshalAccount(poolDiscriminator, value, pool); e != nil {
			return e
		}
		pools = append(pools, &PoolWithAddress{Address: solana.PublicKeyFromBytes(segments[1]), Pool: pool})
		return nil
	})
	return
}

// GetLiquidityProvider() returns the position record of an owner
func (s *StateMachine) GetLiquidityProvider(owner solana.PublicKey) (solana.PublicKey, *LiquidityProvider, lib.ErrorI) {
	address, _, err := lib.LiquidityProviderAddress(s.programID, owner)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	lp := new(LiquidityProvider)
	found, err := s.getAccount(address, liquidityProviderLayout, lp)
	if err != nil {
		return address, nil, err
	}
	if !found {
		return address, nil, ErrAccountNotFound(liquidityProviderLayout.name, address)
	}
	return address, lp, nil
}

// SetLiquidityProvider() writes the position record at an address
func (s *StateMachine) SetLiquidityProvider(address solana.PublicKey, lp *LiquidityProvider) lib.ErrorI {
	return s.setAccount(address, liquidityProviderLayout, lp)
}
