package delegation

import (
	"fmt"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

// State is the write authority of a program account
type State uint8

const (
	BaseOwned State = iota // the base context writes the account; the default when no record exists
	Delegated              // the rollup context writes the account
)

// String() returns the name of the state
func (s State) String() string {
	if s == Delegated {
		return "delegated"
	}
	return "base_owned"
}

// MarshalText() renders the state by name in json
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText() parses the state from its name
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "delegated":
		*s = Delegated
	case "base_owned":
		*s = BaseOwned
	default:
		return fmt.Errorf("unknown delegation state %q", text)
	}
	return nil
}

// DelegationSpace is the fixed size of a delegation record
const DelegationSpace = 101

var delegationDiscriminator = lib.AccountDiscriminator("Delegation")

// Delegation is the record of an account delegated to the rollup context
type Delegation struct {
	Account           solana.PublicKey `json:"account"`
	State             State            `json:"state"`
	CommitFrequencyMS uint32           `json:"commitFrequencyMS"` // how often the scheduler commits the account
	Validator         solana.PublicKey `json:"validator"`         // the rollup validator the account is delegated to
	DelegatedAt       int64            `json:"delegatedAt"`       // unix milliseconds
	LastCommitAt      int64            `json:"lastCommitAt"`      // unix milliseconds, 0 before the first commit
	Commits           uint64           `json:"commits"`
}

// DelegateConfig holds the options of a delegation; zero values fall back to the configured defaults
type DelegateConfig struct {
	CommitFrequencyMS uint32           `json:"commitFrequencyMS"`
	Validator         solana.PublicKey `json:"validator"`
}

// dueAt() returns the unix millisecond the delegation is next due for commit
func (d *Delegation) dueAt() int64 {
	last := d.LastCommitAt
	if last < d.DelegatedAt {
		last = d.DelegatedAt
	}
	return last + int64(d.CommitFrequencyMS)
}
