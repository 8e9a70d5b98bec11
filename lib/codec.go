package lib

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

/* This file implements the borsh codec of account records and instruction arguments */

// DiscriminatorLen is the size of the type tag every account and instruction starts with
const DiscriminatorLen = 8

// Discriminator is the 8 byte type tag of an account or instruction
type Discriminator [DiscriminatorLen]byte

// NewDiscriminator() returns sha256("<namespace>:<name>")[:8]
func NewDiscriminator(namespace, name string) (d Discriminator) {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	copy(d[:], sum[:DiscriminatorLen])
	return
}

// AccountDiscriminator() returns the type tag of an account record
func AccountDiscriminator(name string) Discriminator { return NewDiscriminator("account", name) }

// InstructionDiscriminator() returns the type tag of an instruction
func InstructionDiscriminator(name string) Discriminator { return NewDiscriminator("global", name) }

// Marshal() borsh encodes an object
func Marshal(v any) ([]byte, ErrorI) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, ErrMarshal(err)
	}
	return buf.Bytes(), nil
}

// Unmarshal() borsh decodes bytes into an object, trailing bytes are ignored
func Unmarshal(bz []byte, ptr any) ErrorI {
	if err := bin.NewBorshDecoder(bz).Decode(ptr); err != nil {
		return ErrUnmarshal(err)
	}
	return nil
}

// MarshalAccount() encodes an account as discriminator + borsh body, zero padded to its fixed space
func MarshalAccount(d Discriminator, space int, v any) ([]byte, ErrorI) {
	body, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	if DiscriminatorLen+len(body) > space {
		return nil, ErrMarshal(fmt.Errorf("account of %d bytes exceeds its space of %d", DiscriminatorLen+len(body), space))
	}
	bz := make([]byte, space)
	copy(bz, d[:])
	copy(bz[DiscriminatorLen:], body)
	return bz, nil
}

// UnmarshalAccount() checks the discriminator and decodes the borsh body of an account
func UnmarshalAccount(d Discriminator, bz []byte, ptr any) ErrorI {
	if len(bz) < DiscriminatorLen {
		return ErrUnmarshal(errors.New("account is shorter than its discriminator"))
	}
	if !bytes.Equal(bz[:DiscriminatorLen], d[:]) {
		return ErrUnmarshal(errors.New("account discriminator mismatch"))
	}
	return Unmarshal(bz[DiscriminatorLen:], ptr)
}

// HasDiscriminator() returns true if the bytes start with the type tag
func HasDiscriminator(d Discriminator, bz []byte) bool {
	return len(bz) >= DiscriminatorLen && bytes.Equal(bz[:DiscriminatorLen], d[:])
}
