package registry

import (
	"context"

	"github.com/cloudflare/circl/sign/dilithium"

	id "freightledger/pkg/domain"
	dErrors "freightledger/pkg/domain-errors"
)

// SignatureMode is the signature scheme delivery verifications use. Dilithium
// keeps verification claims sound against quantum cryptanalysis; changing the
// mode invalidates every registered key, so treat it as a network constant.
var SignatureMode = dilithium.Mode3

// Keyring resolves the private signing key for a verifier account. The
// concrete keyring is a deployment concern (HSM, remote signer); the in-memory
// implementation serves tests and dev nodes.
type Keyring interface {
	SigningKey(ctx context.Context, account id.AccountID) (dilithium.PrivateKey, error)
}

type MemoryKeyring struct {
	keys map[id.AccountID]dilithium.PrivateKey
}

func NewMemoryKeyring() *MemoryKeyring {
	return &MemoryKeyring{keys: make(map[id.AccountID]dilithium.PrivateKey)}
}

func (k *MemoryKeyring) Add(account id.AccountID, key dilithium.PrivateKey) {
	k.keys[account] = key
}

func (k *MemoryKeyring) SigningKey(_ context.Context, account id.AccountID) (dilithium.PrivateKey, error) {
	key, ok := k.keys[account]
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no signing key registered for caller")
	}
	return key, nil
}
