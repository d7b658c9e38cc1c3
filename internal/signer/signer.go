package signer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ChainSafe/chainbridge-utils/crypto/secp256k1"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Message is the sign-in challenge returned by the login nonce endpoint.
type Message struct {
	Domain         string      `json:"domain"`
	Address        string      `json:"address"`
	Statement      string      `json:"statement"`
	URI            string      `json:"uri"`
	Version        string      `json:"version"`
	ChainId        json.Number `json:"chainId"`
	Nonce          string      `json:"nonce"`
	IssuedAt       string      `json:"issuedAt"`
	ExpirationTime string      `json:"expirationTime"`
}

// String renders the EIP-4361 text that gets signed.
func (m *Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n", m.Domain)
	fmt.Fprintf(&b, "%s\n\n", m.Address)
	fmt.Fprintf(&b, "%s\n\n", m.Statement)
	fmt.Fprintf(&b, "URI: %s\n", m.URI)
	fmt.Fprintf(&b, "Version: %s\n", m.Version)
	fmt.Fprintf(&b, "Chain ID: %s\n", m.ChainId)
	fmt.Fprintf(&b, "Nonce: %s\n", m.Nonce)
	fmt.Fprintf(&b, "Issued At: %s\n", m.IssuedAt)
	fmt.Fprintf(&b, "Expiration Time: %s", m.ExpirationTime)
	return b.String()
}

type Signer struct {
	kp *secp256k1.Keypair
}

func New(kp *secp256k1.Keypair) *Signer {
	return &Signer{kp: kp}
}

func (s *Signer) Address() common.Address {
	return s.kp.CommonAddress()
}

// SignText produces an EIP-191 personal signature with v in {27, 28}.
func (s *Signer) SignText(text string) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(text)), s.kp.PrivateKey())
	if err != nil {
		return "", errors.Wrap(err, "sign message")
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Recover returns the address that produced an EIP-191 signature over text.
func Recover(text, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, err
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.Errorf("invalid signature length %d", len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(text)), sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Short formats an address as 0x1234...abcd for log lines.
func Short(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}
