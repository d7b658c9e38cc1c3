package signer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ChainSafe/chainbridge-utils/crypto/secp256k1"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_String(t *testing.T) {
	var m Message
	raw := `{"domain":"app.apr.io","address":"0xabc","statement":"Sign in to APR","uri":"https://app.apr.io",
		"version":"1","chainId":10143,"nonce":"n0nce","issuedAt":"2024-01-01T00:00:00Z","expirationTime":"2024-01-02T00:00:00Z"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	want := "app.apr.io wants you to sign in with your Ethereum account:\n" +
		"0xabc\n\n" +
		"Sign in to APR\n\n" +
		"URI: https://app.apr.io\n" +
		"Version: 1\n" +
		"Chain ID: 10143\n" +
		"Nonce: n0nce\n" +
		"Issued At: 2024-01-01T00:00:00Z\n" +
		"Expiration Time: 2024-01-02T00:00:00Z"
	assert.Equal(t, want, m.String())
}

func TestMessage_StringChainId(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"chainId":"10143"}`), &m))
	assert.Contains(t, m.String(), "Chain ID: 10143\n")
}

func TestSigner_SignText(t *testing.T) {
	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)
	s := New(kp)

	sig, err := s.SignText("hello")
	require.NoError(t, err)

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	require.Len(t, raw, 65)
	assert.Contains(t, []byte{27, 28}, raw[64])

	addr, err := Recover("hello", sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), addr)

	other, err := Recover("hello!", sig)
	require.NoError(t, err)
	assert.NotEqual(t, s.Address(), other)
}

func TestShort(t *testing.T) {
	addr := common.HexToAddress("0x703e753E9a2aCa1194DED65833EAec17dcFeAc1b")
	got := Short(addr)
	assert.True(t, strings.HasPrefix(got, "0x703e"))
	assert.True(t, strings.HasSuffix(got, "Ac1b"))
	assert.Equal(t, 13, len(got))
}
