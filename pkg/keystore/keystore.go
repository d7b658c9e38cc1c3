// Copyright 2021 Compass Systems
// SPDX-License-Identifier: LGPL-3.0-only

/*
The keystore package loads the wallet key used for signing.

A key comes either from a hex string (the PRIVATE_KEY environment variable) or from
an encrypted geth keystore file. Keystore files are decrypted with the password in
KEYSTORE_PASSWORD, or with one typed on the terminal when that variable is empty.
*/
package keystore

import (
	"os"
	"strings"

	"github.com/ChainSafe/chainbridge-utils/crypto/secp256k1"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	EnvPassword = "KEYSTORE_PASSWORD"
)

// scrypt parameters used when importing keys, lowered in tests
var (
	scryptN = keystore.StandardScryptN
	scryptP = keystore.StandardScryptP
)

// KeypairFromHex builds a keypair from a hex private key, with or without 0x prefix.
func KeypairFromHex(hexKey string) (*secp256k1.Keypair, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, errors.New("empty private key")
	}
	kp, err := secp256k1.NewKeypairFromString(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	return kp, nil
}

// KeypairFromEth decrypts a geth keystore file.
func KeypairFromEth(path string) (*secp256k1.Keypair, error) {
	// Make sure key exists before prompting password
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Errorf("key file not found: %s", path)
	}

	pswd := []byte(os.Getenv(EnvPassword))
	if len(pswd) == 0 {
		var err error
		pswd, err = GetPassword("Enter password for key " + path + ":")
		if err != nil {
			return nil, err
		}
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read keyFile failed")
	}
	key, err := keystore.DecryptKey(file, string(pswd))
	if err != nil {
		return nil, errors.Wrap(err, "DecryptKey failed")
	}

	return secp256k1.NewKeypair(*key.PrivateKey), nil
}

// ImportPrivateKey encrypts a hex private key into a new keystore file under dir.
func ImportPrivateKey(dir, hexKey, password string) (accounts.Account, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return accounts.Account{}, errors.Wrap(err, "invalid private key")
	}

	ks := keystore.NewKeyStore(dir, scryptN, scryptP)
	acc, err := ks.ImportECDSA(priv, password)
	if err != nil {
		return accounts.Account{}, errors.Wrap(err, "import key")
	}
	return acc, nil
}
