// Copyright 2021 Compass Systems
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	"os"
	"strings"
	"time"

	"github.com/ChainSafe/chainbridge-utils/crypto/secp256k1"
	log "github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/mapprotocol/checkin/internal/constant"
	"github.com/mapprotocol/checkin/pkg/keystore"
)

const DotEnvFile = ".env"

type Config struct {
	PrivateKey        string
	KeyFile           string
	RpcUrl            string
	ApiUrl            string
	Contract          common.Address
	ChainId           int64
	AttemptTimeout    time.Duration
	CountdownInterval time.Duration
	ApiRate           float64
	AlarmHooks        string
	AlarmEnv          string
}

// LoadDotEnv reads DotEnvFile from the working directory. Variables already set in the environment win.
func LoadDotEnv() error {
	if _, err := os.Stat(DotEnvFile); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(DotEnvFile); err != nil {
		return errors.Wrap(err, "load .env")
	}
	log.Debug("Loaded env file", "path", DotEnvFile)
	return nil
}

func GetConfig(ctx *cli.Context) (*Config, error) {
	cfg := &Config{
		PrivateKey:        strings.TrimSpace(ctx.String(PrivateKeyFlag.Name)),
		KeyFile:           ctx.String(KeyFileFlag.Name),
		RpcUrl:            strings.TrimSpace(ctx.String(RpcUrlFlag.Name)),
		ApiUrl:            strings.TrimSpace(ctx.String(ApiUrlFlag.Name)),
		ChainId:           ctx.Int64(ChainIdFlag.Name),
		AttemptTimeout:    ctx.Duration(AttemptTimeoutFlag.Name),
		CountdownInterval: ctx.Duration(CountdownIntervalFlag.Name),
		ApiRate:           ctx.Float64(ApiRateFlag.Name),
		AlarmHooks:        ctx.String(AlarmHooksFlag.Name),
		AlarmEnv:          ctx.String(AlarmEnvFlag.Name),
	}

	contract := strings.TrimSpace(ctx.String(ContractFlag.Name))
	if !common.IsHexAddress(contract) {
		return nil, errors.Errorf("invalid contract address %q", contract)
	}
	cfg.Contract = common.HexToAddress(contract)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PrivateKey == "" && c.KeyFile == "" {
		return constant.ErrMissingPrivateKey
	}
	if c.RpcUrl == "" {
		return constant.ErrMissingRpc
	}
	if c.ApiUrl == "" {
		return errors.New("api url is empty")
	}
	if c.ChainId <= 0 {
		return errors.Errorf("invalid chain id %d", c.ChainId)
	}
	if c.Contract == constant.ZeroAddress {
		return errors.New("contract address is zero")
	}
	if c.AttemptTimeout < 0 {
		return errors.Errorf("invalid attempt timeout %s", c.AttemptTimeout)
	}
	if c.CountdownInterval <= 0 {
		return errors.Errorf("invalid countdown interval %s", c.CountdownInterval)
	}
	if c.ApiRate <= 0 {
		return errors.Errorf("invalid api rate %v", c.ApiRate)
	}
	return nil
}

// Keypair loads the wallet from the keystore file when one is given, else from the hex key.
func (c *Config) Keypair() (*secp256k1.Keypair, error) {
	if c.KeyFile != "" {
		return keystore.KeypairFromEth(c.KeyFile)
	}
	if c.PrivateKey == "" {
		return nil, constant.ErrMissingPrivateKey
	}
	return keystore.KeypairFromHex(c.PrivateKey)
}
