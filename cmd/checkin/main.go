// Copyright 2021 Compass Systems
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"context"
	"math/big"
	"os"
	"strconv"

	log "github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/mapprotocol/checkin/config"
	"github.com/mapprotocol/checkin/core"
	"github.com/mapprotocol/checkin/internal/aprio"
	"github.com/mapprotocol/checkin/internal/chain"
	"github.com/mapprotocol/checkin/internal/checkin"
	"github.com/mapprotocol/checkin/internal/constant"
	"github.com/mapprotocol/checkin/internal/signer"
	"github.com/mapprotocol/checkin/pkg/ethclient"
	"github.com/mapprotocol/checkin/pkg/util"
)

var app = cli.NewApp()

var importFlags = []cli.Flag{
	config.VerbosityFlag,
	config.PrivateKeyFlag,
	config.PasswordFlag,
	config.KeystorePathFlag,
}

var addressFlags = []cli.Flag{
	config.VerbosityFlag,
	config.PrivateKeyFlag,
	config.KeyFileFlag,
}

var accountCommand = cli.Command{
	Name:  "accounts",
	Usage: "manage the check-in wallet keystore",
	Description: "The accounts command is used to manage the wallet keystore.\n" +
		"\tTo import a private key: checkin accounts import --privateKey private_key",
	Subcommands: []*cli.Command{
		{
			Action: wrapHandler(handleImportCmd),
			Name:   "import",
			Usage:  "import a private key into a keystore file",
			Flags:  importFlags,
			Description: "The import subcommand encrypts a hex private key into a geth keystore file.\n" +
				"\tThe file is written to the --keystore directory.",
		},
		{
			Action: wrapHandler(handleAddressCmd),
			Name:   "address",
			Usage:  "print the wallet address",
			Flags:  addressFlags,
		},
	},
}

var statusCommand = cli.Command{
	Name:        "status",
	Usage:       "print wallet status and quests",
	Description: "The status command logs in once and prints wallet status, quests and recent activity. No transaction is sent.",
	Action:      status,
	Flags:       config.RunFlags,
}

var (
	Version = "1.0.0"
)

// init initializes CLI
func init() {
	app.Action = run
	app.Name = "checkin"
	app.Usage = "APR.IO daily check-in bot for Monad testnet"
	app.Version = Version
	app.EnableBashCompletion = true
	app.Commands = []*cli.Command{
		&accountCommand,
		&statusCommand,
	}
	app.Flags = append(app.Flags, config.RunFlags...)
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func startLogger(ctx *cli.Context) error {
	logger := log.Root()
	handler := logger.GetHandler()
	var lvl log.Lvl

	if lvlToInt, err := strconv.Atoi(ctx.String(config.VerbosityFlag.Name)); err == nil {
		lvl = log.Lvl(lvlToInt)
	} else if lvl, err = log.LvlFromString(ctx.String(config.VerbosityFlag.Name)); err != nil {
		return err
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, handler))

	return nil
}

type rpcChecker interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// checkRpc rejects an endpoint serving the wrong chain or lacking the contract.
// An unreachable endpoint only logs a warning, the attempts retry it later.
func checkRpc(ctx context.Context, conn rpcChecker, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, constant.HttpTimeOut)
	defer cancel()

	err := ethclient.EnsureChainId(ctx, conn, cfg.ChainId)
	if err == nil {
		err = ethclient.EnsureHasBytecode(ctx, conn, cfg.Contract)
	}
	if errors.Is(err, constant.ErrRpcUnreachable) {
		log.Warn("Rpc check skipped, endpoint unreachable", "url", cfg.RpcUrl, "err", err)
		return nil
	}
	return err
}

func run(ctx *cli.Context) error {
	err := startLogger(ctx)
	if err != nil {
		return err
	}
	log.Info("Starting check-in bot...")

	cfg, err := config.GetConfig(ctx)
	if err != nil {
		return err
	}
	kp, err := cfg.Keypair()
	if err != nil {
		return err
	}
	wallet := signer.New(kp)
	log.Info("Wallet loaded", "address", wallet.Address())

	conn, err := ethclient.DialContext(ctx.Context, cfg.RpcUrl)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err = checkRpc(ctx.Context, conn, cfg); err != nil {
		return err
	}

	writer, err := chain.NewWriter(conn, kp, &chain.Config{
		Id:       cfg.ChainId,
		Contract: cfg.Contract,
	}, log.Root().New("chain", "monad"))
	if err != nil {
		return err
	}

	api := aprio.New(cfg.ApiUrl, aprio.WithRate(cfg.ApiRate))
	attempt := checkin.New(api, writer, wallet, cfg.ChainId)
	scheduler := core.NewScheduler(attempt,
		core.WithAttemptTimeout(cfg.AttemptTimeout),
		core.WithProgressInterval(cfg.CountdownInterval),
	)
	c := core.NewCore(scheduler, util.NewAlarm(cfg.AlarmEnv, cfg.AlarmHooks))
	return c.Start(ctx.Context)
}
