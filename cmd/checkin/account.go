// Copyright 2021 Compass Systems
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"fmt"
	"path/filepath"

	log "github.com/ChainSafe/log15"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/mapprotocol/checkin/config"
	"github.com/mapprotocol/checkin/pkg/keystore"
)

// dataHandler is a struct which wraps any extra data our CMD functions need that cannot be passed through parameters
type dataHandler struct {
	datadir string
}

// wrapHandler takes in a Cmd function (all declared below) and wraps
// it in the correct signature for the Cli Commands
func wrapHandler(hdl func(*cli.Context, *dataHandler) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		err := startLogger(ctx)
		if err != nil {
			return err
		}

		datadir, err := getDataDir(ctx)
		if err != nil {
			return fmt.Errorf("failed to access the datadir: %w", err)
		}

		return hdl(ctx, &dataHandler{datadir: datadir})
	}
}

// handleImportCmd encrypts a hex private key into a keystore file
func handleImportCmd(ctx *cli.Context, dHandler *dataHandler) error {
	log.Info("Importing key...")

	privkeyflag := ctx.String(config.PrivateKeyFlag.Name)
	if privkeyflag == "" {
		return errors.New("privateKey is nil")
	}

	password := ctx.String(config.PasswordFlag.Name)
	if password == "" {
		pswd, err := keystore.GetPassword("Enter password to encrypt keystore file:")
		if err != nil {
			return err
		}
		password = string(pswd)
	}

	acct, err := keystore.ImportPrivateKey(dHandler.datadir, privkeyflag, password)
	if err != nil {
		return errors.Wrap(err, "import private key")
	}
	fmt.Println("keystore saved to", acct.URL.Path)
	fmt.Println("address", acct.Address.Hex())
	return nil
}

// handleAddressCmd prints the address of the configured wallet
func handleAddressCmd(ctx *cli.Context, _ *dataHandler) error {
	cfg := &config.Config{
		PrivateKey: ctx.String(config.PrivateKeyFlag.Name),
		KeyFile:    ctx.String(config.KeyFileFlag.Name),
	}
	kp, err := cfg.Keypair()
	if err != nil {
		return err
	}
	fmt.Println(kp.CommonAddress().Hex())
	return nil
}

// getDataDir obtains the path to the keystore and returns it as a string
func getDataDir(ctx *cli.Context) (string, error) {
	dir := ctx.String(config.KeystorePathFlag.Name)
	if dir == "" {
		dir = config.DefaultKeystorePath
	}
	datadir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	log.Trace(fmt.Sprintf("Using keystore dir: %s", datadir))
	return datadir, nil
}
