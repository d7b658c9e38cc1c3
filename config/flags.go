// Copyright 2021 Compass Systems
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	log "github.com/ChainSafe/log15"
	"github.com/urfave/cli/v2"

	"github.com/mapprotocol/checkin/internal/constant"
)

// Env vars
var (
	EnvPrivateKey        = "PRIVATE_KEY"
	EnvRpcUrl            = "MONAD_RPC_URL"
	EnvApiUrl            = "APRIO_API_URL"
	EnvContract          = "CHECKIN_CONTRACT"
	EnvChainId           = "CHAIN_ID"
	EnvAttemptTimeout    = "ATTEMPT_TIMEOUT"
	EnvCountdownInterval = "COUNTDOWN_INTERVAL"
	EnvAlarmHooks        = "ALARM_HOOKS"
	EnvAlarmEnv          = "ALARM_ENV"
	EnvApiRate           = "API_RATE"
)

const DefaultKeystorePath = "./keys"

var (
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Supports levels crit (silent) to trce (trace)",
		Value: log.LvlInfo.String(),
	}

	PrivateKeyFlag = &cli.StringFlag{
		Name:    "privateKey",
		Usage:   "Hex private key of the check-in wallet, 0x prefix optional",
		EnvVars: []string{EnvPrivateKey},
	}

	KeyFileFlag = &cli.StringFlag{
		Name:  "keyfile",
		Usage: "Geth keystore file of the check-in wallet, used instead of --privateKey",
	}

	RpcUrlFlag = &cli.StringFlag{
		Name:    "rpc",
		Usage:   "Monad JSON-RPC endpoint",
		EnvVars: []string{EnvRpcUrl},
	}

	ApiUrlFlag = &cli.StringFlag{
		Name:    "api",
		Usage:   "APR.IO API base url",
		Value:   constant.DefaultApiUrl,
		EnvVars: []string{EnvApiUrl},
	}

	ContractFlag = &cli.StringFlag{
		Name:    "contract",
		Usage:   "Check-in contract address",
		Value:   constant.CheckinContract.Hex(),
		EnvVars: []string{EnvContract},
	}

	ChainIdFlag = &cli.Int64Flag{
		Name:    "chainId",
		Usage:   "Chain id used to sign the tx and reported to the API",
		Value:   constant.MonadTestnetChainId,
		EnvVars: []string{EnvChainId},
	}

	AttemptTimeoutFlag = &cli.DurationFlag{
		Name:    "attemptTimeout",
		Usage:   "Upper bound of one check-in attempt",
		Value:   constant.AttemptTimeout,
		EnvVars: []string{EnvAttemptTimeout},
	}

	CountdownIntervalFlag = &cli.DurationFlag{
		Name:    "countdownInterval",
		Usage:   "How often the remaining wait is logged",
		Value:   constant.CountdownInterval,
		EnvVars: []string{EnvCountdownInterval},
	}

	ApiRateFlag = &cli.Float64Flag{
		Name:    "apiRate",
		Usage:   "Max API requests per second",
		Value:   constant.DefaultApiRate,
		EnvVars: []string{EnvApiRate},
	}
)

// Alarm flags
var (
	AlarmHooksFlag = &cli.StringFlag{
		Name:    "alarmHooks",
		Usage:   "Webhook url notified when the bot stops on a fatal error",
		EnvVars: []string{EnvAlarmHooks},
	}

	AlarmEnvFlag = &cli.StringFlag{
		Name:    "alarmEnv",
		Usage:   "Prefix of alarm messages",
		EnvVars: []string{EnvAlarmEnv},
	}
)

// Import subcommand flags
var (
	KeystorePathFlag = &cli.StringFlag{
		Name:  "keystore",
		Usage: "Path to keystore directory",
		Value: DefaultKeystorePath,
	}

	PasswordFlag = &cli.StringFlag{
		Name:  "password",
		Usage: "Password used to encrypt the keystore",
	}
)

var RunFlags = []cli.Flag{
	VerbosityFlag,
	PrivateKeyFlag,
	KeyFileFlag,
	RpcUrlFlag,
	ApiUrlFlag,
	ContractFlag,
	ChainIdFlag,
	AttemptTimeoutFlag,
	CountdownIntervalFlag,
	ApiRateFlag,
	AlarmHooksFlag,
	AlarmEnvFlag,
}
