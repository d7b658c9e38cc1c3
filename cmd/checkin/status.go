package main

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	log "github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/params"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/mapprotocol/checkin/config"
	"github.com/mapprotocol/checkin/internal/aprio"
	"github.com/mapprotocol/checkin/internal/checkin"
	"github.com/mapprotocol/checkin/internal/constant"
	"github.com/mapprotocol/checkin/internal/signer"
	"github.com/mapprotocol/checkin/pkg/ethclient"
)

func status(ctx *cli.Context) error {
	if err := startLogger(ctx); err != nil {
		return err
	}
	cfg, err := config.GetConfig(ctx)
	if err != nil {
		return err
	}
	kp, err := cfg.Keypair()
	if err != nil {
		return err
	}
	wallet := signer.New(kp)

	c, cancel := context.WithTimeout(ctx.Context, cfg.AttemptTimeout)
	defer cancel()

	var balance *big.Int
	conn, err := ethclient.DialContext(c, cfg.RpcUrl)
	if err != nil {
		log.Warn("Dial rpc failed, balance unavailable", "err", err)
	} else {
		defer conn.Close()
		if balance, err = conn.BalanceAt(c, wallet.Address(), nil); err != nil {
			log.Warn("Get balance failed", "err", err)
		}
	}

	api := aprio.New(cfg.ApiUrl, aprio.WithRate(cfg.ApiRate))
	session, err := checkin.New(api, nil, wallet, cfg.ChainId).Login(c)
	if err != nil {
		return err
	}
	address := wallet.Address().Hex()
	st, err := api.WalletStatus(c, address)
	if err != nil {
		return err
	}
	fmt.Println(renderStatus(address, balance, st, time.Now()))

	if quests, err := api.WalletQuests(c, address, session.AccessToken); err != nil {
		log.Warn("Get quests failed", "err", err)
	} else {
		fmt.Println(renderQuests(quests))
	}
	if activity, err := api.WalletActivity(c, address, session.AccessToken); err != nil {
		log.Warn("Get activity failed", "err", err)
	} else {
		fmt.Println(renderActivity(activity))
	}
	return nil
}

var statusHeader = table.Row{
	"Wallet",
	"Balance (MON)",
	"Check-ins",
	"Points",
	"TX Count",
	"Last Check-in",
	"Next Check-in",
}

func renderStatus(address string, balance *big.Int, st *aprio.WalletStatus, now time.Time) string {
	last, next := "-", "now"
	if t := st.LastCheckinTime.Time(); !t.IsZero() {
		last = t.Format(time.RFC3339)
		if at := t.Add(constant.CheckinWindow); at.After(now) {
			next = at.Format(time.RFC3339)
		}
	}

	statusTable := table.NewWriter()
	statusTable.AppendHeader(statusHeader)
	statusTable.AppendRow(table.Row{
		address,
		formatEther(balance),
		orDash(st.CheckInCount.String()),
		orDash(st.Points.String()),
		orDash(st.UserTransactionCount.String()),
		last,
		next,
	})
	return statusTable.Render()
}

func renderQuests(quests aprio.QuestData) string {
	questTable := table.NewWriter()
	questTable.AppendHeader(table.Row{"Quest", "Value"})
	for _, k := range quests.Keys() {
		questTable.AppendRow(table.Row{k, fmt.Sprint(quests[k])})
	}
	return questTable.Render()
}

var activityHeader = table.Row{
	"#",
	"Type",
	"Tx",
	"Points",
	"Time",
}

func renderActivity(activity []aprio.Activity) string {
	activityTable := table.NewWriter()
	activityTable.AppendHeader(activityHeader)
	for i, a := range activity {
		at := "-"
		if t := a.CreatedAt.Time(); !t.IsZero() {
			at = t.Format(time.RFC3339)
		}
		activityTable.AppendRow(table.Row{
			fmt.Sprintf("%d", i+1),
			a.Type,
			orDash(a.TransactionHash),
			orDash(a.Points.String()),
			at,
		})
	}
	return activityTable.Render()
}

func formatEther(wei *big.Int) string {
	if wei == nil {
		return "-"
	}
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return strings.TrimRight(strings.TrimRight(f.Text('f', 6), "0"), ".")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
