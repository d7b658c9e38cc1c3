package checkin

import (
	"context"
	"time"

	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/mapprotocol/checkin/core"
	"github.com/mapprotocol/checkin/internal/aprio"
	"github.com/mapprotocol/checkin/internal/constant"
	"github.com/mapprotocol/checkin/internal/signer"
)

// API is the part of the APR.IO service one attempt talks to.
type API interface {
	Nonce(ctx context.Context, address string) (*signer.Message, error)
	Login(ctx context.Context, address, signature, message string) (*aprio.Session, error)
	WalletStatus(ctx context.Context, address string) (*aprio.WalletStatus, error)
	CheckIn(ctx context.Context, token string, data aprio.CheckinRequest) (*aprio.CheckinResult, error)
	UpdatePoints(ctx context.Context, token string) error
	WalletQuests(ctx context.Context, address, token string) (aprio.QuestData, error)
}

// Sender submits the on-chain checkIn() call and waits for its receipt.
type Sender interface {
	CheckIn(ctx context.Context) (common.Hash, error)
}

type Wallet interface {
	Address() common.Address
	SignText(text string) (string, error)
}

// Checkin performs login, transaction, report and refresh for one wallet.
type Checkin struct {
	api     API
	sender  Sender
	wallet  Wallet
	chainId int64
	log     log15.Logger
}

func New(api API, sender Sender, wallet Wallet, chainId int64) *Checkin {
	return &Checkin{
		api:     api,
		sender:  sender,
		wallet:  wallet,
		chainId: chainId,
		log:     log15.Root().New("module", "checkin", "wallet", signer.Short(wallet.Address())),
	}
}

var _ core.Attempt = (*Checkin)(nil)

func (c *Checkin) Attempt(ctx context.Context) core.Outcome {
	address := c.wallet.Address().Hex()

	session, err := c.Login(ctx)
	if err != nil {
		c.log.Error("Login failed", "err", err)
		return core.Outcome{Fatal: true, Err: err}
	}
	c.log.Info("Login success", "user", session.User.Id)

	status, err := c.api.WalletStatus(ctx, address)
	if err != nil {
		c.log.Error("Get wallet status failed", "err", err)
		return core.Outcome{Err: errors.Wrap(err, "wallet status")}
	}
	c.log.Info("Wallet status", "summary", status.Summary())

	hash, err := c.sender.CheckIn(ctx)
	if err != nil {
		if constant.IsBenign(err) {
			c.log.Warn("Check-in tx not accepted, already checked in for this window", "err", err)
		} else {
			c.log.Error("Check-in tx failed", "tx", hash, "err", err)
		}
		return core.Outcome{Err: errors.Wrap(err, "check-in tx")}
	}
	c.log.Info("Check-in tx confirmed", "tx", hash)

	result, err := c.api.CheckIn(ctx, session.AccessToken, aprio.CheckinRequest{
		WalletAddress:   address,
		TransactionHash: hash.Hex(),
		ChainId:         c.chainId,
	})
	if err != nil {
		c.log.Warn("Report check-in failed", "tx", hash, "err", err)
		return core.Outcome{LastCheckin: c.lastCheckin(ctx, address), Err: errors.Wrap(err, "report check-in")}
	}
	last := result.LastCheckinTime.Time()
	c.log.Info("Check-in reported", "tx", hash, "lastCheckin", last)

	c.refresh(ctx, address, session.AccessToken)

	out := core.Outcome{Succeeded: true}
	if !last.IsZero() {
		out.LastCheckin = &last
	}
	return out
}

// Login signs the nonce challenge and returns the session. Every failure wraps ErrUnauthorized.
func (c *Checkin) Login(ctx context.Context) (*aprio.Session, error) {
	address := c.wallet.Address().Hex()
	msg, err := c.api.Nonce(ctx, address)
	if err != nil {
		return nil, unauthorized(err, "get nonce")
	}
	text := msg.String()
	sig, err := c.wallet.SignText(text)
	if err != nil {
		return nil, unauthorized(err, "sign nonce")
	}
	session, err := c.api.Login(ctx, address, sig, text)
	if err != nil {
		return nil, unauthorized(err, "login")
	}
	return session, nil
}

// lastCheckin re-reads the wallet status. Nil when unavailable.
func (c *Checkin) lastCheckin(ctx context.Context, address string) *time.Time {
	status, err := c.api.WalletStatus(ctx, address)
	if err != nil {
		c.log.Warn("Re-query wallet status failed", "err", err)
		return nil
	}
	last := status.LastCheckinTime.Time()
	if last.IsZero() {
		return nil
	}
	return &last
}

func (c *Checkin) refresh(ctx context.Context, address, token string) {
	if err := c.api.UpdatePoints(ctx, token); err != nil {
		c.log.Warn("Update points failed", "err", err)
	} else {
		c.log.Info("Points updated")
	}
	quests, err := c.api.WalletQuests(ctx, address, token)
	if err != nil {
		c.log.Warn("Get quests failed", "err", err)
		return
	}
	c.log.Info("Quests", "summary", quests.Summary())
}

func unauthorized(err error, step string) error {
	if errors.Is(err, constant.ErrUnauthorized) {
		return errors.Wrap(err, step)
	}
	return errors.Wrapf(constant.ErrUnauthorized, "%s: %v", step, err)
}
