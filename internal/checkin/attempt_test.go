package checkin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ChainSafe/chainbridge-utils/crypto/secp256k1"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapprotocol/checkin/internal/aprio"
	"github.com/mapprotocol/checkin/internal/constant"
	"github.com/mapprotocol/checkin/internal/signer"
)

var txHash = common.HexToHash("0xabc")

type fakeAPI struct {
	nonceErr   error
	loginErr   error
	statusErr  []error // consumed in order, nil once exhausted
	status     aprio.WalletStatus
	checkinErr error
	checkin    aprio.CheckinResult
	pointsErr  error
	questsErr  error

	calls     []string
	signature string
	message   string
	report    aprio.CheckinRequest
}

func (f *fakeAPI) Nonce(_ context.Context, address string) (*signer.Message, error) {
	f.calls = append(f.calls, "nonce")
	if f.nonceErr != nil {
		return nil, f.nonceErr
	}
	return &signer.Message{
		Domain: "app.apr.io", Address: address, Statement: "Sign in", URI: "https://app.apr.io",
		Version: "1", ChainId: "10143", Nonce: "n-1", IssuedAt: "t0", ExpirationTime: "t1",
	}, nil
}

func (f *fakeAPI) Login(_ context.Context, _, signature, message string) (*aprio.Session, error) {
	f.calls = append(f.calls, "login")
	f.signature, f.message = signature, message
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &aprio.Session{AccessToken: "tok", User: aprio.User{Id: "u-1"}}, nil
}

func (f *fakeAPI) WalletStatus(context.Context, string) (*aprio.WalletStatus, error) {
	f.calls = append(f.calls, "status")
	if len(f.statusErr) > 0 {
		err := f.statusErr[0]
		f.statusErr = f.statusErr[1:]
		if err != nil {
			return nil, err
		}
	}
	s := f.status
	return &s, nil
}

func (f *fakeAPI) CheckIn(_ context.Context, token string, data aprio.CheckinRequest) (*aprio.CheckinResult, error) {
	f.calls = append(f.calls, "checkin")
	f.report = data
	if token != "tok" {
		return nil, errors.New("bad token")
	}
	if f.checkinErr != nil {
		return nil, f.checkinErr
	}
	r := f.checkin
	return &r, nil
}

func (f *fakeAPI) UpdatePoints(context.Context, string) error {
	f.calls = append(f.calls, "points")
	return f.pointsErr
}

func (f *fakeAPI) WalletQuests(context.Context, string, string) (aprio.QuestData, error) {
	f.calls = append(f.calls, "quests")
	if f.questsErr != nil {
		return nil, f.questsErr
	}
	return aprio.QuestData{"daily": 1}, nil
}

type fakeSender struct {
	hash  common.Hash
	err   error
	calls int
}

func (f *fakeSender) CheckIn(context.Context) (common.Hash, error) {
	f.calls++
	return f.hash, f.err
}

type failingWallet struct{ *signer.Signer }

func (failingWallet) SignText(string) (string, error) { return "", errors.New("no key") }

func newWallet(t *testing.T) *signer.Signer {
	t.Helper()
	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)
	return signer.New(kp)
}

func TestAttempt_Success(t *testing.T) {
	w := newWallet(t)
	api := &fakeAPI{checkin: aprio.CheckinResult{LastCheckinTime: 1700000000000}}
	sender := &fakeSender{hash: txHash}

	out := New(api, sender, w, constant.MonadTestnetChainId).Attempt(context.Background())
	assert.True(t, out.Succeeded)
	assert.False(t, out.Fatal)
	assert.NoError(t, out.Err)
	require.NotNil(t, out.LastCheckin)
	assert.Equal(t, time.UnixMilli(1700000000000), *out.LastCheckin)

	assert.Equal(t, []string{"nonce", "login", "status", "checkin", "points", "quests"}, api.calls)
	assert.Equal(t, aprio.CheckinRequest{
		WalletAddress:   w.Address().Hex(),
		TransactionHash: txHash.Hex(),
		ChainId:         constant.MonadTestnetChainId,
	}, api.report)

	from, err := signer.Recover(api.message, api.signature)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), from)
	assert.Contains(t, api.message, "Nonce: n-1")
}

func TestAttempt_SuccessWithoutTimestamp(t *testing.T) {
	api := &fakeAPI{}
	out := New(api, &fakeSender{hash: txHash}, newWallet(t), constant.MonadTestnetChainId).Attempt(context.Background())
	assert.True(t, out.Succeeded)
	assert.Nil(t, out.LastCheckin)
}

func TestAttempt_AuthFailuresAreFatal(t *testing.T) {
	cases := map[string]func(*fakeAPI){
		"nonce": func(f *fakeAPI) { f.nonceErr = errors.New("connection refused") },
		"login": func(f *fakeAPI) { f.loginErr = errors.New("login: status 401") },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{}
			setup(api)
			sender := &fakeSender{hash: txHash}

			out := New(api, sender, newWallet(t), constant.MonadTestnetChainId).Attempt(context.Background())
			assert.True(t, out.Fatal)
			assert.False(t, out.Succeeded)
			assert.ErrorIs(t, out.Err, constant.ErrUnauthorized)
			assert.Zero(t, sender.calls)
		})
	}
}

func TestAttempt_SignFailureIsFatal(t *testing.T) {
	api := &fakeAPI{}
	out := New(api, &fakeSender{}, failingWallet{newWallet(t)}, constant.MonadTestnetChainId).Attempt(context.Background())
	assert.True(t, out.Fatal)
	assert.Equal(t, []string{"nonce"}, api.calls)
}

func TestAttempt_StatusFailureEndsAttempt(t *testing.T) {
	api := &fakeAPI{statusErr: []error{errors.New("status: 500")}}
	sender := &fakeSender{hash: txHash}

	out := New(api, sender, newWallet(t), constant.MonadTestnetChainId).Attempt(context.Background())
	assert.False(t, out.Fatal)
	assert.False(t, out.Succeeded)
	assert.Error(t, out.Err)
	assert.Zero(t, sender.calls)
}

func TestAttempt_BenignTxError(t *testing.T) {
	api := &fakeAPI{}
	sender := &fakeSender{err: errors.New("execution reverted: Already checked in")}

	out := New(api, sender, newWallet(t), constant.MonadTestnetChainId).Attempt(context.Background())
	assert.False(t, out.Fatal)
	assert.False(t, out.Succeeded)
	assert.Nil(t, out.LastCheckin)
	assert.NotContains(t, api.calls, "checkin")
}

func TestAttempt_OtherTxError(t *testing.T) {
	api := &fakeAPI{}
	sender := &fakeSender{err: errors.New("insufficient funds")}

	out := New(api, sender, newWallet(t), constant.MonadTestnetChainId).Attempt(context.Background())
	assert.False(t, out.Fatal)
	assert.False(t, out.Succeeded)
	assert.Nil(t, out.LastCheckin)
	assert.Contains(t, out.Err.Error(), "insufficient funds")
	assert.NotContains(t, api.calls, "checkin")
}

func TestAttempt_ReportFailureRequeriesStatus(t *testing.T) {
	api := &fakeAPI{
		checkinErr: errors.New("transaction already used"),
		status:     aprio.WalletStatus{LastCheckinTime: 1700000000000},
	}

	out := New(api, &fakeSender{hash: txHash}, newWallet(t), constant.MonadTestnetChainId).Attempt(context.Background())
	assert.False(t, out.Fatal)
	assert.False(t, out.Succeeded)
	require.NotNil(t, out.LastCheckin)
	assert.Equal(t, time.UnixMilli(1700000000000), *out.LastCheckin)
	assert.Equal(t, []string{"nonce", "login", "status", "checkin", "status"}, api.calls)
}

func TestAttempt_ReportFailureAndRequeryFailure(t *testing.T) {
	api := &fakeAPI{
		checkinErr: errors.New("internal error"),
		statusErr:  []error{nil, errors.New("status: 502")},
	}

	out := New(api, &fakeSender{hash: txHash}, newWallet(t), constant.MonadTestnetChainId).Attempt(context.Background())
	assert.False(t, out.Fatal)
	assert.False(t, out.Succeeded)
	assert.Nil(t, out.LastCheckin)
}

func TestAttempt_SecondaryFailuresIgnored(t *testing.T) {
	api := &fakeAPI{
		checkin:   aprio.CheckinResult{LastCheckinTime: 1700000000000},
		pointsErr: errors.New("points: 500"),
		questsErr: errors.New("quests: 500"),
	}

	out := New(api, &fakeSender{hash: txHash}, newWallet(t), constant.MonadTestnetChainId).Attempt(context.Background())
	assert.True(t, out.Succeeded)
	assert.NoError(t, out.Err)
	require.NotNil(t, out.LastCheckin)
}
