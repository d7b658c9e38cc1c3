package aprio

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	log "github.com/ChainSafe/log15"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/mapprotocol/checkin/internal/constant"
	"github.com/mapprotocol/checkin/internal/signer"
)

const (
	UrlOfNonce          = "/auth/nonce"
	UrlOfLogin          = "/auth/login"
	UrlOfWalletStatus   = "/wallet/status"
	UrlOfCheckin        = "/checkin"
	UrlOfUpdatePoints   = "/points/update"
	UrlOfWalletQuests   = "/wallet/quests"
	UrlOfWalletActivity = "/wallet/activity"
)

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code    int
	Path    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Path, e.Code)
	}
	return fmt.Sprintf("%s: status %d, %s", e.Path, e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return constant.ErrUnauthorized
	}
	return nil
}

type Option func(*Client)

// WithRate limits outgoing requests to rps per second.
func WithRate(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetry sets how often throttled or failed GET requests are retried.
func WithRetry(count int, wait time.Duration) Option {
	return func(c *Client) {
		c.rc.SetRetryCount(count).SetRetryWaitTime(wait)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.rc.SetTimeout(d)
	}
}

// Client talks to the APR.IO web service.
type Client struct {
	rc      *resty.Client
	limiter *rate.Limiter
	log     log.Logger
}

func New(domain string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(domain, "/")).
		SetTimeout(constant.HttpTimeOut).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", constant.Agent).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(retryable)

	c := &Client{
		rc:      rc,
		limiter: rate.NewLimiter(rate.Limit(constant.DefaultApiRate), 1),
		log:     log.Root().New("module", "aprio"),
	}
	for _, opt := range opts {
		opt(c)
	}
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		return c.limiter.Wait(r.Context())
	})
	return c
}

// retryable repeats throttled requests and GETs that timed out or hit a server error.
// A POST that timed out may have been applied, so it is not sent again.
func retryable(r *resty.Response, err error) bool {
	isGet := r != nil && r.Request != nil && r.Request.Method == http.MethodGet
	if err != nil {
		var netErr net.Error
		return isGet && errors.As(err, &netErr) && netErr.Timeout()
	}
	if r.StatusCode() == http.StatusTooManyRequests {
		return true
	}
	return isGet && r.StatusCode() >= http.StatusInternalServerError
}

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	req := c.rc.R().SetContext(ctx).SetError(&errorBody{})
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func (c *Client) do(req *resty.Request, method, path string, result interface{}) error {
	start := time.Now()
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Error("Request error", "method", method, "path", path, "error", err)
		return errors.Wrapf(err, "%s %s", method, path)
	}
	c.log.Debug("Request done", "method", method, "path", path, "status", resp.StatusCode(), "duration", time.Since(start))
	if resp.IsError() {
		se := &StatusError{Code: resp.StatusCode(), Path: path}
		if body, ok := resp.Error().(*errorBody); ok && body != nil {
			se.Message = body.text()
		}
		if se.Message == "" {
			se.Message = strings.TrimSpace(resp.String())
		}
		return se
	}
	return nil
}

// Nonce fetches the sign-in challenge for address.
func (c *Client) Nonce(ctx context.Context, address string) (*signer.Message, error) {
	ret := &signer.Message{}
	req := c.request(ctx, "").SetQueryParam("address", address)
	if err := c.do(req, http.MethodGet, UrlOfNonce, ret); err != nil {
		return nil, err
	}
	if ret.Nonce == "" {
		return nil, errors.New("empty nonce in response")
	}
	return ret, nil
}

// Login exchanges a signed challenge for an access token.
func (c *Client) Login(ctx context.Context, address, signature, message string) (*Session, error) {
	ret := &Session{}
	req := c.request(ctx, "").SetBody(map[string]string{
		"address":   address,
		"signature": signature,
		"message":   message,
	})
	if err := c.do(req, http.MethodPost, UrlOfLogin, ret); err != nil {
		return nil, err
	}
	if ret.AccessToken == "" {
		return nil, errors.Wrap(constant.ErrUnauthorized, "login returned no access token")
	}
	return ret, nil
}

func (c *Client) WalletStatus(ctx context.Context, address string) (*WalletStatus, error) {
	ret := &WalletStatus{}
	req := c.request(ctx, "").SetQueryParam("address", address)
	if err := c.do(req, http.MethodGet, UrlOfWalletStatus, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// CheckIn reports a confirmed check-in transaction.
func (c *Client) CheckIn(ctx context.Context, token string, data CheckinRequest) (*CheckinResult, error) {
	ret := &CheckinResult{}
	req := c.request(ctx, token).SetBody(data)
	if err := c.do(req, http.MethodPost, UrlOfCheckin, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) UpdatePoints(ctx context.Context, token string) error {
	return c.do(c.request(ctx, token), http.MethodPost, UrlOfUpdatePoints, nil)
}

func (c *Client) WalletQuests(ctx context.Context, address, token string) (QuestData, error) {
	ret := QuestData{}
	req := c.request(ctx, token).SetQueryParam("address", address)
	if err := c.do(req, http.MethodGet, UrlOfWalletQuests, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) WalletActivity(ctx context.Context, address, token string) ([]Activity, error) {
	var ret []Activity
	req := c.request(ctx, token).SetQueryParam("address", address)
	if err := c.do(req, http.MethodGet, UrlOfWalletActivity, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}
