package util

import (
	"context"
	"fmt"
	"time"

	log "github.com/ChainSafe/log15"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// same alarm text is sent at most once per window
const alarmWindow = 5 * time.Minute

type Alarm struct {
	prefix   string
	hooksUrl string
	seen     *RWMap
	client   *resty.Client
	log      log.Logger
	now      func() time.Time
}

func NewAlarm(env, hooks string) *Alarm {
	return &Alarm{
		prefix:   env,
		hooksUrl: hooks,
		seen:     NewRWMap(),
		client:   resty.New().SetTimeout(10 * time.Second),
		log:      log.Root().New("module", "alarm"),
		now:      time.Now,
	}
}

// Send posts msg to the configured webhook. Repeats within five minutes are dropped.
func (a *Alarm) Send(ctx context.Context, msg string) error {
	if a == nil || a.hooksUrl == "" {
		return nil
	}
	if !a.seen.SetIfOlder(msg, a.now(), alarmWindow) {
		a.log.Debug("Alarm suppressed", "msg", msg)
		return nil
	}

	text := msg
	if a.prefix != "" {
		text = fmt.Sprintf("%s %s", a.prefix, msg)
	}
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{"text": text}).
		Post(a.hooksUrl)
	if err != nil {
		return errors.Wrap(err, "send alarm")
	}
	if resp.IsError() {
		return errors.Errorf("send alarm: status %d, body %s", resp.StatusCode(), resp.String())
	}
	a.log.Info("Alarm sent", "resp", resp.String())
	return nil
}
