// Copyright 2021 Compass Systems
// SPDX-License-Identifier: LGPL-3.0-only

package core

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ChainSafe/log15"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/pkg/errors"

	"github.com/mapprotocol/checkin/pkg/util"
)

type Core struct {
	scheduler *Scheduler
	alarm     *util.Alarm
	log       log15.Logger
	sysErr    chan error
	notify    func(state string)
}

func NewCore(scheduler *Scheduler, alarm *util.Alarm) *Core {
	c := &Core{
		scheduler: scheduler,
		alarm:     alarm,
		log:       log15.New("system", "core"),
		sysErr:    make(chan error, 1),
		notify: func(state string) {
			_, _ = daemon.SdNotify(false, state)
		},
	}
	scheduler.hooks = append(scheduler.hooks, func(s State) {
		c.notify(fmt.Sprintf("STATUS=%s", s))
	})
	return c
}

// Start runs the scheduler and blocks until it stops or a signal is received.
// A signal or a cancelled ctx returns nil; a fatal stop returns the scheduler error.
func (c *Core) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		c.sysErr <- c.scheduler.Run(ctx)
	}()
	c.notify(daemon.SdNotifyReady)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	// Block here and wait for a signal
	select {
	case err := <-c.sysErr:
		c.notify(daemon.SdNotifyStopping)
		if errors.Is(err, ErrStopped) {
			c.log.Error("FATAL ERROR. Shutting down.", "err", err)
			if aErr := c.alarm.Send(context.Background(), fmt.Sprintf("check-in bot stopped: %v", err)); aErr != nil {
				c.log.Warn("Send alarm failed", "err", aErr)
			}
			return err
		}
		c.log.Info("Scheduler exited", "err", err)
		return nil
	case <-sigc:
		c.log.Warn("Interrupt received, shutting down now.")
		c.notify(daemon.SdNotifyStopping)
		cancel()
		<-c.sysErr
		return nil
	}
}
