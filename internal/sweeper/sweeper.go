// Package sweeper schedules the booking engine's periodic
// reconciliation pass.  The cadence is an operational parameter, not a
// correctness one: a missed or delayed run only extends the bounded
// staleness of time-forced transitions by one interval.
package sweeper

import (
    "context"
    "log"
    "time"

    "github.com/robfig/cron/v3"

    "github.com/iliyamo/ev-charging-reservation/internal/booking"
)

// Sweeper wraps a cron scheduler around Engine.RunSweep.
type Sweeper struct {
    engine   *booking.Engine
    interval time.Duration
    cron     *cron.Cron
}

// New builds a sweeper that runs every interval.  Intervals below one
// second are raised to one second.
func New(engine *booking.Engine, interval time.Duration) *Sweeper {
    if interval < time.Second {
        interval = time.Second
    }
    c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log.Default()))))
    return &Sweeper{engine: engine, interval: interval, cron: c}
}

// Start registers the sweep job and starts the scheduler in the
// background.  RunSweep is idempotent, so an overlapping or repeated
// run is harmless.
func (s *Sweeper) Start() error {
    _, err := s.cron.AddFunc("@every "+s.interval.String(), func() {
        ctx, cancel := context.WithTimeout(context.Background(), s.interval)
        defer cancel()
        res, err := s.engine.RunSweep(ctx)
        if err != nil {
            log.Printf("sweeper: run failed: %v", err)
            return
        }
        if res.Expired > 0 || res.Completed > 0 || res.Failed > 0 {
            log.Printf("sweeper: expired=%d completed=%d failed=%d", res.Expired, res.Completed, res.Failed)
        }
    })
    if err != nil {
        return err
    }
    s.cron.Start()
    return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
    ctx := s.cron.Stop()
    <-ctx.Done()
}
