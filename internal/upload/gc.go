package upload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Janitor periodically reclaims abandoned upload state: stale staging
// directories on disk and stale multipart sessions on the remote store.
// A sweep failure is logged and never crashes the process or blocks the
// next scheduled sweep.
type Janitor struct {
	store   ObjectStore
	staging *Staging
	prefix  string

	interval   time.Duration
	maxAge     time.Duration
	startDelay time.Duration

	log  *zap.SugaredLogger
	stop chan struct{}
	wg   sync.WaitGroup
}

type JanitorConfig struct {
	Interval   time.Duration // default 2h
	MaxAge     time.Duration // default 2h
	StartDelay time.Duration // default 5s, catches leaks from a crash-restart
}

func NewJanitor(store ObjectStore, staging *Staging, prefix string, cfg JanitorConfig, log *zap.SugaredLogger) *Janitor {
	if cfg.Interval == 0 {
		cfg.Interval = 2 * time.Hour
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 2 * time.Hour
	}
	if cfg.StartDelay == 0 {
		cfg.StartDelay = 5 * time.Second
	}
	return &Janitor{
		store:      store,
		staging:    staging,
		prefix:     prefix,
		interval:   cfg.Interval,
		maxAge:     cfg.MaxAge,
		startDelay: cfg.StartDelay,
		log:        log,
		stop:       make(chan struct{}),
	}
}

func (j *Janitor) Start() {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		select {
		case <-time.After(j.startDelay):
		case <-j.stop:
			return
		}
		j.runOnce()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.runOnce()
			case <-j.stop:
				return
			}
		}
	}()
}

func (j *Janitor) Stop() {
	close(j.stop)
	j.wg.Wait()
}

func (j *Janitor) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			j.log.Errorw("janitor sweep panicked", "panic", r)
		}
	}()
	j.SweepLocal()
	j.SweepRemote(context.Background())
}

// SweepLocal evicts staging directories idle for longer than maxAge.
func (j *Janitor) SweepLocal() {
	removed, err := j.staging.Sweep(j.maxAge)
	if err != nil {
		j.log.Errorw("local sweep failed", "error", err)
		return
	}
	j.log.Infow("local sweep finished", "removed", removed)
}

// SweepRemote aborts multipart sessions under the prefix whose Initiated
// timestamp is older than maxAge. A single failed abort does not stop
// the sweep.
func (j *Janitor) SweepRemote(ctx context.Context) {
	uploads, err := j.store.ListMultipartUploads(ctx, j.prefix)
	if err != nil {
		j.log.Errorw("remote sweep: list multipart uploads failed", "error", err)
		return
	}
	cutoff := time.Now().Add(-j.maxAge)
	aborted, skipped := 0, 0
	for _, u := range uploads {
		if u.Initiated.After(cutoff) {
			skipped++
			continue
		}
		if err := j.store.AbortMultipart(ctx, u.Key, u.UploadID); err != nil {
			j.log.Warnw("remote sweep: abort failed", "key", u.Key, "uploadId", u.UploadID, "error", err)
			continue
		}
		aborted++
	}
	j.log.Infow("remote sweep finished", "aborted", aborted, "skipped", skipped)
}
