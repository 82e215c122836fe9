package blobsvc

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
)

// Cleaner deletes blobs in the background. Failed deletions are retried on a cron schedule
// until they succeed or MaxRetries is reached.
type Cleaner struct {
	store      core.BlobStore
	logger     core.Logger
	timeout    time.Duration
	maxRetries int
	cron       *cron.Cron

	mu       sync.Mutex
	failures map[string]int // blob id: failed attempts
	wg       sync.WaitGroup
}

var _ core.BlobScheduler = (*Cleaner)(nil)

func NewCleaner(store core.BlobStore, logger core.Logger, conf core.BlobConfig) (*Cleaner, error) {
	cl := &Cleaner{
		store:      store,
		logger:     logger,
		timeout:    conf.RequestTimeout,
		maxRetries: conf.MaxRetries,
		cron:       cron.New(),
		failures:   make(map[string]int),
	}
	if cl.timeout <= 0 {
		cl.timeout = 10 * time.Second
	}
	if _, err := cl.cron.AddFunc(conf.RetrySchedule, cl.RetryFailed); err != nil {
		return nil, errors.Wrapf(err, "scheduling blob retries %q", conf.RetrySchedule)
	}
	return cl, nil
}

// Start starts the retry schedule.
func (cl *Cleaner) Start() { cl.cron.Start() }

// Stop stops the retry schedule and waits for the running deletions.
func (cl *Cleaner) Stop() {
	<-cl.cron.Stop().Done()
	cl.wg.Wait()
}

// Schedule deletes the blobs asynchronously.
func (cl *Cleaner) Schedule(ids ...string) {
	for _, id := range ids {
		cl.wg.Add(1)
		go func(id string) {
			defer cl.wg.Done()
			cl.delete(id)
		}(id)
	}
}

// Wait blocks until the scheduled deletions are done.
func (cl *Cleaner) Wait() { cl.wg.Wait() }

// RetryFailed retries the failed deletions, synchronously.
func (cl *Cleaner) RetryFailed() {
	for _, id := range cl.Failed() {
		cl.delete(id)
	}
}

// Failed returns the blobs waiting for a retry.
func (cl *Cleaner) Failed() []string {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	ids := make([]string, 0, len(cl.failures))
	for id := range cl.failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (cl *Cleaner) delete(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), cl.timeout)
	defer cancel()
	err := cl.store.DeleteBlob(ctx, id)

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if err == nil {
		delete(cl.failures, id)
		return
	}

	cl.failures[id]++
	extra := map[string]interface{}{"blob": id, "attempts": cl.failures[id]}
	if errors.Is(err, core.ErrBlobStoreUnavailable) || cl.failures[id] > cl.maxRetries {
		delete(cl.failures, id)
		cl.logger.Error("giving up deleting blob", err, extra)
		return
	}
	cl.logger.Warn("deleting blob failed, will retry", err, extra)
}
