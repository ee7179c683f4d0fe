// Copyright (c) 2023 Paweł Gaczyński
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uring

import (
	goErrors "errors"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/pawelgaczynski/uring/iouring"
	"github.com/pawelgaczynski/uring/logger"
	uringErrors "github.com/pawelgaczynski/uring/pkg/errors"
)

// Ring owns one kernel io_uring instance and tracks the lifecycle of every
// Request that passes through it. All methods of a Ring and of its Requests
// and Completions must be called from one goroutine at a time; independent
// Rings are fully isolated and may run concurrently.
//
// The lifecycle contract:
//
//	AcquireRequest -> Prepare* -> Submit -> Wait/Peek -> Acknowledge
//
// Submit pins each Request in the in-flight table keyed by its token. The
// pin, not the caller's reference, keeps the Request and its buffers alive
// until Acknowledge, so operations stay safe even when the caller's scope
// ends before the kernel finishes.
type Ring struct {
	ring     *iouring.Ring
	logger   zerolog.Logger
	pending  []*Request
	inflight map[uint64]*Request
	cqeBuff  []*iouring.CompletionQueueEvent

	nextToken uint64
	closed    bool
}

// NewRing creates a Ring with an initialized kernel queue. The queue depth
// must be positive; kernel failures (resource limits, invalid flags) are
// returned as setup errors. The Ring must be released with Close.
func NewRing(options ...RingOption) (*Ring, error) {
	config := NewConfig(options...)
	if config.entries == 0 {
		return nil, uringErrors.ErrInvalidQueueDepth
	}

	raw, err := iouring.CreateRingWithFlags(config.entries, config.flags)
	if err != nil {
		return nil, errors.Wrap(err, "ring setup error")
	}

	ring := &Ring{
		ring:      raw,
		logger:    logger.NewLogger("ring", config.loggerLevel, config.prettyLogger),
		inflight:  make(map[uint64]*Request),
		cqeBuff:   make([]*iouring.CompletionQueueEvent, config.maxCQEvents),
		nextToken: 1,
	}
	ring.logger.Debug().Uint("entries", config.entries).Uint32("flags", config.flags).Msg("ring created")

	return ring, nil
}

// Close tears the kernel queue down. It must be called exactly once; any
// Ring operation after Close reports ErrRingClosed instead of touching the
// released native context.
func (r *Ring) Close() error {
	if r.closed {
		return uringErrors.ErrRingClosed
	}
	r.closed = true
	r.pending = nil
	r.inflight = nil

	return errors.Wrap(r.ring.QueueExit(), "ring teardown error")
}

// AcquireRequest allocates a Request backed by a reserved submission queue
// entry and appends it to the pending list. Submission queue exhaustion is
// reported as an error rather than handing out a Request with no native
// slot.
func (r *Ring) AcquireRequest() (*Request, error) {
	if r.closed {
		return nil, uringErrors.ErrRingClosed
	}

	entry, err := r.ring.GetSQE()
	if err != nil {
		return nil, err
	}

	req := &Request{
		ring:  r,
		entry: entry,
		token: r.nextToken,
		fd:    -1,
	}
	r.nextToken++
	r.pending = append(r.pending, req)

	return req, nil
}

// Submit hands every pending Request to the kernel: each submission queue
// entry is tagged with its Request's token and the Request is pinned in the
// in-flight table, then the batch is flushed. Returns the number of entries
// consumed by the kernel.
//
// The pins are taken before the kernel call, so a flush failure leaves the
// already-tagged entries pinned; they surface through a later retrieval or
// cancel rather than being dropped.
func (r *Ring) Submit() (int, error) {
	if r.closed {
		return 0, uringErrors.ErrRingClosed
	}

	for _, req := range r.pending {
		if !req.prepared {
			return 0, uringErrors.ErrRequestNotPrepared
		}
	}
	for _, req := range r.pending {
		req.entry.UserData = req.token
		req.submitted = true
		r.inflight[req.token] = req
	}
	r.pending = r.pending[:0]

	submitted, err := r.ring.Submit()
	if err != nil {
		return 0, errors.Wrap(err, "submit error")
	}
	r.logger.Debug().Uint("submitted", submitted).Msg("entries submitted")

	return int(submitted), nil
}

// Wait blocks until at least minCount completions are available and returns
// every completion currently ready, in kernel delivery order. minCount of
// zero never blocks and returns whatever has already completed, possibly
// nothing.
func (r *Ring) Wait(minCount uint32) ([]*Completion, error) {
	if r.closed {
		return nil, uringErrors.ErrRingClosed
	}

	for minCount > 0 && r.ring.CQReady() < minCount {
		err := r.ring.WaitCQENr(minCount)
		if err == nil {
			break
		}
		if goErrors.Is(err, iouring.ErrInterrupredSyscall) {
			continue
		}

		return nil, errors.Wrap(err, "wait error")
	}

	return r.collectReady(), nil
}

// WaitTimeout behaves like Wait bounded by a duration given as floating
// point seconds. The timeout always applies: zero means a bounded wait of
// zero duration, not "wait forever" (an unbounded wait is what Wait is
// for). Timer expiry is not an error; the call returns whatever completed.
func (r *Ring) WaitTimeout(minCount uint32, seconds float64) ([]*Completion, error) {
	if r.closed {
		return nil, uringErrors.ErrRingClosed
	}
	if seconds < 0 {
		return nil, uringErrors.ErrInvalidTimeDuration
	}

	ts := syscall.Timespec{
		Sec:  int64(seconds),
		Nsec: int64((seconds - float64(int64(seconds))) * 1e9),
	}
	if minCount > 0 && r.ring.CQReady() < minCount {
		err := r.ring.WaitCQEsTimeout(minCount, &ts)
		if err != nil &&
			!goErrors.Is(err, iouring.ErrTimerExpired) &&
			!goErrors.Is(err, iouring.ErrInterrupredSyscall) {
			return nil, errors.Wrap(err, "wait error")
		}
	}

	return r.collectReady(), nil
}

// Peek returns every completion already available without blocking.
func (r *Ring) Peek() ([]*Completion, error) {
	return r.Wait(0)
}

// Acknowledge releases the completion's native queue slot and the pin taken
// on its Request at submission time. Idempotent: only the first call per
// Completion advances the queue and unpins.
func (r *Ring) Acknowledge(c *Completion) {
	if c.seen {
		return
	}
	if r.closed {
		r.logger.Warn().Uint64("token", c.request.token).Msg("acknowledge on closed ring")

		return
	}
	c.seen = true
	r.ring.CQAdvance(1)
	delete(r.inflight, c.request.token)
	c.request.completion = nil
}

// collectReady drains the ready completion queue entries and resolves each
// one to its Request through the in-flight table. A Request with a live
// wrapper yields that same wrapper again; otherwise a new one is created
// and cached on the Request.
func (r *Ring) collectReady() []*Completion {
	count := r.ring.PeekBatchCQE(r.cqeBuff)
	completions := make([]*Completion, 0, count)

	for _, cqe := range r.cqeBuff[:count] {
		req, ok := r.inflight[cqe.UserData()]
		if !ok {
			r.logger.Warn().Uint64("token", cqe.UserData()).Msg("completion with unknown token")

			continue
		}
		if req.completion != nil {
			completions = append(completions, req.completion)

			continue
		}
		completion := &Completion{
			ring:    r,
			request: req,
			res:     cqe.Res(),
			flags:   cqe.Flags(),
		}
		req.completion = completion
		completions = append(completions, completion)
	}

	return completions
}

// SubmissionReady returns the number of prepared submission queue entries
// not yet flushed to the kernel.
func (r *Ring) SubmissionReady() uint32 {
	return r.ring.SQReady()
}

// SubmissionSpaceLeft returns the number of submission queue entries that
// can still be acquired before the queue is full.
func (r *Ring) SubmissionSpaceLeft() uint32 {
	return r.ring.SQSpaceLeft()
}

// CompletionReady returns the number of completions waiting to be
// retrieved.
func (r *Ring) CompletionReady() uint32 {
	return r.ring.CQReady()
}

// CompletionEventFdEnabled reports whether completions are signalled on the
// eventfd registered with RegisterEventFd.
func (r *Ring) CompletionEventFdEnabled() bool {
	return r.ring.CQEventFdEnabled()
}

// RegisterEventFd registers fd to be signalled on every posted completion.
func (r *Ring) RegisterEventFd(fd int) error {
	if r.closed {
		return uringErrors.ErrRingClosed
	}

	return r.ring.RegisterEventFd(fd)
}

func (r *Ring) UnregisterEventFd() error {
	if r.closed {
		return uringErrors.ErrRingClosed
	}

	return r.ring.UnregisterEventFd()
}

// Fd returns the ring's file descriptor.
func (r *Ring) Fd() int {
	return r.ring.Fd()
}
