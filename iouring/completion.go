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

package iouring

import (
	"math"
	"sync/atomic"
	"syscall"
	"unsafe"
)

const (
	CQEFBuffer uint32 = 1 << iota
	CQEFMore
	CQEFSockNonempty
	CQEFNotif
)

const CQEventFdDisabled uint32 = 1 << 0

type CompletionQueueEvent struct {
	userData uint64
	res      int32
	flags    uint32
}

func (c *CompletionQueueEvent) UserData() uint64 {
	return c.userData
}

func (c *CompletionQueueEvent) Res() int32 {
	return c.res
}

func (c *CompletionQueueEvent) Flags() uint32 {
	return c.flags
}

type getEventsArg struct {
	sigMask   uintptr
	sigMaskSz uint32
	pad       uint32
	ts        uintptr
}

func (ring *Ring) peekBatchCQEInternal(cqes []*CompletionQueueEvent) int {
	ready := atomic.LoadUint32(ring.cqRing.tail) - atomic.LoadUint32(ring.cqRing.head)
	count := min(len(cqes), int(ready))
	if ready != 0 {
		head := atomic.LoadUint32(ring.cqRing.head)
		mask := atomic.LoadUint32(ring.cqRing.ringMask)
		last := head + uint32(count)
		for i := 0; head != last; head, i = head+1, i+1 {
			cqes[i] = (*CompletionQueueEvent)(
				unsafe.Add(
					unsafe.Pointer(ring.cqRing.cqeBuff),
					uintptr(head&mask)*unsafe.Sizeof(CompletionQueueEvent{}),
				),
			)
		}
	}
	return count
}

func (ring *Ring) PeekBatchCQE(cqes []*CompletionQueueEvent) int {
	numberOfCQEs := ring.peekBatchCQEInternal(cqes)
	if numberOfCQEs == 0 {
		if ring.cqRingNeedsFlush() {
			flags := EnterGetEvents
			if ring.intFlags&IntFlagRegRing > 0 {
				flags |= EnterRegisteredRing
			}
			_, _ = ring.enter(0, 0, flags, nil)
			numberOfCQEs = ring.peekBatchCQEInternal(cqes)
		}
	}
	return numberOfCQEs
}

// WaitCQENr blocks until at least waitNr completions are available. It does
// not consume them; the caller peeks and advances the queue head itself.
func (ring *Ring) WaitCQENr(waitNr uint32) error {
	for {
		available, _, err := ring.peekCQE()
		if err != nil {
			return err
		}
		if available >= waitNr {
			return nil
		}
		flags := EnterGetEvents
		if ring.intFlags&IntFlagRegRing > 0 {
			flags |= EnterRegisteredRing
		}
		_, err = ring.enter(0, waitNr, flags, nil)
		if err != nil {
			return err
		}
	}
}

func (ring *Ring) CQESeen(event *CompletionQueueEvent) {
	if event != nil {
		ring.CQAdvance(1)
	}
}

func (ring *Ring) cqRingNeedsFlush() bool {
	return atomic.LoadUint32(ring.sqRing.flags)&SQCQOverflow != 0
}

func (ring *Ring) CQAdvance(nr uint32) {
	atomic.StoreUint32(ring.cqRing.head, *ring.cqRing.head+nr)
}

func (ring *Ring) CQReady() uint32 {
	return atomic.LoadUint32(ring.cqRing.tail) - atomic.LoadUint32(ring.cqRing.head)
}

// CQEventFdEnabled reports whether completions are signalled on the
// registered eventfd. Kernels without completion queue flags cannot disable
// the eventfd, so the answer defaults to true.
func (ring *Ring) CQEventFdEnabled() bool {
	if ring.cqRing.flags == 0 {
		return true
	}

	return atomic.LoadUint32((*uint32)(unsafe.Pointer(ring.cqRing.flags)))&CQEventFdDisabled == 0
}

func (ring *Ring) peekCQE() (uint32, *CompletionQueueEvent, error) {
	mask := *ring.cqRing.ringMask
	var err error
	var event *CompletionQueueEvent
	var available uint32
	for {
		tail := atomic.LoadUint32(ring.cqRing.tail)
		head := atomic.LoadUint32(ring.cqRing.head)
		event = nil
		available = tail - head
		if available == 0 {
			break
		}
		event = (*CompletionQueueEvent)(
			unsafe.Add(unsafe.Pointer(ring.cqRing.cqeBuff), uintptr(head&mask)*unsafe.Sizeof(CompletionQueueEvent{})),
		)
		if !(ring.params.features&FeatExtArg != 0) && event.UserData() == math.MaxUint64 {
			if event.Res() < 0 {
				err = syscall.Errno(uintptr(-event.Res()))
			}
			ring.CQAdvance(1)
			if err == nil {
				continue
			}
			event = nil
		}
		break
	}
	return available, event, err
}
