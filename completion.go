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

// Completion wraps one finished operation. It snapshots the raw completion
// queue event at retrieval, so its result stays readable after the native
// slot has been released by Acknowledge.
//
// At most one live Completion exists per in-flight Request: repeated
// Wait/Peek calls before acknowledgment resolve to the same instance. The
// Completion holds the only strong reference back to its Request; the
// Request side is a cache slot cleared on acknowledgment.
type Completion struct {
	ring    *Ring
	request *Request
	res     int32
	flags   uint32
	seen    bool
}

// RawResult returns the signed result code as delivered by the kernel. A
// negative value encodes an OS error whose code is the magnitude.
func (c *Completion) RawResult() int32 {
	return c.res
}

func (c *Completion) Flags() uint32 {
	return c.flags
}

// UserData returns the caller value attached to the originating Request.
func (c *Completion) UserData() any {
	return c.request.data
}

// Request returns the originating Request.
func (c *Completion) Request() *Request {
	return c.request
}

func (c *Completion) Acknowledged() bool {
	return c.seen
}

// Acknowledge releases the native completion slot back to the queue and
// drops the pin taken on the Request at submission time. It is idempotent:
// a second call does nothing. The snapshot held by this wrapper remains
// readable afterwards.
func (c *Completion) Acknowledge() {
	c.ring.Acknowledge(c)
}
