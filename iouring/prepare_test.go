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

package iouring_test

import (
	"testing"

	"github.com/pawelgaczynski/uring/iouring"
	"github.com/stretchr/testify/assert"
)

func TestPrepareNop(t *testing.T) {
	entry := &iouring.SubmissionQueueEntry{UserData: 7}
	entry.PrepareNop()

	assert.Equal(t, uint8(0), entry.OpCode)
	assert.Equal(t, int32(-1), entry.Fd)
	assert.Equal(t, uint64(0), entry.UserData)
}

func TestPrepareRead(t *testing.T) {
	entry := &iouring.SubmissionQueueEntry{}
	entry.PrepareRead(10, 100, 200, 60)

	assert.Equal(t, uint8(22), entry.OpCode)
	assert.Equal(t, int32(10), entry.Fd)
	assert.Equal(t, uint64(100), entry.Addr)
	assert.Equal(t, uint32(200), entry.Len)
	assert.Equal(t, uint64(60), entry.Off)
}

func TestPrepareWrite(t *testing.T) {
	entry := &iouring.SubmissionQueueEntry{}
	entry.PrepareWrite(10, 100, 200, 60)

	assert.Equal(t, uint8(23), entry.OpCode)
	assert.Equal(t, int32(10), entry.Fd)
	assert.Equal(t, uint64(100), entry.Addr)
	assert.Equal(t, uint32(200), entry.Len)
	assert.Equal(t, uint64(60), entry.Off)
}

func TestPrepareAccept(t *testing.T) {
	entry := &iouring.SubmissionQueueEntry{}
	entry.PrepareAccept(10, 100, 200, 60)

	assert.Equal(t, uint8(13), entry.OpCode)
	assert.Equal(t, int32(10), entry.Fd)
	assert.Equal(t, uint64(100), entry.Addr)
	assert.Equal(t, uint64(200), entry.Off)
	assert.Equal(t, uint32(60), entry.OpcodeFlags)
}

func TestPrepareConnect(t *testing.T) {
	entry := &iouring.SubmissionQueueEntry{}
	entry.PrepareConnect(10, 100, 16)

	assert.Equal(t, uint8(16), entry.OpCode)
	assert.Equal(t, int32(10), entry.Fd)
	assert.Equal(t, uint64(100), entry.Addr)
	assert.Equal(t, uint64(16), entry.Off)
}

func TestPrepareClose(t *testing.T) {
	entry := &iouring.SubmissionQueueEntry{}
	entry.PrepareClose(10)

	assert.Equal(t, uint8(19), entry.OpCode)
	assert.Equal(t, int32(10), entry.Fd)
}

func TestPrepareCancel(t *testing.T) {
	entry := &iouring.SubmissionQueueEntry{}
	entry.PrepareCancel(12345, 1)

	assert.Equal(t, uint8(14), entry.OpCode)
	assert.Equal(t, int32(-1), entry.Fd)
	assert.Equal(t, uint64(12345), entry.Addr)
	assert.Equal(t, uint32(1), entry.OpcodeFlags)
}

func TestPrepareTimeoutRemove(t *testing.T) {
	entry := &iouring.SubmissionQueueEntry{}
	entry.PrepareTimeoutRemove(12345, 0)

	assert.Equal(t, uint8(12), entry.OpCode)
	assert.Equal(t, int32(-1), entry.Fd)
	assert.Equal(t, uint64(12345), entry.Addr)
}

func TestPrepareOpenat(t *testing.T) {
	entry := &iouring.SubmissionQueueEntry{}
	entry.PrepareOpenat(-100, 100, 64, 0o644)

	assert.Equal(t, uint8(18), entry.OpCode)
	assert.Equal(t, int32(-100), entry.Fd)
	assert.Equal(t, uint64(100), entry.Addr)
	assert.Equal(t, uint32(0o644), entry.Len)
	assert.Equal(t, uint32(64), entry.OpcodeFlags)
}
