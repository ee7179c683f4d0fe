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

package uring_test

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	. "github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/pawelgaczynski/uring"
	"github.com/pawelgaczynski/uring/pkg/socket"
)

func submitAndWaitOne(t *testing.T, ring *uring.Ring) *uring.Completion {
	t.Helper()

	_, err := ring.Submit()
	NoError(t, err)

	completions, err := ring.Wait(1)
	NoError(t, err)
	Len(t, completions, 1)

	return completions[0]
}

func TestWriteReadRoundTrip(t *testing.T) {
	ring := newTestRing(t, uring.WithEntries(4))
	defer func() {
		_ = ring.Close()
	}()

	file, err := os.CreateTemp(t.TempDir(), "roundtrip")
	NoError(t, err)
	defer func() {
		_ = file.Close()
	}()

	payload := []byte("hello uring")

	req, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, req.PrepareWrite(int(file.Fd()), payload, 0))

	completion := submitAndWaitOne(t, ring)
	result, err := completion.DecodedResult()
	NoError(t, err)
	Equal(t, len(payload), result)
	completion.Acknowledge()

	// Read more than was written: the decoded buffer must be truncated to
	// the transferred byte count.
	req, err = ring.AcquireRequest()
	NoError(t, err)
	NoError(t, req.PrepareRead(int(file.Fd()), 64, 0))

	completion = submitAndWaitOne(t, ring)
	result, err = completion.DecodedResult()
	NoError(t, err)
	Equal(t, payload, result)
	completion.Acknowledge()
}

func TestReadBadDescriptor(t *testing.T) {
	ring := newTestRing(t, uring.WithEntries(4))
	defer func() {
		_ = ring.Close()
	}()

	req, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, req.PrepareRead(-1, 8, 0))

	completion := submitAndWaitOne(t, ring)
	Less(t, completion.RawResult(), int32(0))

	result, err := completion.DecodedResult()
	Nil(t, result)
	ErrorIs(t, err, syscall.EBADF)
	completion.Acknowledge()
}

func TestSendRecvSocketpair(t *testing.T) {
	ring := newTestRing(t, uring.WithEntries(4))
	defer func() {
		_ = ring.Close()
	}()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	NoError(t, err)
	defer func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	}()

	payload := []byte("ping")

	sendReq, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, sendReq.PrepareSend(fds[0], payload, 0))

	completion := submitAndWaitOne(t, ring)
	result, err := completion.DecodedResult()
	NoError(t, err)
	Equal(t, len(payload), result)
	completion.Acknowledge()

	recvReq, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, recvReq.PrepareRecv(fds[1], 64, 0))

	completion = submitAndWaitOne(t, ring)
	result, err = completion.DecodedResult()
	NoError(t, err)
	Equal(t, payload, result)
	completion.Acknowledge()
}

func TestTimeoutExpires(t *testing.T) {
	ring := newTestRing(t, uring.WithEntries(4))
	defer func() {
		_ = ring.Close()
	}()

	req, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, req.PrepareTimeout(0.001, 0, 0))

	completion := submitAndWaitOne(t, ring)
	_, err = completion.DecodedResult()
	ErrorIs(t, err, syscall.ETIME)
	completion.Acknowledge()
}

func TestTimeoutRemove(t *testing.T) {
	ring := newTestRing(t, uring.WithEntries(4))
	defer func() {
		_ = ring.Close()
	}()

	timeoutReq, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, timeoutReq.PrepareTimeout(60, 0, 0))
	_, err = ring.Submit()
	NoError(t, err)

	removeReq, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, removeReq.PrepareTimeoutRemove(timeoutReq, 0))
	_, err = ring.Submit()
	NoError(t, err)

	completions, err := ring.Wait(2)
	NoError(t, err)
	Len(t, completions, 2)

	for _, completion := range completions {
		switch completion.Request() {
		case timeoutReq:
			_, decodeErr := completion.DecodedResult()
			ErrorIs(t, decodeErr, syscall.ECANCELED)
		case removeReq:
			result, decodeErr := completion.DecodedResult()
			NoError(t, decodeErr)
			Equal(t, 0, result)
		default:
			Fail(t, "unexpected completion")
		}
		completion.Acknowledge()
	}
}

func TestCancelBlockedRecv(t *testing.T) {
	ring := newTestRing(t, uring.WithEntries(4))
	defer func() {
		_ = ring.Close()
	}()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	NoError(t, err)
	defer func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	}()

	recvReq, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, recvReq.PrepareRecv(fds[1], 64, 0))
	_, err = ring.Submit()
	NoError(t, err)

	cancelReq, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, cancelReq.PrepareCancel(recvReq, 0))
	_, err = ring.Submit()
	NoError(t, err)

	completions, err := ring.Wait(2)
	NoError(t, err)
	Len(t, completions, 2)

	for _, completion := range completions {
		switch completion.Request() {
		case recvReq:
			_, decodeErr := completion.DecodedResult()
			ErrorIs(t, decodeErr, syscall.ECANCELED)
		case cancelReq:
			result, decodeErr := completion.DecodedResult()
			NoError(t, decodeErr)
			Equal(t, 0, result)
		default:
			Fail(t, "unexpected completion")
		}
		completion.Acknowledge()
	}
}

func TestAcceptConnect(t *testing.T) {
	ring := newTestRing(t, uring.WithEntries(8))
	defer func() {
		_ = ring.Close()
	}()

	listenFd, err := socket.ListenTCP4("127.0.0.1", 0, false)
	NoError(t, err)
	defer func() {
		_ = unix.Close(listenFd)
	}()

	port, err := socket.Port(listenFd)
	NoError(t, err)

	acceptReq, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, acceptReq.PrepareAccept(listenFd, 0))
	_, err = ring.Submit()
	NoError(t, err)

	clientConn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	NoError(t, err)
	defer func() {
		_ = clientConn.Close()
	}()

	completions, err := ring.Wait(1)
	NoError(t, err)
	Len(t, completions, 1)

	result, err := completions[0].DecodedResult()
	NoError(t, err)
	connFd, ok := result.(int)
	True(t, ok)
	Greater(t, connFd, 0)
	defer func() {
		_ = unix.Close(connFd)
	}()

	peerIP, peerPort, err := acceptReq.PeerAddress()
	NoError(t, err)
	Equal(t, "127.0.0.1", peerIP)
	Greater(t, peerPort, 0)
	completions[0].Acknowledge()
}

func TestConnectToListener(t *testing.T) {
	ring := newTestRing(t, uring.WithEntries(8))
	defer func() {
		_ = ring.Close()
	}()

	listenFd, err := socket.ListenTCP4("127.0.0.1", 0, false)
	NoError(t, err)
	defer func() {
		_ = unix.Close(listenFd)
	}()

	port, err := socket.Port(listenFd)
	NoError(t, err)

	clientFd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	NoError(t, err)
	defer func() {
		_ = unix.Close(clientFd)
	}()

	req, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, req.PrepareConnect(clientFd, "127.0.0.1", port))

	completion := submitAndWaitOne(t, ring)
	result, err := completion.DecodedResult()
	NoError(t, err)
	Equal(t, 0, result)
	completion.Acknowledge()
}

func TestOpenatReadClose(t *testing.T) {
	ring := newTestRing(t, uring.WithEntries(8))
	defer func() {
		_ = ring.Close()
	}()

	path := filepath.Join(t.TempDir(), "openat.txt")
	content := []byte("file content")
	NoError(t, os.WriteFile(path, content, 0o644))

	openReq, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, openReq.PrepareOpenat(unix.AT_FDCWD, path, unix.O_RDONLY, 0))

	completion := submitAndWaitOne(t, ring)
	result, err := completion.DecodedResult()
	NoError(t, err)
	fd, ok := result.(int)
	True(t, ok)
	Greater(t, fd, 0)
	completion.Acknowledge()

	readReq, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, readReq.PrepareRead(fd, 64, 0))

	completion = submitAndWaitOne(t, ring)
	result, err = completion.DecodedResult()
	NoError(t, err)
	Equal(t, content, result)
	completion.Acknowledge()

	closeReq, err := ring.AcquireRequest()
	NoError(t, err)
	NoError(t, closeReq.PrepareClose(fd))

	completion = submitAndWaitOne(t, ring)
	result, err = completion.DecodedResult()
	NoError(t, err)
	Equal(t, 0, result)
	completion.Acknowledge()
}

func TestSubmittedRequestSurvivesDroppedReference(t *testing.T) {
	ring := newTestRing(t, uring.WithEntries(4))
	defer func() {
		_ = ring.Close()
	}()

	file, err := os.CreateTemp(t.TempDir(), "pinned")
	NoError(t, err)
	defer func() {
		_ = file.Close()
	}()

	_, err = file.Write([]byte("pinned data"))
	NoError(t, err)

	func() {
		req, acquireErr := ring.AcquireRequest()
		NoError(t, acquireErr)
		NoError(t, req.PrepareRead(int(file.Fd()), 32, 0))
		_, acquireErr = ring.Submit()
		NoError(t, acquireErr)
	}()

	completions, err := ring.Wait(1)
	NoError(t, err)
	Len(t, completions, 1)

	result, err := completions[0].DecodedResult()
	NoError(t, err)
	Equal(t, []byte("pinned data"), result)
	completions[0].Acknowledge()
}
