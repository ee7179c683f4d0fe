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

// Package socket provides raw IPv4 TCP sockets for use with io_uring
// operations, which work on file descriptors rather than net.Conn values.
package socket

import (
	"net"
	"os"

	uringErrors "github.com/pawelgaczynski/uring/pkg/errors"
	"golang.org/x/sys/unix"
)

// SetNoDelay controls whether the operating system should delay packet
// transmission in hopes of sending fewer packets (Nagle's algorithm).
func SetNoDelay(fd, noDelay int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, noDelay))
}

// SetReuseAddr enables SO_REUSEADDR on the socket.
func SetReuseAddr(fd, reuseAddr int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, reuseAddr))
}

// SetReusePort enables SO_REUSEPORT on the socket, allowing multiple
// listeners on the same address. Combined with a CPU steering filter it
// spreads incoming connections over independent rings.
func SetReusePort(fd, reusePort int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, reusePort))
}

// ListenTCP4 creates a blocking IPv4 TCP listening socket bound to
// address:port and returns its descriptor. The caller owns the descriptor.
func ListenTCP4(address string, port int, reusePort bool) (int, error) {
	ip := net.ParseIP(address)
	if ip == nil {
		return -1, uringErrors.ErrorInvalidAddress(address)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return -1, uringErrors.ErrUnsupportedAddressFamily
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}

	if err = SetReuseAddr(fd, 1); err != nil {
		_ = unix.Close(fd)

		return -1, err
	}
	if reusePort {
		if err = SetReusePort(fd, 1); err != nil {
			_ = unix.Close(fd)

			return -1, err
		}
	}

	sockAddr := &unix.SockaddrInet4{Port: port}
	copy(sockAddr.Addr[:], ip4)

	if err = unix.Bind(fd, sockAddr); err != nil {
		_ = unix.Close(fd)

		return -1, os.NewSyscallError("bind", err)
	}
	if err = unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(fd)

		return -1, os.NewSyscallError("listen", err)
	}

	return fd, nil
}

// Port returns the local port a socket is bound to. Useful after binding
// port 0.
func Port(fd int) (int, error) {
	sockAddr, err := unix.Getsockname(fd)
	if err != nil {
		return 0, os.NewSyscallError("getsockname", err)
	}

	inet4, ok := sockAddr.(*unix.SockaddrInet4)
	if !ok {
		return 0, uringErrors.ErrUnsupportedAddressFamily
	}

	return inet4.Port, nil
}
