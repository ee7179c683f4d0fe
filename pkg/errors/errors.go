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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrRingClosed occurs when operating on a ring after teardown.
	ErrRingClosed = errors.New("ring is closed")
	// ErrInvalidQueueDepth occurs when a ring is created with a non-positive queue depth.
	ErrInvalidQueueDepth = errors.New("queue depth must be a positive integer")
	// ErrRequestNotPrepared occurs when submitting a request without a prepared operation.
	ErrRequestNotPrepared = errors.New("request has no prepared operation")
	// ErrRequestAlreadySubmitted occurs when preparing a request that is in flight.
	ErrRequestAlreadySubmitted = errors.New("request already submitted")
	// ErrNegativeLength occurs when a read or receive length is negative.
	ErrNegativeLength = errors.New("length must be non-negative")
	// ErrInvalidAddress occurs when a textual address cannot be parsed.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrUnsupportedAddressFamily occurs for any address family other than IPv4.
	ErrUnsupportedAddressFamily = errors.New("only the IPv4 address family is supported")
	// ErrInvalidPort occurs when a port is outside the 0-65535 range.
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidTimeDuration occurs when a specified time duration is not valid.
	ErrInvalidTimeDuration = errors.New("invalid time duration")
	// ErrNilTargetRequest occurs when a cancel or timeout-remove has no target.
	ErrNilTargetRequest = errors.New("target request is nil")
	// ErrEmptyPath occurs when an openat path is empty.
	ErrEmptyPath = errors.New("path is empty")
	// ErrNoPeerAddress occurs when reading a peer address from a request that has none.
	ErrNoPeerAddress = errors.New("request holds no peer address")
)

func ErrorNegativeLength(length int) error {
	return fmt.Errorf("%w, got: %d", ErrNegativeLength, length)
}

func ErrorInvalidAddress(address string) error {
	return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
}

func ErrorInvalidPort(port int) error {
	return fmt.Errorf("%w: %d", ErrInvalidPort, port)
}
