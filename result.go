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
	"syscall"

	"github.com/pawelgaczynski/uring/iouring"
)

// DecodedResult converts the raw result code into a caller-facing value
// according to the prepared opcode:
//
//   - any negative result decodes to syscall.Errno(-result), before any
//     opcode-specific interpretation;
//   - nop yields nil;
//   - read and recv yield the owned buffer truncated to exactly the number
//     of bytes transferred;
//   - every other opcode yields the raw result as an int (bytes written,
//     the accepted or opened descriptor, and so on).
func (c *Completion) DecodedResult() (any, error) {
	if c.res < 0 {
		return nil, syscall.Errno(-c.res)
	}

	switch c.request.opCode {
	case iouring.OpNop:
		return nil, nil
	case iouring.OpRead, iouring.OpRecv:
		return c.request.buffer.owned[:c.res], nil
	default:
		return int(c.res), nil
	}
}
