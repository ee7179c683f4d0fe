// Copyright (c) 2023 Paweł Gaczyński
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package uring is a lifecycle-safe binding over the Linux io_uring
// interface. Callers describe operations on Requests acquired from a Ring,
// submit them in batches and later retrieve Completions correlating kernel
// results back to the originating Requests.
//
// The package guarantees that a submitted Request and its buffers stay alive
// until its Completion is acknowledged, that retrieving the completion of an
// outstanding Request repeatedly yields one identity-stable wrapper, and
// that results decode according to the prepared opcode. The raw kernel
// interface lives in the iouring subpackage.
//
// A Ring and its Requests and Completions belong to one goroutine at a
// time. There is no background delivery: completions are observed only
// through Wait, WaitTimeout and Peek. Cancellation and timeouts are
// themselves submitted operations, not call-level deadlines.
package uring
