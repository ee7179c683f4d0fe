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

package uring

import (
	"github.com/rs/zerolog"
)

const (
	defaultEntries     = 64
	defaultMaxCQEvents = 512
)

type ConfigOption[T any] func(*T)

type RingOption ConfigOption[Config]

type Config struct {
	entries      uint
	flags        uint32
	maxCQEvents  uint
	loggerLevel  zerolog.Level
	prettyLogger bool
}

// WithEntries sets the requested submission queue depth.
func WithEntries(entries uint) RingOption {
	return func(c *Config) {
		c.entries = entries
	}
}

// WithFlags sets io_uring setup flags passed to queue initialization.
func WithFlags(flags uint32) RingOption {
	return func(c *Config) {
		c.flags = flags
	}
}

// WithMaxCQEvents sets how many completions a single Wait or Peek call can
// drain from the completion queue.
func WithMaxCQEvents(maxCQEvents uint) RingOption {
	return func(c *Config) {
		c.maxCQEvents = maxCQEvents
	}
}

func WithLoggerLevel(level zerolog.Level) RingOption {
	return func(c *Config) {
		c.loggerLevel = level
	}
}

func WithPrettyLogger(prettyLogger bool) RingOption {
	return func(c *Config) {
		c.prettyLogger = prettyLogger
	}
}

func NewConfig(options ...RingOption) Config {
	config := Config{
		entries:     defaultEntries,
		maxCQEvents: defaultMaxCQEvents,
		loggerLevel: zerolog.ErrorLevel,
	}
	for _, option := range options {
		option(&config)
	}

	return config
}
