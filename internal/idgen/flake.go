// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package idgen produces process-unique worker identifiers. Queue claims
// are keyed by worker ID, so two processes draining the same database
// must never share one.
package idgen

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/sony/sonyflake"
)

var defaultGenerator *FlakeGenerator

func init() {
	var err error
	defaultGenerator, err = NewFlakeGenerator()
	if err != nil {
		panic(err)
	}
}

// FlakeGenerator hands out time-ordered positive int64 IDs.
type FlakeGenerator struct {
	sf *sonyflake.Sonyflake
}

func NewFlakeGenerator() (*FlakeGenerator, error) {
	settings := sonyflake.Settings{
		StartTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	sf, err := sonyflake.New(settings)
	if err != nil {
		return nil, err
	}
	if sf == nil {
		return nil, errors.New("failed to create Sonyflake instance")
	}
	return &FlakeGenerator{sf: sf}, nil
}

// NextID returns a positive int64 that increases roughly in time order.
// Falls back to a random value if the clock-derived ID space is
// exhausted; uniqueness matters here, ordering is best effort.
func (g *FlakeGenerator) NextID() int64 {
	v, err := g.sf.NextID()
	if err != nil {
		return rand.Int64()
	}
	return int64(v)
}

// WorkerID returns a process-unique ID for claiming queue items.
func WorkerID() int64 {
	return defaultGenerator.NextID()
}
