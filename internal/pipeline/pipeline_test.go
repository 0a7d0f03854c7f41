// Copyright (C) 2025 Evolution Authors
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

package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The sink must observe sequence tags 0..n with no gaps and no
// reordering, no matter how the workers were scheduled.
func TestPoolOrdering(t *testing.T) {
	const items = 500

	var drained []uint64
	plan := Plan[int, int]{
		Workers: 8,
		Produce: func(ctx context.Context, emit func(int) error) error {
			for i := 0; i < items; i++ {
				if err := emit(i); err != nil {
					return err
				}
			}
			return nil
		},
		Work: func(ctx context.Context, seq uint64, item int) (int, error) {
			// Jitter so completions happen far out of order.
			time.Sleep(time.Duration(rand.Intn(300)) * time.Microsecond)
			return item * 2, nil
		},
		Drain: func(ctx context.Context, seq uint64, r int) error {
			drained = append(drained, seq)
			assert.Equal(t, int(seq)*2, r)
			return nil
		},
	}

	require.NoError(t, NewPool[int, int]().Run(context.Background(), plan))
	require.Len(t, drained, items)
	for i, seq := range drained {
		assert.Equal(t, uint64(i), seq)
	}
}

func TestPoolWorkerErrorCancelsRun(t *testing.T) {
	boom := errors.New("boom")
	plan := Plan[int, int]{
		Workers: 4,
		Produce: func(ctx context.Context, emit func(int) error) error {
			for i := 0; ; i++ {
				if err := emit(i); err != nil {
					return err
				}
			}
		},
		Work: func(ctx context.Context, seq uint64, item int) (int, error) {
			if seq == 10 {
				return 0, boom
			}
			return item, nil
		},
		Drain: func(ctx context.Context, seq uint64, r int) error { return nil },
	}

	err := NewPool[int, int]().Run(context.Background(), plan)
	require.ErrorIs(t, err, boom)
}

func TestPoolDrainErrorCancelsRun(t *testing.T) {
	boom := errors.New("sink full")
	plan := Plan[int, int]{
		Workers: 4,
		Produce: func(ctx context.Context, emit func(int) error) error {
			for i := 0; i < 1000; i++ {
				if err := emit(i); err != nil {
					return err
				}
			}
			return nil
		},
		Work: func(ctx context.Context, seq uint64, item int) (int, error) {
			return item, nil
		},
		Drain: func(ctx context.Context, seq uint64, r int) error {
			if seq == 5 {
				return boom
			}
			return nil
		},
	}

	err := NewPool[int, int]().Run(context.Background(), plan)
	require.ErrorIs(t, err, boom)
}

func TestPoolProducerErrorSurfaces(t *testing.T) {
	boom := errors.New("read failed")
	plan := Plan[int, int]{
		Workers: 2,
		Produce: func(ctx context.Context, emit func(int) error) error {
			if err := emit(1); err != nil {
				return err
			}
			return boom
		},
		Work:  func(ctx context.Context, seq uint64, item int) (int, error) { return item, nil },
		Drain: func(ctx context.Context, seq uint64, r int) error { return nil },
	}

	err := NewPool[int, int]().Run(context.Background(), plan)
	require.ErrorIs(t, err, boom)
}

func TestPoolExternalCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})

	plan := Plan[int, int]{
		Workers: 2,
		Produce: func(ctx context.Context, emit func(int) error) error {
			close(started)
			for i := 0; ; i++ {
				if err := emit(i); err != nil {
					return err
				}
			}
		},
		Work: func(ctx context.Context, seq uint64, item int) (int, error) {
			time.Sleep(time.Millisecond)
			return item, nil
		},
		Drain: func(ctx context.Context, seq uint64, r int) error { return nil },
	}

	go func() {
		<-started
		cancel()
	}()

	err := NewPool[int, int]().Run(ctx, plan)
	require.Error(t, err)
}

func TestSerialOrdering(t *testing.T) {
	var drained []uint64
	plan := Plan[int, string]{
		Produce: func(ctx context.Context, emit func(int) error) error {
			for i := 0; i < 20; i++ {
				if err := emit(i); err != nil {
					return err
				}
			}
			return nil
		},
		Work: func(ctx context.Context, seq uint64, item int) (string, error) {
			return "ok", nil
		},
		Drain: func(ctx context.Context, seq uint64, r string) error {
			drained = append(drained, seq)
			return nil
		},
	}

	require.NoError(t, NewSerial[int, string]().Run(context.Background(), plan))
	require.Len(t, drained, 20)
	for i, seq := range drained {
		assert.Equal(t, uint64(i), seq)
	}
}
