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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.NThreads)
	assert.Equal(t, DefaultBufferSize, cfg.BufferSize)
	assert.Equal(t, DefaultThreadChannelCapacity, cfg.ThreadChannelCapacity)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("EVOLUTION_BUFFER_SIZE", "4096")
	t.Setenv("EVOLUTION_N_THREADS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.BufferSize)
	assert.Equal(t, 3, cfg.NThreads)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
}
