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

// Package config loads pipeline tuning knobs from an optional config.yaml
// and EVOLUTION_* environment variables. CLI flags override config values,
// config values override the built-in defaults
// (original_source/src/defaults.rs).
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Built-in defaults.
const (
	DefaultBufferSize            = 1 << 20
	DefaultThreadChannelCapacity = 128
	DefaultChunkSize             = 10_000
)

// Config aggregates the tuning knobs shared by the convert and mock
// pipelines.
type Config struct {
	// NThreads is the requested worker count; 0 means every logical core.
	NThreads int `mapstructure:"n_threads"`
	// BufferSize is the read buffer size in bytes for convert, and the
	// shard size hint for convert-chunked.
	BufferSize int `mapstructure:"buffer_size"`
	// ThreadChannelCapacity bounds the work queue and the ordered result
	// channel.
	ThreadChannelCapacity int `mapstructure:"thread_channel_capacity"`
	// ChunkSize is the rows-per-batch unit: the Parquet row-group cut
	// heuristic for convert and the rows-per-job batch size for mock.
	ChunkSize int `mapstructure:"chunk_size"`
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "EVOLUTION" and the dot character
// in keys is replaced by an underscore, so "buffer_size" becomes
// "EVOLUTION_BUFFER_SIZE".
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("n_threads", 0)
	v.SetDefault("buffer_size", DefaultBufferSize)
	v.SetDefault("thread_channel_capacity", DefaultThreadChannelCapacity)
	v.SetDefault("chunk_size", DefaultChunkSize)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("EVOLUTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
