// Copyright 2024 The Trackplanner Authors.
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

// Package config is H2: YAML-file configuration overridable by CLI
// flags, grounded on the teacher's pkg/config.NewConfig (defaults
// marshalled to YAML, overlaid by the config file, then by CLI flags).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Config is the player's full runtime configuration.
type Config struct {
	MetadataURL string `yaml:"metadata_url,omitempty"`
	FetcherURL  string `yaml:"fetcher_url,omitempty"`

	Cache            CacheConfig   `yaml:"cache,omitempty"`
	// WindowSize is parsed and defaulted but not read by the player: the
	// switch-candidate window is the ports.WindowSize constant.
	WindowSize       int           `yaml:"window_size,omitempty"`
	ThroughputEstimate uint64      `yaml:"throughput_estimate,omitempty"`
	HTTPTimeout      time.Duration `yaml:"http_timeout,omitempty"`

	PrometheusPort uint32 `yaml:"prometheus_port,omitempty"`
	Development    bool   `yaml:"development,omitempty"`
}

// CacheConfig sizes C1/C2's LRUs and the compressed-chunk cache.
type CacheConfig struct {
	RasterCapacity int `yaml:"raster_capacity,omitempty"`
	StateCapacity  int `yaml:"state_capacity,omitempty"`
	ChunkCapacity  int `yaml:"chunk_capacity,omitempty"`
}

const generatedCLIFlagUsage = "generated"

var DefaultConfig = Config{
	Cache: CacheConfig{
		RasterCapacity: 256,
		StateCapacity:  256,
		ChunkCapacity:  4096,
	},
	WindowSize:         24 * 60,
	ThroughputEstimate: 1_000_000,
	HTTPTimeout:        10 * time.Second,
	PrometheusPort:     9090,
}

// NewConfig builds a Config from the defaults, overlaid by confString
// (raw YAML) if non-empty, overlaid by CLI flags if c is non-nil.
func NewConfig(confString string, c *cli.Context) (*Config, error) {
	marshalled, err := yaml.Marshal(&DefaultConfig)
	if err != nil {
		return nil, err
	}

	var conf Config
	if err := yaml.Unmarshal(marshalled, &conf); err != nil {
		return nil, err
	}

	if confString != "" {
		decoder := yaml.NewDecoder(strings.NewReader(confString))
		if err := decoder.Decode(&conf); err != nil {
			return nil, fmt.Errorf("could not parse config: %w", err)
		}
	}

	if c != nil {
		conf.updateFromCLI(c)
	}

	if conf.MetadataURL == "" {
		return nil, fmt.Errorf("metadata_url is required")
	}
	if conf.FetcherURL == "" {
		conf.FetcherURL = conf.MetadataURL
	}

	return &conf, nil
}

func (conf *Config) updateFromCLI(c *cli.Context) {
	if c.IsSet("metadata-url") {
		conf.MetadataURL = c.String("metadata-url")
	}
	if c.IsSet("fetcher-url") {
		conf.FetcherURL = c.String("fetcher-url")
	}
	if c.IsSet("window-size") {
		conf.WindowSize = c.Int("window-size")
	}
	if c.IsSet("throughput-estimate") {
		conf.ThroughputEstimate = uint64(c.Int64("throughput-estimate"))
	}
	if c.IsSet("development") {
		conf.Development = c.Bool("development")
	}
}

// CLIFlags is the flag set cmd/trackplanner registers on the urfave/cli
// app; NewConfig reads them back via updateFromCLI.
func CLIFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "path to YAML config file"},
		&cli.StringFlag{Name: "metadata-url", Usage: generatedCLIFlagUsage},
		&cli.StringFlag{Name: "fetcher-url", Usage: generatedCLIFlagUsage},
		&cli.IntFlag{Name: "window-size", Usage: generatedCLIFlagUsage},
		&cli.Int64Flag{Name: "throughput-estimate", Usage: generatedCLIFlagUsage},
		&cli.BoolFlag{Name: "development", Usage: generatedCLIFlagUsage},
	}
}

// LoadConfigFile reads and homedir-expands path, returning its raw
// contents for NewConfig to parse; an empty path is not an error, it
// just means "defaults plus CLI flags only".
func LoadConfigFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(os.ExpandEnv(path))
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
