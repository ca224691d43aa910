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

// Command trackplanner is H3: a thin CLI over the player core, for
// operator inspection and smoke-testing against a real metadata/fetcher
// deployment without a video-playback frontend attached.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/xianliangjiang/alfalfa/pkg/config"
	"github.com/xianliangjiang/alfalfa/pkg/logger"
	"github.com/xianliangjiang/alfalfa/pkg/player"
	"github.com/xianliangjiang/alfalfa/pkg/player/decoder"
	"github.com/xianliangjiang/alfalfa/pkg/player/fetcher"
	"github.com/xianliangjiang/alfalfa/pkg/player/metadata"
	"github.com/xianliangjiang/alfalfa/pkg/player/metrics"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

var baseFlags = config.CLIFlags()

func main() {
	app := &cli.App{
		Name:        "trackplanner",
		Usage:       "adaptive switch/seek playback planner",
		Description: "run without subcommands to start the Prometheus exporter and idle",
		Flags:       baseFlags,
		Action:      serve,
		Commands: []*cli.Command{
			{
				Name:   "raster",
				Usage:  "resolve and fetch one raster by its output hash",
				Action: getRaster,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "output-hash", Required: true},
					&cli.StringFlag{Name: "path-type", Value: "minimum", Usage: "track | switch | minimum"},
				},
			},
			{
				Name:   "play",
				Usage:  "simulate N steps of continuous sequential playback from the first displayed frame",
				Action: play,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 10},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func getConfig(c *cli.Context) (*config.Config, error) {
	confString, err := config.LoadConfigFile(c.String("config"))
	if err != nil {
		return nil, errors.Wrap(err, "loading config file")
	}
	return config.NewConfig(confString, c)
}

func initLogging(conf *config.Config) {
	if conf.Development {
		logger.InitDevelopment("debug")
	} else {
		logger.InitProduction("info")
	}
}

func newPlayer(c *cli.Context) (*player.Player, *config.Config, error) {
	conf, err := getConfig(c)
	if err != nil {
		return nil, nil, err
	}
	initLogging(conf)
	log := logger.GetLogger()

	ctx := c.Context
	meta := metadata.NewHTTPMetadataService(conf.MetadataURL, conf.HTTPTimeout, log)
	fetch := fetcher.NewHTTPFetcher(conf.FetcherURL, conf.HTTPTimeout, log)

	width, err := meta.GetVideoWidth(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fetching video width")
	}
	height, err := meta.GetVideoHeight(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fetching video height")
	}
	decoders := decoder.NewNullFactory(width, height)

	p, err := player.New(ctx, meta, fetch, decoders, player.CacheSizes{
		RasterCapacity: conf.Cache.RasterCapacity,
		StateCapacity:  conf.Cache.StateCapacity,
		ChunkCapacity:  conf.Cache.ChunkCapacity,
	}, conf.ThroughputEstimate, log)
	if err != nil {
		return nil, nil, errors.Wrap(err, "constructing player")
	}
	return p, conf, nil
}

func serve(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}
	initLogging(conf)

	metrics.Register(prometheus.DefaultRegisterer)

	addr := ":" + strconv.Itoa(int(conf.PrometheusPort))
	logger.GetLogger().Infow("serving prometheus metrics", "addr", addr)
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, nil)
}

func pathTypeFromFlag(s string) (model.PathType, error) {
	switch s {
	case "track":
		return model.PathTrack, nil
	case "switch":
		return model.PathSwitch, nil
	case "minimum", "":
		return model.PathMinimum, nil
	default:
		return 0, fmt.Errorf("unknown path type %q", s)
	}
}

func getRaster(c *cli.Context) error {
	p, _, err := newPlayer(c)
	if err != nil {
		return err
	}

	pathType, err := pathTypeFromFlag(c.String("path-type"))
	if err != nil {
		return err
	}

	raster, err := p.GetRaster(c.Context, model.Hash(c.Uint64("output-hash")), pathType)
	if err != nil {
		return errors.Wrap(err, "get raster")
	}
	fmt.Printf("resolved raster: %016x\n", uint64(raster.Hash()))
	return nil
}

func play(c *cli.Context) error {
	p, _, err := newPlayer(c)
	if err != nil {
		return err
	}

	// Queue an initial sequence with a seek to dri 0: on an empty
	// sequence the sequential decision's empty "stay" candidate always
	// wins, which would leave nothing to decode.
	start := 0
	if err := p.SetCurrentFrameSeq(c.Context, &start); err != nil {
		return errors.Wrap(err, "seeking to the first displayed frame")
	}

	steps := c.Int("steps")
	for i := 0; i < steps; i++ {
		if err := p.SetCurrentFrameSeq(c.Context, nil); err != nil {
			return errors.Wrapf(err, "step %d: choosing next sequence", i)
		}
		for {
			ok, err := p.GetNextChunk(c.Context)
			if err != nil {
				return errors.Wrapf(err, "step %d: prefetching", i)
			}
			if !ok {
				break
			}
		}
		raster, err := p.GetRasterSequential(c.Context, i)
		if err != nil {
			return errors.Wrapf(err, "step %d: decoding", i)
		}
		fmt.Printf("frame %d: raster %016x\n", i, uint64(raster.Hash()))
	}

	p.DumpCache(os.Stdout)
	return nil
}
