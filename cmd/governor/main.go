// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// governor runs the weighted proposal voting service.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/xchain/governor/internal/config"
	"github.com/xchain/governor/storage"

	// Automatically set GOMAXPROCS to match Linux container CPU quota.
	_ "go.uber.org/automaxprocs"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML or YAML configuration file",
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the governance database",
	}
	dbEngineFlag = &cli.StringFlag{
		Name:  "db.engine",
		Usage: "Database engine (memory, leveldb, pebble)",
	}
	ownerFlag = &cli.StringFlag{
		Name:  "owner",
		Usage: "Address of the governance contract owner",
	}
	httpAddrFlag = &cli.StringFlag{
		Name:  "http.addr",
		Usage: "HTTP-RPC server listening interface",
	}
	httpPortFlag = &cli.IntFlag{
		Name:  "http.port",
		Usage: "HTTP-RPC server listening port",
	}
	wsFlag = &cli.BoolFlag{
		Name:  "ws",
		Usage: "Accept WebSocket upgrades on the HTTP-RPC port",
	}
	corsFlag = &cli.StringSliceFlag{
		Name:  "http.corsdomain",
		Usage: "Domains from which to accept cross origin requests",
	}
	jwtSecretFlag = &cli.StringFlag{
		Name:  "authrpc.jwtsecret",
		Usage: "Path to a JWT secret used to authenticate RPC requests",
	}
	clockFlag = &cli.StringFlag{
		Name:  "clock",
		Usage: "Ordinal source (interval, chain, manual)",
	}
	clockIntervalFlag = &cli.DurationFlag{
		Name:  "clock.interval",
		Usage: "Ordinal period of the interval clock, poll period of the chain clock",
	}
	clockURLFlag = &cli.StringFlag{
		Name:  "clock.url",
		Usage: "Chain RPC endpoint followed by the chain clock",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
	}
	logJSONFlag = &cli.BoolFlag{
		Name:  "log.json",
		Usage: "Format logs with JSON",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Write logs to a rotated file instead of stderr",
	}
	metricsFlag = &cli.BoolFlag{
		Name:  "metrics",
		Usage: "Enable metrics collection and the /metrics endpoint",
	}

	nodeFlags = []cli.Flag{
		configFlag,
		dataDirFlag,
		dbEngineFlag,
		ownerFlag,
		httpAddrFlag,
		httpPortFlag,
		wsFlag,
		corsFlag,
		jwtSecretFlag,
		clockFlag,
		clockIntervalFlag,
		clockURLFlag,
		verbosityFlag,
		logJSONFlag,
		logFileFlag,
		metricsFlag,
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:   "governor",
		Usage:  "weighted proposal voting service",
		Flags:  nodeFlags,
		Action: runNode,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the governance node (default)",
				Flags:  nodeFlags,
				Action: runNode,
			},
			{
				Name:   "dumpconfig",
				Usage:  "Print the effective configuration as TOML",
				Flags:  nodeFlags,
				Action: dumpConfig,
			},
			inspectCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers the configuration file, the environment and the command
// line flags, in that order, and validates the result.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	applyFlags(ctx, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet(dataDirFlag.Name) {
		cfg.Storage.DataDir = ctx.String(dataDirFlag.Name)
	}
	if ctx.IsSet(dbEngineFlag.Name) {
		cfg.Storage.Engine = storage.Engine(ctx.String(dbEngineFlag.Name))
	}
	if ctx.IsSet(ownerFlag.Name) {
		cfg.Governance.Owner = ctx.String(ownerFlag.Name)
	}
	if ctx.IsSet(httpAddrFlag.Name) {
		cfg.RPC.Host = ctx.String(httpAddrFlag.Name)
	}
	if ctx.IsSet(httpPortFlag.Name) {
		cfg.RPC.Port = ctx.Int(httpPortFlag.Name)
	}
	if ctx.IsSet(wsFlag.Name) {
		cfg.RPC.WS = ctx.Bool(wsFlag.Name)
	}
	if ctx.IsSet(corsFlag.Name) {
		cfg.RPC.CORSOrigins = ctx.StringSlice(corsFlag.Name)
	}
	if ctx.IsSet(jwtSecretFlag.Name) {
		cfg.RPC.JWTSecret = ctx.String(jwtSecretFlag.Name)
	}
	if ctx.IsSet(clockFlag.Name) {
		cfg.Clock.Source = ctx.String(clockFlag.Name)
	}
	if ctx.IsSet(clockIntervalFlag.Name) {
		cfg.Clock.Interval = ctx.Duration(clockIntervalFlag.Name)
	}
	if ctx.IsSet(clockURLFlag.Name) {
		cfg.Clock.ChainURL = ctx.String(clockURLFlag.Name)
	}
	if ctx.IsSet(verbosityFlag.Name) {
		cfg.Log.Verbosity = ctx.Int(verbosityFlag.Name)
	}
	if ctx.IsSet(logJSONFlag.Name) {
		cfg.Log.JSON = ctx.Bool(logJSONFlag.Name)
	}
	if ctx.IsSet(logFileFlag.Name) {
		cfg.Log.File = ctx.String(logFileFlag.Name)
	}
	if ctx.IsSet(metricsFlag.Name) {
		cfg.RPC.Metrics = ctx.Bool(metricsFlag.Name)
	}
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	data, err := cfg.Dump()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
