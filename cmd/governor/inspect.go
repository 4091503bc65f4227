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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/urfave/cli/v2"
	"github.com/xchain/governor/clock"
	"github.com/xchain/governor/genesis"
	"github.com/xchain/governor/governance"
	"github.com/xchain/governor/storage"
)

var (
	proposalIDFlag = &cli.Uint64Flag{
		Name:  "id",
		Usage: "Proposal to inspect, 0 lists all proposals",
	}
	ordinalFlag = &cli.Uint64Flag{
		Name:  "ordinal",
		Usage: "Ordinal at which activity is evaluated",
	}

	inspectCommand = &cli.Command{
		Name:   "inspect",
		Usage:  "Print proposals and results from the governance database",
		Flags:  append([]cli.Flag{proposalIDFlag, ordinalFlag}, nodeFlags...),
		Action: inspect,
	}
)

// proposalReport is the inspect output of a single proposal
type proposalReport struct {
	Proposal *governance.Proposal `json:"proposal"`
	Results  *governance.Results  `json:"results"`
	Roster   []common.Address     `json:"roster"`
}

func inspect(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer setupLogging(&cfg.Log).Close()

	if cfg.Storage.Engine == storage.EngineMemory {
		return errors.New("inspect needs an on-disk database")
	}
	cfg.Storage.ReadOnly = true
	db, err := storage.Open(&cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	gc, err := openDeployed(db, clock.NewManualClock(ctx.Uint64(ordinalFlag.Name)), cfg.Bootstrap())
	if err != nil {
		return err
	}
	return writeReports(os.Stdout, gc, ctx.Uint64(proposalIDFlag.Name))
}

// openDeployed opens an existing contract without deploying one
func openDeployed(db ethdb.KeyValueStore, clk governance.Clock, bc *genesis.BootstrapConfig) (*governance.GovernanceContract, error) {
	deployed, err := governance.IsDeployed(db, bc.ContractAddress())
	if err != nil {
		return nil, err
	}
	if !deployed {
		return nil, fmt.Errorf("no governance contract for owner %s", bc.Owner.Hex())
	}
	return governance.NewGovernanceContract(db, clk, bc)
}

func writeReports(w io.Writer, backend governance.Backend, id uint64) error {
	ids := []uint64{id}
	if id == 0 {
		ids = ids[:0]
		for i := uint64(1); i <= backend.ProposalCount(); i++ {
			ids = append(ids, i)
		}
	}
	reports := make([]*proposalReport, 0, len(ids))
	for _, id := range ids {
		report, err := buildReport(backend, id)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func buildReport(backend governance.Backend, id uint64) (*proposalReport, error) {
	p, err := backend.Proposal(id)
	if err != nil {
		return nil, err
	}
	res, err := backend.Results(id)
	if err != nil {
		return nil, err
	}
	roster, err := backend.Roster(id)
	if err != nil {
		return nil, err
	}
	return &proposalReport{Proposal: p, Results: res, Roster: roster}, nil
}
