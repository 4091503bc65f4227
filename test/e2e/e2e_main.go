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

// e2e drives a running governor node through a full proposal lifecycle.
//
//	GOVERNOR_OWNER_KEY=<hex> go run ./test/e2e [--jwt-secret <file>] http://127.0.0.1:8645
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"
	"github.com/xchain/governor/governance"
	"github.com/xchain/governor/govclient"
)

func main() {
	app := &cli.App{
		Name:      "e2e",
		Usage:     "governor 完整功能测试",
		ArgsUsage: "<RPC_URL>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "jwt-secret",
				Usage: "JWT 密钥文件 (节点开启 authrpc.jwtsecret 时必填)",
			},
		},
		Action: e2e,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n✓ 测试完成")
}

func e2e(c *cli.Context) error {
	fmt.Println("=== governor 完整功能测试 ===")

	if c.NArg() < 1 {
		return errors.New("用法: GOVERNOR_OWNER_KEY=<hex> go run ./test/e2e [--jwt-secret <file>] <RPC_URL>")
	}
	ownerKey, err := crypto.HexToECDSA(os.Getenv("GOVERNOR_OWNER_KEY"))
	if err != nil {
		return fmt.Errorf("无效的 owner 私钥: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.Context, 2*time.Minute)
	defer cancel()
	client, err := dial(ctx, c.Args().First(), c.String("jwt-secret"))
	if err != nil {
		return fmt.Errorf("连接失败: %w", err)
	}
	defer client.Close()

	return run(ctx, client.WithKey(ownerKey), client)
}

// dial connects to url, authenticating with the JWT secret in secretPath if given
func dial(ctx context.Context, url, secretPath string) (*govclient.Client, error) {
	if secretPath == "" {
		return govclient.DialContext(ctx, url)
	}
	data, err := os.ReadFile(secretPath)
	if err != nil {
		return nil, err
	}
	raw := common.FromHex(strings.TrimSpace(string(data)))
	if len(raw) != 32 {
		return nil, fmt.Errorf("无效的 JWT 密钥: %d 字节", len(raw))
	}
	var secret [32]byte
	copy(secret[:], raw)
	return govclient.DialWithJWT(ctx, url, secret)
}

func run(ctx context.Context, owner, reader *govclient.Client) error {
	addr, err := reader.Address(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("✓ 合约地址: %s\n", addr)

	voterKey, _ := crypto.GenerateKey()
	voter := reader.WithKey(voterKey)

	fmt.Println("\n【投票权测试】")
	if err := owner.SetVotingPower(ctx, voter.Account(), 25); err != nil {
		return fmt.Errorf("set voting power: %w", err)
	}
	fmt.Printf("  %s: 25 ✓\n", voter.Account())

	fmt.Println("\n【提案测试】")
	id, err := voter.CreateProposal(ctx, &governance.ProposalDraft{
		Title:            "e2e proposal",
		Description:      "created by the e2e smoke test",
		Duration:         30,
		Options:          []string{"yes", "no", "abstain"},
		MinParticipation: 10,
	})
	if err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	fmt.Printf("  提案 #%d ✓\n", id)

	fmt.Println("\n【投票测试】")
	if err := waitActive(ctx, reader, id); err != nil {
		return err
	}
	if err := voter.CastVote(ctx, id, 1); err != nil {
		return fmt.Errorf("cast vote: %w", err)
	}
	if err := voter.CastVote(ctx, id, 2); !errors.Is(err, governance.ErrAlreadyVoted) {
		return fmt.Errorf("duplicate vote: want %v, have %v", governance.ErrAlreadyVoted, err)
	}
	if err := voter.ChangeVote(ctx, id, 3); err != nil {
		return fmt.Errorf("change vote: %w", err)
	}
	res, err := reader.Results(ctx, id)
	if err != nil {
		return err
	}
	if res.TotalVotes != 25 || res.Tally(3) != 25 || !res.ParticipationMet {
		return fmt.Errorf("unexpected results: total %d, tallies %v, participation %v", res.TotalVotes, res.Tallies, res.ParticipationMet)
	}
	fmt.Printf("  结果: total=%d tallies=%v ✓\n", res.TotalVotes, res.Tallies)

	fmt.Println("\n【紧急重置测试】")
	if err := owner.Pause(ctx); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	if err := owner.EmergencyResetProposal(ctx, id); err != nil {
		return fmt.Errorf("emergency reset: %w", err)
	}
	if err := owner.Unpause(ctx); err != nil {
		return fmt.Errorf("unpause: %w", err)
	}
	if res, err = reader.Results(ctx, id); err != nil {
		return err
	}
	if res.TotalVotes != 0 || res.Active {
		return fmt.Errorf("proposal not reset: total %d, active %v", res.TotalVotes, res.Active)
	}
	fmt.Println("  重置 ✓")
	return nil
}

// waitActive polls until the proposal window has opened
func waitActive(ctx context.Context, reader *govclient.Client, id uint64) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		active, err := reader.IsActive(ctx, id)
		if err != nil {
			return err
		}
		if active {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("proposal %d never became active: %w", id, ctx.Err())
		}
	}
}
