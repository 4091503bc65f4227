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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"github.com/xchain/governor/clock"
	"github.com/xchain/governor/genesis"
	"github.com/xchain/governor/govclient"
	"github.com/xchain/governor/governance"
	"github.com/xchain/governor/internal/config"
	"github.com/xchain/governor/storage"
)

var testOwner = common.HexToAddress("0x1000000000000000000000000000000000000001")

func TestObtainJWTSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth", "jwt.hex")

	secret, err := obtainJWTSecret(path)
	require.NoError(t, err)
	require.Len(t, secret, 32)

	again, err := obtainJWTSecret(path)
	require.NoError(t, err)
	require.Equal(t, secret, again, "existing secret is reused")

	require.NoError(t, os.WriteFile(path, []byte("0x1234"), 0600))
	_, err = obtainJWTSecret(path)
	require.Error(t, err)
}

func TestJWTHandler(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, 32)
	handler := newJWTHandler(secret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	sign := func(key []byte, iat time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(iat)})
		s, err := token.SignedString(key)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name  string
		token string
		code  int
	}{
		{"valid", sign(secret, time.Now()), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong key", sign(bytes.Repeat([]byte{0x01}, 32), time.Now()), http.StatusUnauthorized},
		{"stale", sign(secret, time.Now().Add(-2*time.Minute)), http.StatusUnauthorized},
		{"future", sign(secret, time.Now().Add(2*time.Minute)), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestRPCHandler(t *testing.T) {
	db := memorydb.New()
	gc, err := governance.NewGovernanceContract(db, clock.NewManualClock(1), &genesis.BootstrapConfig{Owner: testOwner})
	require.NoError(t, err)

	cfg := config.Defaults().RPC
	handler, srv, err := newRPCHandler(gc, db, &cfg)
	require.NoError(t, err)
	defer srv.Stop()

	body := `{"jsonrpc":"2.0","id":1,"method":"gov_owner","params":[]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result common.Address `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, testOwner, resp.Result)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRPCHandlerJWT(t *testing.T) {
	db := memorydb.New()
	gc, err := governance.NewGovernanceContract(db, clock.NewManualClock(1), &genesis.BootstrapConfig{Owner: testOwner})
	require.NoError(t, err)

	var secret [32]byte
	copy(secret[:], bytes.Repeat([]byte{0x7f}, 32))
	secretPath := filepath.Join(t.TempDir(), "jwt.hex")
	require.NoError(t, os.WriteFile(secretPath, []byte(hexutil.Encode(secret[:])), 0600))

	cfg := config.Defaults().RPC
	cfg.JWTSecret = secretPath
	handler, srv, err := newRPCHandler(gc, db, &cfg)
	require.NoError(t, err)
	defer srv.Stop()
	httpSrv := httptest.NewServer(handler)
	defer httpSrv.Close()

	ctx := context.Background()
	client, err := govclient.DialWithJWT(ctx, httpSrv.URL, secret)
	require.NoError(t, err)
	defer client.Close()
	owner, err := client.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, testOwner, owner)

	anonymous, err := govclient.DialContext(ctx, httpSrv.URL)
	require.NoError(t, err)
	defer anonymous.Close()
	_, err = anonymous.Owner(ctx)
	require.Error(t, err, "calls without a token are refused")
}

func TestWriteReports(t *testing.T) {
	clk := clock.NewManualClock(10)
	gc, err := governance.NewGovernanceContract(memorydb.New(), clk, &genesis.BootstrapConfig{Owner: testOwner})
	require.NoError(t, err)
	for _, title := range []string{"first", "second"} {
		_, err := gc.CreateProposal(testOwner, &governance.ProposalDraft{Title: title, Duration: 5, MinParticipation: 1})
		require.NoError(t, err)
	}
	require.NoError(t, clk.Set(11))
	require.NoError(t, gc.CastVote(testOwner, 2, 3))

	var buf bytes.Buffer
	require.NoError(t, writeReports(&buf, gc, 0))
	var reports []proposalReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &reports))
	require.Len(t, reports, 2)
	require.Equal(t, "second", reports[1].Proposal.Title)
	require.Equal(t, uint64(1), reports[1].Results.TotalVotes)
	require.True(t, reports[1].Results.ParticipationMet)
	require.Equal(t, []common.Address{testOwner}, reports[1].Roster)

	buf.Reset()
	require.ErrorIs(t, writeReports(&buf, gc, 9), governance.ErrProposalNotFound)
}

func TestOpenDeployed(t *testing.T) {
	db := memorydb.New()
	bc := &genesis.BootstrapConfig{Owner: testOwner}

	_, err := openDeployed(db, clock.NewManualClock(1), bc)
	require.ErrorContains(t, err, "no governance contract for owner "+testOwner.Hex())
	it := db.NewIterator(nil, nil)
	require.False(t, it.Next(), "nothing is written for an undeployed owner")
	it.Release()

	_, err = governance.NewGovernanceContract(db, clock.NewManualClock(1), bc)
	require.NoError(t, err)
	gc, err := openDeployed(db, clock.NewManualClock(1), bc)
	require.NoError(t, err)
	require.Equal(t, bc.ContractAddress(), gc.Address())
}

func TestApplyFlags(t *testing.T) {
	app := newApp()
	var cfg *config.Config
	app.Action = func(ctx *cli.Context) error {
		cfg, _ = config.Load("")
		applyFlags(ctx, cfg)
		return cfg.Validate()
	}
	err := app.Run([]string{"governor",
		"--owner", testOwner.Hex(),
		"--db.engine", "memory",
		"--http.port", "9100",
		"--clock", "manual",
		"--verbosity", "4",
	})
	require.NoError(t, err)
	require.Equal(t, storage.EngineMemory, cfg.Storage.Engine)
	require.Equal(t, 9100, cfg.RPC.Port)
	require.Equal(t, config.ClockManual, cfg.Clock.Source)
	require.Equal(t, 4, cfg.Log.Verbosity)
	require.True(t, cfg.RPC.WS, "unset flags keep configured values")
}
