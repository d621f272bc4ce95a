// Copyright 2024 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package t8ntool runs an external state transition tool through its file based
// command line protocol.
package t8ntool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cespare/cp"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/probeum/t8nchain/core"
	"github.com/probeum/t8nchain/core/types"
)

// ErrToolFailed is returned when the tool exits non-zero or writes output that
// cannot be parsed.
var ErrToolFailed = errors.New("transition tool failed")

const (
	allocFile    = "alloc.json"
	txsFile      = "txs.json"
	envFile      = "env.json"
	resultFile   = "out.json"
	outAllocFile = "outAlloc.json"
)

// Config describes how to invoke the tool.
type Config struct {
	Path       string   // tool executable
	Args       []string `toml:",omitempty"` // extra arguments placed before the protocol flags
	ScratchDir string   `toml:",omitempty"` // parent of the per-run directories, os.TempDir() if empty
	KeepFailed string   `toml:",omitempty"` // if set, inputs of failed runs are copied here
}

// DefaultConfig points at a geth evm binary on the PATH.
var DefaultConfig = Config{
	Path: "evm",
	Args: []string{"t8n"},
}

// Tool implements core.Transitioner on top of a tool executable.
type Tool struct {
	config Config
}

// New returns a tool adapter for the given configuration.
func New(config Config) (*Tool, error) {
	if config.Path == "" {
		return nil, errors.New("transition tool path not set")
	}
	return &Tool{config: config}, nil
}

// Transition runs the tool once in a fresh scratch directory, which is removed
// when the call returns. There is no timeout other than the one carried by ctx.
func (t *Tool) Transition(ctx context.Context, req *core.TransitionRequest) (res *core.TransitionResult, err error) {
	dir, err := t.scratch()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	defer func() {
		if err != nil && t.config.KeepFailed != "" {
			t.keep(dir)
		}
	}()

	txs := make([]*types.Document, len(req.Txs))
	for i, tx := range req.Txs {
		txs[i] = tx.Export(types.ExportToolStyle)
	}
	alloc := req.Alloc
	if alloc == nil {
		alloc = types.Alloc{}
	}
	inputs := []struct {
		name string
		v    interface{}
	}{
		{allocFile, alloc},
		{txsFile, txs},
		{envFile, req.Env},
	}
	for _, in := range inputs {
		data, err := json.MarshalIndent(in.v, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %v", in.name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, in.name), data, 0600); err != nil {
			return nil, err
		}
		log.Trace("Transition tool input", "file", in.name, "content", string(data))
	}

	args := append([]string(nil), t.config.Args...)
	args = append(args,
		"--input.alloc", filepath.Join(dir, allocFile),
		"--input.txs", filepath.Join(dir, txsFile),
		"--input.env", filepath.Join(dir, envFile),
		"--state.fork", req.Fork.String(),
		"--output.result", filepath.Join(dir, resultFile),
		"--output.alloc", filepath.Join(dir, outAllocFile),
	)
	if req.Reward != nil {
		args = append(args, "--state.reward", req.Reward.Dec())
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.config.Path, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	log.Trace("Running transition tool", "cmd", t.config.Path+" "+strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrToolFailed, err, strings.TrimSpace(stderr.String()))
	}
	if stderr.Len() > 0 {
		log.Debug("Transition tool stderr", "output", strings.TrimSpace(stderr.String()))
	}

	res = &core.TransitionResult{Result: new(core.ExecutionResult)}
	if err := readJSON(filepath.Join(dir, resultFile), res.Result); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, outAllocFile), &res.Alloc); err != nil {
		return nil, err
	}
	return res, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrToolFailed, err)
	}
	log.Trace("Transition tool output", "file", filepath.Base(path), "content", string(data))
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: malformed %s: %v", ErrToolFailed, filepath.Base(path), err)
	}
	return nil
}

// scratch creates a directory unique to one invocation.
func (t *Tool) scratch() (string, error) {
	base := t.config.ScratchDir
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0700); err != nil {
		return "", err
	}
	dir := filepath.Join(base, "t8n-"+uuid.New().String())
	if err := os.Mkdir(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// keep copies the files of a failed run for inspection.
func (t *Tool) keep(dir string) {
	dst := filepath.Join(t.config.KeepFailed, filepath.Base(dir))
	if err := os.MkdirAll(dst, 0700); err != nil {
		log.Warn("Failed to keep transition tool files", "dir", dst, "err", err)
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("Failed to keep transition tool files", "dir", dir, "err", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := cp.CopyFile(filepath.Join(dst, e.Name()), filepath.Join(dir, e.Name())); err != nil {
			log.Warn("Failed to keep transition tool file", "file", e.Name(), "err", err)
		}
	}
	log.Info("Kept failed transition tool run", "dir", dst)
}

// Ensure the adapter satisfies the chain's contract.
var _ core.Transitioner = (*Tool)(nil)

