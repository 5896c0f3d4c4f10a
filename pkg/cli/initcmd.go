/*
Copyright © 2026 The Monover Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/monover/monover/pkg/config"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:                  "init",
		EnableShellCompletion: true,
		Usage:                 "Write a starter configuration file",
		Description: fmt.Sprintf(`Write a starter %s into the repository root.

The starter declares a single mono-project named after the directory.
Monorepos edit the file to declare their projects:

  repo: monorepo
  projects:
    - name: mainprog
      path: mainprog
    - name: core
      path: core

Refuses to overwrite an existing configuration.`, config.FileName),
		Flags: []cli.Flag{
			dirFlag,
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path, err := config.Init(cmd.String("dir"))
			if err != nil {
				return err
			}
			slog.Info("wrote starter config", "path", path)
			fmt.Fprintln(cmd.Writer, path)
			return nil
		},
	}
}
