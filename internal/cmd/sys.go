// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ukama/microinit/internal/config"
	"github.com/ukama/microinit/internal/workload"
	"github.com/urfave/cli"
)

// sysCommand is the workload management CLI.
type sysCommand struct {
	io IO

	// workloads returns the workloads for the global flags.
	workloads func(clicontext *cli.Context) *workloads
}

func defaultSysWorkloads(clicontext *cli.Context) *workloads {
	logger := slog.Default()

	paths := config.Paths()
	if path := clicontext.GlobalString("config"); path != "" {
		paths = []string{path}
	}

	work := newWorkloads(loadConfig(logger, paths...), logger)

	if runtime := clicontext.GlobalString("runtime"); runtime != "" {
		work.driver = workload.NewDriver(runtime, logger)
	}

	return work
}

func (s sysCommand) app(ctx context.Context) *cli.App {
	app := cli.NewApp()
	app.Name = NameSys
	app.Usage = "manage the workloads of the running system"
	app.HideVersion = true
	app.Writer = s.io.Stdout
	app.ErrWriter = s.io.Stderr
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "config file to use instead of the default locations",
			EnvVar: config.EnvPath,
		},
		cli.StringFlag{
			Name:  "runtime, r",
			Usage: "OCI runtime binary, overrides the configured one",
		},
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "enable debug output",
		},
	}
	app.Before = func(clicontext *cli.Context) error {
		setupLogging(s.io.Stderr, clicontext.GlobalBool("debug"))
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "start",
			Usage:     "start the engine and the given init bundles",
			ArgsUsage: "[name...]",
			Action: func(clicontext *cli.Context) error {
				return s.workloads(clicontext).start(ctx, clicontext.Args()...)
			},
		},
		{
			Name:      "stop",
			Usage:     "stop and delete the given containers",
			ArgsUsage: "[name...]",
			Action: func(clicontext *cli.Context) error {
				return s.workloads(clicontext).stop(ctx, clicontext.Args()...)
			},
		},
		{
			Name:      "restart",
			Usage:     "stop and start the given containers",
			ArgsUsage: "[name...]",
			Action: func(clicontext *cli.Context) error {
				work := s.workloads(clicontext)
				if err := work.stop(ctx, clicontext.Args()...); err != nil {
					return err
				}

				return work.start(ctx, clicontext.Args()...)
			},
		},
		{
			Name:  "clean",
			Usage: "delete stopped and kill running containers",
			Action: func(clicontext *cli.Context) error {
				return s.workloads(clicontext).driver.Cleanup(ctx)
			},
		},
		{
			Name:  "uInit",
			Usage: "start the engine and all init bundles",
			Action: func(clicontext *cli.Context) error {
				return s.workloads(clicontext).start(ctx)
			},
		},
	}

	return app
}

func (s sysCommand) run(ctx context.Context, args []string) int {
	if err := s.app(ctx).Run(args); err != nil {
		fmt.Fprintf(s.io.Stderr, "%s: %v\n", NameSys, err)
		return 1
	}

	return 0
}

func runSys(ctx context.Context, args []string, cfg IO) int {
	return sysCommand{
		io:        cfg,
		workloads: defaultSysWorkloads,
	}.run(ctx, args)
}
