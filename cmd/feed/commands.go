// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/AleutianFeed/pkg/logging"
	"github.com/AleutianAI/AleutianFeed/services/feed"
	"github.com/AleutianAI/AleutianFeed/services/feed/config"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath  string
	servePort   int
	forceConfig bool

	rootCmd = &cobra.Command{
		Use:          "feed",
		Short:        "Run and manage the Aleutian social feed service",
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the feed HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	// --- Config Management ---
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the feed configuration file",
	}
	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := resolveConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the feed version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "feed %s\n", feed.Version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.aleutian/feed.yaml)")

	serveCmd.Flags().IntVar(&servePort, "port", 0, "override server.port")
	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configPathCmd)
	rootCmd.AddCommand(serveCmd, configCmd, versionCmd)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// runServe loads the config, builds the service and runs it until SIGINT
// or SIGTERM.
func runServe(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Format:  format,
		LogDir:  cfg.Logging.Dir,
		Service: "feed",
	})
	defer logger.Close()

	logger.Info("Configuration loaded", "path", path, "port", cfg.Server.Port)

	svc, err := feed.New(cfg, logger.Slog())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return svc.Run(ctx)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err := config.WriteDefault(path, forceConfig); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}
