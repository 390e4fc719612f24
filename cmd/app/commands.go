package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"TradeCouncil/internal/di"
	"TradeCouncil/internal/usecase"
	"TradeCouncil/pkg/config"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "tradecouncil",
		Short:         "TradeCouncil - multi-peer trading decision coordinator",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path (empty for defaults)")

	load := func() (*config.Config, error) {
		path := configPath
		if path != "" {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				path = ""
			}
		}
		cfg, err := config.LoadWithEnv(path)
		if err != nil {
			return nil, fmt.Errorf("config load failed: %w", err)
		}
		return cfg, nil
	}

	rootCmd.AddCommand(newServeCmd(load))
	rootCmd.AddCommand(newRiskPeerCmd(load))
	rootCmd.AddCommand(newAnalyzeCmd(load))
	rootCmd.AddCommand(newResolveCmd(load))
	return rootCmd
}

type loader func() (*config.Config, error)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the orchestrator HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()
			return app.Run()
		},
	}
}

func newRiskPeerCmd(load loader) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "riskpeer",
		Short: "Serve the position sizing engine as an RPC peer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.RiskPeer.Port = port
			}
			app, cleanup, err := di.InitializeRiskPeer(cfg)
			if err != nil {
				return fmt.Errorf("risk peer initialization failed: %w", err)
			}
			defer cleanup()
			return app.Run()
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides risk_peer.port)")
	return cmd
}

func newAnalyzeCmd(load loader) *cobra.Command {
	var (
		balance float64
		risk    float64
	)
	cmd := &cobra.Command{
		Use:   "analyze [QUERY]",
		Short: "Run one decision cycle and print it as JSON",
		Long: `Resolve the query, consult every peer and print the decision.
Example: tradecouncil analyze 삼성전자 --balance 10000000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			council, cleanup, err := di.InitializeCouncil(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := council.Analyze(cmd.Context(), usecase.AnalyzeParams{
				Query:          strings.Join(args, " "),
				AccountBalance: balance,
				RiskPerTrade:   risk,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().Float64Var(&balance, "balance", 0, "account balance (config default if 0)")
	cmd.Flags().Float64Var(&risk, "risk", 0, "risk per trade as a fraction (config default if 0)")
	return cmd
}

func newResolveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [QUERY]",
		Short: "Resolve a company name or code to a ticker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			council, cleanup, err := di.InitializeCouncil(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			inst, err := council.Resolve(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(cmd, inst)
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
