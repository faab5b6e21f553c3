package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	captcha "github.com/anatolykoptev/go-captcha"
)

var (
	configPath   string
	timeout      time.Duration
	pollInterval time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "captchactl",
	Short: "Solve captchas through configured solving services",
}

// fileConfig is the YAML shape of --config:
//
//	services:
//	  - service: 2captcha
//	    api_key: XXXX
type fileConfig struct {
	Services []captcha.ServiceConfig `yaml:"services"`
}

// loadSolver builds a Solver from the config file and global flags.
func loadSolver() (*captcha.Solver, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", configPath, err)
	}
	return captcha.New(captcha.Config{
		Services:     fc.Services,
		Timeout:      timeout,
		PollInterval: pollInterval,
	})
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the account balance of every configured service",
	RunE: func(cmd *cobra.Command, args []string) error {
		solver, err := loadSolver()
		if err != nil {
			return err
		}

		balances := solver.Balances(cmd.Context())
		names := make([]string, 0, len(balances))
		for name := range balances {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			res := balances[name]
			if res.Err != nil {
				fmt.Printf("%-16s error: %v\n", name, res.Err)
				continue
			}
			fmt.Printf("%-16s %.2f\n", name, res.Amount)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "captchactl.yaml", "Services config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-service solve timeout (default 2m)")
	rootCmd.PersistentFlags().DurationVar(&pollInterval, "interval", 0, "Result poll interval (default 5s)")

	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(solveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
