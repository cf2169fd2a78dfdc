package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/coldmail/internal/logger"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract job postings from a job page and print them as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		extract(cmd)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	addJobFlags(extractCmd)
	extractCmd.Flags().Bool("no-history", false, "do not skip postings recorded in the history file")
}

func extract(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	jobText, err := readJobText(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("loading job text", zap.Error(err))
	}

	noHistory, _ := cmd.Flags().GetBool("no-history")
	p, err := newPipeline(ctx, config, noHistory, logger)
	if err != nil {
		logger.Fatal("preparing the pipeline", zap.Error(err))
	}

	found, err := p.Extract(ctx, jobText)
	if err != nil {
		logger.Fatal("extracting job postings", zap.Error(err))
	}

	pretty, err := json.MarshalIndent(found, "", "  ")
	if err != nil {
		logger.Fatal("encoding postings", zap.Error(err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}
