package main

import (
	"fmt"
	"log"

	"github.com/matst80/slask-tyres/pkg/config"
	"github.com/matst80/slask-tyres/pkg/engine"
	"github.com/matst80/slask-tyres/pkg/storage"
	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/spf13/cobra"
)

// loadRecords reads --file when given, otherwise the configured dataset.
func loadRecords(cmd *cobra.Command, cfg *config.Config) ([]types.Record, error) {
	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		return storage.LoadRecordsFile(file)
	}
	records, err := storage.NewDiskStorage(cfg.Dataset, cfg.DataDir).LoadRecords()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrNoDataset, err)
	}
	return records, nil
}

func newEngine(cmd *cobra.Command, cfg *config.Config) (*engine.Engine, error) {
	records, err := loadRecords(cmd, cfg)
	if err != nil {
		return nil, err
	}
	e := engine.NewWithRecords(records, cfg.EngineOptions())
	if e.Snapshot().Store().Len() == 0 {
		log.Printf("Dataset is empty")
	}
	return e, nil
}

// remoteUrl is the --remote flag when set, otherwise the configured
// provider endpoint.
func remoteUrl(cmd *cobra.Command, cfg *config.Config) string {
	if url, _ := cmd.Flags().GetString("remote"); url != "" {
		return url
	}
	if cfg.HasRemote() {
		return cfg.RemoteUrl
	}
	return ""
}
