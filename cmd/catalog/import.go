package main

import (
	"log"
	"slices"

	"github.com/matst80/slask-tyres/pkg/config"
	"github.com/matst80/slask-tyres/pkg/messaging"
	"github.com/matst80/slask-tyres/pkg/storage"
	"github.com/matst80/slask-tyres/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
)

// validRecords keeps records that pass validation, first id wins.
func validRecords(records []types.Record) []types.Record {
	seen := make(map[string]struct{}, len(records))
	result := make([]types.Record, 0, len(records))
	for i := range records {
		r := &records[i]
		if err := r.Validate(); err != nil {
			log.Printf("Skipping record %q: %v", r.Id, err)
			continue
		}
		if _, ok := seen[r.Id]; ok {
			log.Printf("Skipping duplicate record %q", r.Id)
			continue
		}
		seen[r.Id] = struct{}{}
		result = append(result, *r)
	}
	return result
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Store --file as the configured dataset and notify running servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return cmd.Help()
			}
			records, err := storage.LoadRecordsFile(file)
			if err != nil {
				return err
			}
			records = validRecords(records)
			ds := storage.NewDiskStorage(cfg.Dataset, cfg.DataDir)
			if err := ds.SaveRecords(slices.Values(records)); err != nil {
				return err
			}
			if !cfg.HasRabbit() {
				return nil
			}
			conn, err := amqp.Dial(cfg.RabbitUrl)
			if err != nil {
				return err
			}
			defer conn.Close()
			pub := messaging.NewPublisher(conn, cfg.RabbitPrefix, cfg.Dataset)
			if err := pub.Declare(messaging.DatasetReplaced); err != nil {
				return err
			}
			log.Printf("Publishing replacement of %s with %d records", cfg.Dataset, len(records))
			return pub.DatasetReplaced(cmd.Context(), len(records))
		},
	}
}
