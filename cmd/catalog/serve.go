package main

import (
	"context"
	"log"

	"github.com/matst80/slask-tyres/pkg/common"
	"github.com/matst80/slask-tyres/pkg/config"
	"github.com/matst80/slask-tyres/pkg/engine"
	"github.com/matst80/slask-tyres/pkg/messaging"
	"github.com/matst80/slask-tyres/pkg/ratings"
	"github.com/matst80/slask-tyres/pkg/server"
	"github.com/matst80/slask-tyres/pkg/storage"
	"github.com/matst80/slask-tyres/pkg/tracking"
	"github.com/matst80/slask-tyres/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
)

type app struct {
	cfg     *config.Config
	storage *storage.DiskStorage
	server  *server.WebServer
	handler types.RecordHandler
	conn    *amqp.Connection
	hooks   []common.ShutdownHook
}

func (a *app) ConnectAmqp() *messaging.Publisher {
	conn, err := amqp.DialConfig(a.cfg.RabbitUrl, amqp.Config{
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	a.conn = conn
	a.hooks = append(a.hooks, common.ShutdownHook{Name: "rabbitmq", Close: func(context.Context) error {
		return conn.Close()
	}})
	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("Failed to open a channel: %v", err)
	}
	if err := messaging.DeclareTopics(ch, a.cfg.RabbitPrefix, messaging.DatasetReplaced); err != nil {
		log.Fatalf("Failed to declare %s topic: %v", messaging.DatasetReplaced, err)
	}
	err = messaging.ListenForDatasetChanges(ch, a.cfg.RabbitPrefix, a.reload)
	if err != nil {
		log.Fatalf("Failed to listen to %s topic: %v", messaging.DatasetReplaced, err)
	}
	log.Printf("Listening for dataset replacements")
	return messaging.NewPublisher(conn, a.cfg.RabbitPrefix, a.cfg.Dataset)
}

// reload rebuilds every index from the stored dataset and swaps it in.
func (a *app) reload(msg messaging.DatasetReplacedMessage) error {
	if msg.Dataset != "" && msg.Dataset != a.cfg.Dataset {
		log.Printf("Ignoring replacement of dataset %s", msg.Dataset)
		return nil
	}
	records, err := a.storage.LoadRecords()
	if err != nil {
		return err
	}
	a.handler.HandleRecords(records)
	snap := a.server.Engine.Snapshot()
	log.Printf("Got dataset replacement, generation %d with %d records", snap.Generation, snap.Store().Len())
	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			e, err := newEngine(cmd, cfg)
			if err != nil {
				log.Printf("Starting without records: %v", err)
				e = engine.New(cfg.EngineOptions())
			}

			a := &app{
				cfg:     cfg,
				storage: storage.NewDiskStorage(cfg.Dataset, cfg.DataDir),
			}

			var ratingSource types.RatingSource = ratings.NewMemoryStore(nil)
			var favorites server.FavoriteStore = server.NewMemoryFavorites()
			if cfg.HasRedis() {
				redisRatings := ratings.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
				redisFavorites := server.NewRedisFavorites(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
				ratingSource = redisRatings
				favorites = redisFavorites
				a.hooks = append(a.hooks,
					common.ShutdownHook{Name: "ratings store", Close: func(context.Context) error { return redisRatings.Close() }},
					common.ShutdownHook{Name: "favorites store", Close: func(context.Context) error { return redisFavorites.Close() }},
				)
			}
			a.server = server.NewWebServer(e, favorites, ratingSource)
			a.handler = a.server

			if cfg.HasRabbit() {
				pub := a.ConnectAmqp()
				trk, err := tracking.NewRabbitTracking(pub, cfg.Dataset)
				if err != nil {
					log.Printf("Failed to set up search tracking: %v", err)
				} else {
					a.server.Tracking = trk
				}
			}

			timeouts := cfg.ServerTimeouts()
			srv := common.NewServer(cfg.ListenAddress, a.server.ClientHandler(cfg.EnableProfiling), timeouts)
			return common.Serve(cmd.Context(), srv, timeouts, a.hooks...)
		},
	}
}
