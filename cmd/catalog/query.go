package main

import (
	"fmt"
	"strings"

	"github.com/matst80/slask-tyres/pkg/config"
	"github.com/matst80/slask-tyres/pkg/engine"
	"github.com/matst80/slask-tyres/pkg/remote"
	"github.com/spf13/cobra"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [key=value...]",
		Short: "Run one search, e.g. catalog query brand=Acme sort=price-asc pg=2",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			params, err := parseParams(args)
			if err != nil {
				return err
			}
			asJson, _ := cmd.Flags().GetBool("json")
			presenter := newTextPresenter(cmd.OutOrStdout(), asJson)

			if url := remoteUrl(cmd, cfg); url != "" {
				e := engine.New(cfg.EngineOptions())
				st := e.DecodeState(params)
				fetcher := remote.NewHttpFetcher(url, e.Codec(), cfg.RemoteRate, cfg.RemoteBurst)
				res, err := remote.NewAdapter(fetcher).Fetch(cmd.Context(), st.Criteria, st.Page)
				if err != nil {
					return err
				}
				presenter.RenderResults(res.Page.Records)
				presenter.RenderCount(res.Page.TotalCount)
				return nil
			}

			e, err := newEngine(cmd, cfg)
			if err != nil {
				return err
			}
			res := e.Search(cmd.Context(), engine.Query{State: e.DecodeState(params)})
			presenter.RenderResults(res.Records)
			presenter.RenderCount(res.TotalCount)
			if !asJson {
				fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d\n", res.Page.Page, res.Page.PageCount)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print records as JSON lines")
	cmd.Flags().String("remote", "", "Fetch the page from another instance's /api/page endpoint")
	return cmd
}

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <text>",
		Short: "Rank type-ahead suggestions for text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			e, err := newEngine(cmd, cfg)
			if err != nil {
				return err
			}
			asJson, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")
			presenter := newTextPresenter(cmd.OutOrStdout(), asJson)
			presenter.RenderSuggestions(e.Suggest(strings.Join(args, " "), limit))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print suggestions as JSON")
	cmd.Flags().Int("limit", 0, "Maximum number of suggestions")
	return cmd
}
