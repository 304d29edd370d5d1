package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/matst80/slask-tyres/pkg/config"
	"github.com/matst80/slask-tyres/pkg/engine"
	"github.com/matst80/slask-tyres/pkg/ratings"
	"github.com/matst80/slask-tyres/pkg/remote"
	"github.com/matst80/slask-tyres/pkg/state"
	"github.com/spf13/cobra"
)

// lineBinding is a set of named controls driven by console input.
type lineBinding struct {
	mu       sync.Mutex
	values   map[string]string
	handlers map[string][]func()
}

func newLineBinding(initial map[string]string) *lineBinding {
	b := &lineBinding{
		values:   make(map[string]string, len(initial)),
		handlers: make(map[string][]func()),
	}
	for k, v := range initial {
		b.values[k] = v
	}
	return b
}

func (b *lineBinding) GetValue(controlId string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.values[controlId]
}

func (b *lineBinding) OnChange(controlId string, handler func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[controlId] = append(b.handlers[controlId], handler)
}

// Set updates a control and fires its handlers. Unknown controls are
// reported as not handled.
func (b *lineBinding) Set(controlId, value string) bool {
	b.mu.Lock()
	b.values[controlId] = value
	handlers := b.handlers[controlId]
	b.mu.Unlock()
	for _, h := range handlers {
		h()
	}
	return len(handlers) > 0
}

func runBrowse(in io.Reader, out io.Writer, s *engine.Session, binding *lineBinding, settle time.Duration) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			return nil
		case strings.HasPrefix(line, "?"):
			s.Suggest(strings.TrimSpace(line[1:]))
		default:
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				fmt.Fprintf(out, "expected key=value, ?text or quit\n")
				continue
			}
			if !binding.Set(strings.TrimSpace(key), strings.TrimSpace(value)) {
				fmt.Fprintf(out, "unknown control %q\n", key)
			}
		}
	}
	time.Sleep(settle)
	return scanner.Err()
}

// newBrowseSession builds a session over the local dataset, or over the
// remote page endpoint when one is configured.
func newBrowseSession(cmd *cobra.Command, cfg *config.Config, opts ...engine.SessionOption) (*engine.Session, error) {
	opts = append(opts, engine.WithTiming(cfg.Debounce, cfg.FrameSpacing))
	if url := remoteUrl(cmd, cfg); url != "" {
		e := engine.New(cfg.EngineOptions())
		fetcher := remote.NewHttpFetcher(url, e.Codec(), cfg.RemoteRate, cfg.RemoteBurst)
		log.Printf("Browsing remote pages from %s", url)
		return engine.NewSession(e, append(opts, engine.WithRemote(fetcher))...), nil
	}
	e, err := newEngine(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return engine.NewSession(e, append(opts, engine.WithRatingSource(ratings.NewMemoryStore(nil)))...), nil
}

func browseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [key=value...]",
		Short: "Browse interactively: type key=value to change a control, ?text to suggest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			params, err := parseParams(args)
			if err != nil {
				return err
			}
			s, err := newBrowseSession(cmd, cfg,
				engine.WithPresenter(newTextPresenter(cmd.OutOrStdout(), false)),
				engine.WithLocation(state.NewMemoryLocation(params)),
			)
			if err != nil {
				return err
			}
			codec := s.Engine().Codec()
			s.Start(cmd.Context())
			binding := newLineBinding(codec.EncodeMap(s.State()))
			s.Bind(binding)

			err = runBrowse(cmd.InOrStdin(), cmd.OutOrStdout(), s, binding, cfg.Debounce+2*cfg.FrameSpacing)
			fmt.Fprintf(cmd.OutOrStdout(), "?%s\n", codec.Encode(s.State()).Encode())
			return err
		},
	}
	cmd.Flags().String("remote", "", "Page through another instance's /api/page endpoint")
	return cmd
}
