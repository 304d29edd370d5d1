package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/matst80/slask-tyres/pkg/common/jsoncompat"
	"github.com/matst80/slask-tyres/pkg/types"
)

// textPresenter prints results as a table, or as JSON lines.
type textPresenter struct {
	mu   sync.Mutex
	out  io.Writer
	json bool
}

func newTextPresenter(out io.Writer, asJson bool) *textPresenter {
	return &textPresenter{out: out, json: asJson}
}

func (p *textPresenter) RenderResults(page []types.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		enc := jsoncompat.NewEncoder(p.out)
		for _, r := range page {
			enc.Encode(r)
		}
		return
	}
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBRAND\tMODEL\tSIZE\tCATEGORY\tPRICE\tGRADE")
	for i := range page {
		r := &page[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n", r.Id, r.Brand, r.Model, r.Size, r.Category, r.Price, r.Grade())
	}
	tw.Flush()
}

func (p *textPresenter) RenderCount(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		return
	}
	fmt.Fprintf(p.out, "%d matching\n", n)
}

func (p *textPresenter) RenderSuggestions(suggestions []types.SuggestionEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		jsoncompat.NewEncoder(p.out).Encode(suggestions)
		return
	}
	for _, s := range suggestions {
		fmt.Fprintf(p.out, "%-8s %-30s %4d  %.3f\n", s.Type, s.Text, s.Count, s.Score)
	}
}

// parseParams reads key=value arguments into state parameters.
func parseParams(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		values[strings.TrimSpace(key)] = value
	}
	return values, nil
}
