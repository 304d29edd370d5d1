package types

import (
	"context"
	"sync"
)

// QueryMerger intersects candidate sets produced concurrently.
// The first non-nil set seeds the result, later sets intersect it. A nil
// set means "no restriction". Exclusions are applied once in Wait.
type QueryMerger struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	l           sync.Mutex
	isFirst     bool
	constrained bool
	result      *ItemList
	exclude     *ItemList
}

func NewQueryMerger(ctx context.Context, result *ItemList) *QueryMerger {
	return &QueryMerger{
		ctx:     ctx,
		wg:      &sync.WaitGroup{},
		isFirst: true,
		result:  result,
		exclude: &ItemList{},
	}
}

func (m *QueryMerger) Add(getResult func(ctx context.Context) *ItemList) {
	m.wg.Go(func() {
		items := getResult(m.ctx)
		if items == nil {
			return
		}
		m.l.Lock()
		defer m.l.Unlock()
		if m.isFirst {
			m.result.Merge(items)
			m.isFirst = false
		} else {
			m.result.Intersect(items)
		}
		m.constrained = true
	})
}

func (m *QueryMerger) Exclude(getResult func() *ItemList) {
	m.wg.Go(func() {
		items := getResult()
		if items == nil {
			return
		}
		m.l.Lock()
		m.exclude.Merge(items)
		m.l.Unlock()
	})
}

// Wait blocks until all constraints are merged and applies exclusions. It
// reports whether any constraint was applied.
func (m *QueryMerger) Wait() bool {
	m.wg.Wait()
	m.result.Exclude(m.exclude)
	return m.constrained
}
