package index

import (
	"log"

	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasktyres_records_dropped_total",
		Help: "Records dropped during validation",
	})
	recordsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slasktyres_records_total",
		Help: "The total number of records in the current snapshot",
	})
)

// RecordStore is the canonical ordered collection for one session
// snapshot. A record's position is its index in the store and is the only
// identity used by the indices.
type RecordStore struct {
	records   []types.Record
	positions map[string]uint32
	dropped   int
}

// NewRecordStore validates records and keeps the first occurrence of each
// id. Invalid and duplicate records are dropped, never fatal.
func NewRecordStore(records []types.Record) *RecordStore {
	s := &RecordStore{
		records:   make([]types.Record, 0, len(records)),
		positions: make(map[string]uint32, len(records)),
	}
	for i := range records {
		r := records[i]
		if err := r.Validate(); err != nil {
			log.Printf("Dropping record %d with id %q: %v", i, r.Id, err)
			s.dropped++
			continue
		}
		if _, exists := s.positions[r.Id]; exists {
			log.Printf("Dropping duplicate record id %q", r.Id)
			s.dropped++
			continue
		}
		s.positions[r.Id] = uint32(len(s.records))
		s.records = append(s.records, r)
	}
	recordsDropped.Add(float64(s.dropped))
	recordsTotal.Set(float64(len(s.records)))
	return s
}

func (s *RecordStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

func (s *RecordStore) Dropped() int {
	return s.dropped
}

func (s *RecordStore) Get(position uint32) (*types.Record, bool) {
	if s == nil || int(position) >= len(s.records) {
		return nil, false
	}
	return &s.records[position], true
}

func (s *RecordStore) Position(id string) (uint32, bool) {
	if s == nil {
		return 0, false
	}
	p, ok := s.positions[id]
	return p, ok
}

func (s *RecordStore) GetById(id string) (*types.Record, bool) {
	p, ok := s.Position(id)
	if !ok {
		return nil, false
	}
	return s.Get(p)
}

// Records returns the backing slice; callers must not modify it.
func (s *RecordStore) Records() []types.Record {
	if s == nil {
		return nil
	}
	return s.records
}

// Resolve maps positions to records, skipping unknown positions.
func (s *RecordStore) Resolve(positions []uint32) []types.Record {
	ret := make([]types.Record, 0, len(positions))
	for _, p := range positions {
		if r, ok := s.Get(p); ok {
			ret = append(ret, *r)
		}
	}
	return ret
}

func (s *RecordStore) All() *types.ItemList {
	return types.FullItemList(s.Len())
}
