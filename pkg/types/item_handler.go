package types

import "iter"

// RecordHandler receives a full record snapshot. Handlers rebuild their
// state from scratch, there are no incremental updates.
type RecordHandler interface {
	HandleRecords(records []Record)
}

type RecordSource interface {
	LoadRecords() ([]Record, error)
	SaveRecords(records iter.Seq[Record]) error
}
