package messaging

type ChangeTopic string

const (
	// DatasetReplaced is published after a new records file is written.
	DatasetReplaced ChangeTopic = "dataset_replaced"
)

type DatasetReplacedMessage struct {
	Dataset string `json:"dataset"`
	Records int    `json:"records"`
}
