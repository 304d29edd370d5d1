package types

type StorageProvider interface {
	RecordSource
	SaveGzippedJson(data any, filename string) error
	LoadGzippedJson(data any, filename string) error
	SaveJson(data any, filename string) error
	LoadJson(data any, filename string) error
}
