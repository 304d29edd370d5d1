package storage

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"os"
	"path/filepath"

	"github.com/matst80/slask-tyres/pkg/common/jsoncompat"
	"github.com/matst80/slask-tyres/pkg/types"
)

const recordsFile = "records.jz"

var gzipMagic = []byte{0x1f, 0x8b}

func (d *DiskStorage) LoadRecords() ([]types.Record, error) {
	fileName, _ := d.GetFileName(recordsFile)
	return LoadRecordsFile(fileName)
}

// LoadRecordsFile reads records from a JSON array or a stream of JSON
// objects, gzipped or plain.
func LoadRecordsFile(fileName string) ([]types.Record, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	records, err := ReadRecords(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	log.Printf("Loaded %d records from %s", len(records), fileName)
	return records, nil
}

func ReadRecords(r io.Reader) ([]types.Record, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	var reader io.Reader = br
	if bytes.Equal(head, gzipMagic) {
		zipReader, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer zipReader.Close()
		reader = zipReader
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []types.Record{}, nil
	}
	if data[0] == '[' {
		records := make([]types.Record, 0)
		if err := jsoncompat.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	return decodeLines(data)
}

// decodeLines reads one record per line.
func decodeLines(data []byte) ([]types.Record, error) {
	records := make([]types.Record, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var record types.Record
		if err := jsoncompat.Unmarshal(raw, &record); err != nil {
			log.Printf("Skipping malformed record on line %d: %v", line, err)
			continue
		}
		records = append(records, record)
	}
	return records, scanner.Err()
}

// SaveRecords writes gzipped JSON lines and swaps the file in place.
func (d *DiskStorage) SaveRecords(records iter.Seq[types.Record]) error {
	fileName, tmpFileName := d.GetFileName(recordsFile)
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}
	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}
	zipWriter := gzip.NewWriter(file)
	enc := jsoncompat.NewEncoder(zipWriter)
	count := 0
	for record := range records {
		if err = enc.Encode(record); err != nil {
			break
		}
		count++
	}
	if closeErr := zipWriter.Close(); err == nil {
		err = closeErr
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}
	log.Printf("Saved %d records to %s", count, fileName)
	return os.Rename(tmpFileName, fileName)
}

func (d *DiskStorage) SaveGzippedJson(data any, filename string) error {
	fileName, tmpFileName := d.GetFileName(filename)
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}
	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}
	zipWriter := gzip.NewWriter(file)
	err = jsoncompat.NewEncoder(zipWriter).Encode(data)
	if closeErr := zipWriter.Close(); err == nil {
		err = closeErr
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}
	return os.Rename(tmpFileName, fileName)
}

func (d *DiskStorage) LoadGzippedJson(data any, filename string) error {
	name, _ := d.GetFileName(filename)
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	zipReader, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer zipReader.Close()

	err = jsoncompat.NewDecoder(zipReader).Decode(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (d *DiskStorage) SaveJson(data any, name string) error {
	fileName, tmpFileName := d.GetFileName(name)
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}
	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}
	err = jsoncompat.NewEncoder(file).Encode(data)
	file.Close()
	if err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}
	return os.Rename(tmpFileName, fileName)
}

func (d *DiskStorage) LoadJson(data any, filename string) error {
	name, _ := d.GetFileName(filename)
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	err = jsoncompat.NewDecoder(file).Decode(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
