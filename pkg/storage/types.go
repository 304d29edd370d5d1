package storage

import (
	"fmt"
	"path"
	"time"
)

// DiskStorage reads and writes dataset files below RootFolder/Dataset.
type DiskStorage struct {
	Dataset    string
	RootFolder string
}

func NewDiskStorage(dataset, rootFolder string) *DiskStorage {
	return &DiskStorage{
		Dataset:    dataset,
		RootFolder: rootFolder,
	}
}

func (ds *DiskStorage) GetFileName(name string) (string, string) {
	fileName := path.Join(ds.RootFolder, ds.Dataset, name)
	tmpFileName := fileName + ".tmp-" + fmt.Sprintf("%d", time.Now().UnixMilli())
	return fileName, tmpFileName
}
