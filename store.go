package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/AmrMurad1/Pack-Store/midx"
	"github.com/AmrMurad1/Pack-Store/progress"
	"github.com/AmrMurad1/Pack-Store/shared"
)

const multiPackIndexName = "multi-pack-index"

type Store struct {
	dir      string
	hashKind shared.HashKind
}

func NewStore(dir string, kind shared.HashKind) *Store {
	return &Store{dir: dir, hashKind: kind}
}

func (s *Store) IndexPaths() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.idx"))
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// WriteMultiPackIndex merges every pack index in the store directory into a
// multi-pack-index file. The file is written to a temp path and renamed into
// place, so a failed attempt never leaves a partial index behind.
func (s *Store) WriteMultiPackIndex(interrupt *atomic.Bool) (shared.ObjectID, error) {
	paths, err := s.IndexPaths()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no pack index files in %s", s.dir)
	}

	log.Printf("writing multi-pack index for %d pack(s)...", len(paths))

	tmpPath := filepath.Join(s.dir, multiPackIndexName+".tmp")
	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, err
	}

	writer := bufio.NewWriter(file)
	outcome, err := midx.Write(paths, writer, progress.NewLog(), interrupt, midx.Options{
		HashKind: s.hashKind,
	})
	if err != nil {
		file.Close()
		os.Remove(tmpPath)
		return nil, err
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return nil, err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	if err := os.Rename(tmpPath, filepath.Join(s.dir, multiPackIndexName)); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	log.Printf("multi-pack index checksum: %s", outcome.Checksum)
	return outcome.Checksum, nil
}
