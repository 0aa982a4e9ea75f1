// Package store enumerates recordings stored under a directory tree.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mcapedit/internal/mcapio"
	"mcapedit/internal/model"
	"mcapedit/internal/summary"
)

// Recording summarises one container found on disk.
type Recording struct {
	Path         string        `json:"path"`
	SizeBytes    int64         `json:"size_bytes"`
	Profile      string        `json:"profile"`
	MessageCount uint64        `json:"message_count"`
	TopicCount   int           `json:"topic_count"`
	StartTime    time.Time     `json:"start_time"`
	Duration     time.Duration `json:"duration_ns"`
}

// ListOptions controls how recordings are enumerated.
type ListOptions struct {
	Root   string
	Method model.SummaryMethod
	// Topic keeps only recordings carrying this topic.
	Topic  string
	After  *time.Time
	Before *time.Time
	Limit  int
}

// ListResult contains recordings and non-fatal warnings for files that could
// not be summarised.
type ListResult struct {
	Recordings []Recording
	Warnings   []error
}

// ListRecordings summarises every *.mcap file under Root, newest first.
func ListRecordings(opts ListOptions) (ListResult, error) {
	root := opts.Root
	if root == "" {
		return ListResult{}, errors.New("root directory is required")
	}
	if _, err := os.Stat(root); err != nil {
		return ListResult{}, fmt.Errorf("root directory: %w", err)
	}
	method := opts.Method
	if method == "" {
		method = model.SummaryAuto
	}

	var result ListResult

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("walk %s: %w", path, walkErr))
			return nil
		}

		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".mcap") {
			return nil
		}

		rec, idx, err := summarise(path, method)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("summarise %s: %w", path, err))
			return nil
		}

		if opts.Topic != "" {
			if _, ok := idx.Lookup(opts.Topic); !ok {
				return nil
			}
		}
		if opts.After != nil && rec.StartTime.Before(*opts.After) {
			return nil
		}
		if opts.Before != nil && rec.StartTime.After(*opts.Before) {
			return nil
		}

		result.Recordings = append(result.Recordings, rec)
		return nil
	})
	if err != nil {
		return result, err
	}

	sort.SliceStable(result.Recordings, func(i, j int) bool {
		return result.Recordings[i].StartTime.After(result.Recordings[j].StartTime)
	})

	if opts.Limit > 0 && len(result.Recordings) > opts.Limit {
		result.Recordings = result.Recordings[:opts.Limit]
	}

	return result, nil
}

func summarise(path string, method model.SummaryMethod) (Recording, *summary.Index, error) {
	reader, err := mcapio.OpenFile(path)
	if err != nil {
		return Recording{}, nil, err
	}
	defer reader.Close()

	idx, err := summary.Build(reader, method)
	if err != nil {
		return Recording{}, nil, err
	}
	return Recording{
		Path:         path,
		SizeBytes:    reader.Size(),
		Profile:      idx.Profile,
		MessageCount: idx.MessageCount,
		TopicCount:   len(idx.TopicNames()),
		StartTime:    idx.StartTime(),
		Duration:     idx.Duration(),
	}, idx, nil
}
