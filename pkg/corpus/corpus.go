// Package corpus loads external document collections and interaction
// scripts for experiments that run against real text instead of
// generated filler.
package corpus

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// Document is one loaded corpus file.
type Document struct {
	Path     string `json:"path"`
	Category string `json:"category,omitempty"`
	Content  string `json:"content"`
}

// LoadDirectory reads all .txt files under dir. Files in an immediate
// subdirectory get that subdirectory's name as their category. Content is
// normalized to NFC so word counts and matching behave uniformly across
// differently-encoded sources.
func LoadDirectory(dir string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "corpus directory not found"),
			errors.Fields{"dir": dir})
	}
	if !info.IsDir() {
		return nil, errors.WithFields(
			errors.New(errors.InvalidParameter, "corpus path is not a directory"),
			errors.Fields{"dir": dir})
	}

	var docs []Document
	err = filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(path), ".txt") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return errors.WithFields(
				errors.Wrap(err, errors.Unknown, "failed to read corpus file"),
				errors.Fields{"path": path})
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		var category string
		if parts := strings.Split(filepath.ToSlash(rel), "/"); len(parts) > 1 {
			category = parts[0]
		}

		docs = append(docs, Document{
			Path:     path,
			Category: category,
			Content:  norm.NFC.String(string(data)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, errors.WithFields(
			errors.New(errors.ResourceNotFound, "no .txt files found in corpus directory"),
			errors.Fields{"dir": dir})
	}
	return docs, nil
}
