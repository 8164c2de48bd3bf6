// Package importers wires the four supported manuscript formats behind one
// interface. Each format package parses a source into a ParsedBundle; this
// package handles format selection and the transactional insert.
package importers

import (
	"fmt"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
	"github.com/smith-and-web/kindling-sub000/internal/importers/longform"
	"github.com/smith-and-web/kindling-sub000/internal/importers/markdown"
	"github.com/smith-and-web/kindling-sub000/internal/importers/plottr"
	"github.com/smith-and-web/kindling-sub000/internal/importers/ywriter"
	"github.com/smith-and-web/kindling-sub000/internal/logging"
	"github.com/smith-and-web/kindling-sub000/internal/store"
)

// Importer is the contract every format package satisfies.
type Importer interface {
	// Name is the format identifier used on the command line.
	Name() string
	// Detect reports whether path looks like this format, with a reason.
	Detect(path string) (bool, string)
	// Parse reads the source into a bundle with fresh identifiers.
	Parse(path string) (*model.ParsedBundle, error)
}

// All returns the registered importers in detection order.
func All() []Importer {
	return []Importer{
		plottr.New(),
		ywriter.New(),
		longform.New(),
		markdown.New(),
	}
}

// ByName resolves a format name given on the command line.
func ByName(name string) (Importer, error) {
	for _, imp := range All() {
		if imp.Name() == name {
			return imp, nil
		}
	}
	return nil, fmt.Errorf("unknown import format %q", name)
}

// DetectFormat probes every importer against path and returns the first
// match.
func DetectFormat(path string) (Importer, error) {
	for _, imp := range All() {
		if ok, reason := imp.Detect(path); ok {
			logging.Debug("format detected", "format", imp.Name(), "reason", reason)
			return imp, nil
		}
	}
	return nil, apperrors.NewStructure("auto-detect", "format", "no importer recognizes "+path)
}

// ImportFile parses path with the named format (or auto-detects when format
// is empty) and inserts the result in one transaction.
func ImportFile(st *store.Store, path, format string) (model.Project, error) {
	var imp Importer
	var err error
	if format != "" {
		imp, err = ByName(format)
	} else {
		imp, err = DetectFormat(path)
	}
	if err != nil {
		return model.Project{}, err
	}

	bundle, err := imp.Parse(path)
	if err != nil {
		return model.Project{}, err
	}
	if err := st.InsertBundle(bundle); err != nil {
		return model.Project{}, err
	}
	logging.Info("imported project",
		"format", imp.Name(),
		"project", bundle.Project.Name,
		"chapters", len(bundle.Chapters),
		"scenes", len(bundle.Scenes))
	return bundle.Project, nil
}
