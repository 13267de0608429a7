package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/enroll/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Document is one raw product definition and where it came from.
type Document struct {
	Origin string
	Data   map[string]any
}

// Source yields raw product documents.
// A source may return documents together with an error describing the parts it could not read.
type Source interface {
	Documents() ([]Document, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() ([]Document, error)

func (f SourceFunc) Documents() ([]Document, error) { return f() }

// DocumentSource serves already decoded documents, mostly useful for tests and embedding.
func DocumentSource(docs ...map[string]any) Source {
	return SourceFunc(func() ([]Document, error) {
		out := make([]Document, 0, len(docs))
		for i, d := range docs {
			out = append(out, Document{Origin: fmt.Sprintf("document[%d]", i), Data: d})
		}
		return out, nil
	})
}

// FileSource reads a YAML or JSON file (chosen by extension, YAML by default).
// Each document of the file may hold a list of products, a map with a "products" key, or a single product.
// Entries that are not mappings are reported without discarding their siblings.
func FileSource(path string) Source {
	return SourceFunc(func() ([]Document, error) {
		return readFile(path)
	})
}

// DirSource reads every *.yaml, *.yml and *.json file of dir in lexical order.
// An unreadable file is reported without discarding the others.
func DirSource(dir string) Source {
	return SourceFunc(func() ([]Document, error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, &domain.ConfigurationError{Subject: "catalog", ID: dir, Reason: "cannot read directory", Cause: err}
		}

		var names []string
		for _, e := range entries {
			if e.IsDir() || !isProductFile(e.Name()) {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)

		var docs []Document
		var errs []error
		for _, name := range names {
			fileDocs, err := readFile(filepath.Join(dir, name))
			docs = append(docs, fileDocs...)
			errs = append(errs, domain.Errors(err)...)
		}
		return docs, domain.Aggregate(errs)
	})
}

// Sources concatenates sources, keeping their documents in order.
func Sources(srcs ...Source) Source {
	return SourceFunc(func() ([]Document, error) {
		var docs []Document
		var errs []error
		for _, s := range srcs {
			d, err := s.Documents()
			docs = append(docs, d...)
			errs = append(errs, domain.Errors(err)...)
		}
		return docs, domain.Aggregate(errs)
	})
}

// PathSource picks DirSource or FileSource depending on what path points at.
func PathSource(path string) Source {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return DirSource(path)
	}
	return FileSource(path)
}

func isProductFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func readFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigurationError{Subject: "catalog", ID: path, Reason: "cannot read file", Cause: err}
	}

	raws, err := decodeAll(path, data)
	if err != nil {
		return nil, &domain.ConfigurationError{Subject: "catalog", ID: path, Reason: "cannot parse file", Cause: err}
	}

	var docs []Document
	var errs []error
	for _, raw := range raws {
		items, itemErrs := splitDocuments(raw)
		for _, e := range itemErrs {
			errs = append(errs, &domain.ConfigurationError{Subject: "catalog", ID: path, Reason: e.Error()})
		}
		for _, item := range items {
			docs = append(docs, Document{Origin: fmt.Sprintf("%s[%d]", path, len(docs)), Data: item})
		}
	}
	return docs, domain.Aggregate(errs)
}

// decodeAll returns every top level document of the file.
// YAML files may hold several documents separated by "---".
func decodeAll(path string, data []byte) ([]any, error) {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return []any{raw}, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []any
	for {
		var raw any
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
}

// splitDocuments accepts a list, a {"products": [...]} wrapper or a single product map.
// Entries that are not mappings are reported and skipped.
func splitDocuments(raw any) ([]map[string]any, []error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		var errs []error
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				errs = append(errs, fmt.Errorf("entry %d is %T, want a mapping", i, item))
				continue
			}
			out = append(out, m)
		}
		return out, errs
	case map[string]any:
		if list, ok := v["products"]; ok {
			return splitDocuments(list)
		}
		return []map[string]any{v}, nil
	default:
		return nil, []error{fmt.Errorf("unexpected top level %T", raw)}
	}
}
