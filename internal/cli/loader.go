package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/criteria/internal/compiler"
	"github.com/roach88/criteria/internal/ir"
)

// Error code constants - unified across all CLI commands. Definition
// validation errors keep the compiler's E1xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No definition files found
	ErrCodeLoadFailed  = "E004" // Definition file does not parse
	ErrCodeNotFound    = "E005" // Path or database not found
	ErrCodeBuildFailed = "E006" // Criteria do not build
	ErrCodeStoreFailed = "E007" // Store open or write error
	ErrCodeQueryFailed = "E008" // Find or Count failed
	ErrCodeNoCriteria  = "E009" // No (or no matching) definition
	ErrCodeRecords     = "E010" // Record file does not decode
)

// LoadMode controls how errors are handled while loading definitions.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the definitions found under a set of paths.
type LoadResult struct {
	Definitions []compiler.Definition
	Files       []string
}

// LoadError represents an error that occurred while loading definitions.
type LoadError struct {
	Code    string
	Message string
	File    string
	Line    int
}

func (e *LoadError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Code, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDefinitions loads criteria definitions from files and directories.
// Directories are searched recursively for .cue, .yaml, .yml and .json
// files. A nil result means nothing could be loaded at all.
func LoadDefinitions(paths []string, mode LoadMode) (*LoadResult, []error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
		}
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}}
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := FindDefinitionFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no definition files found in %s", strings.Join(paths, ", "))}}
	}

	result := &LoadResult{Files: files}
	var errs []error
	for _, file := range files {
		defs, err := compiler.LoadFile(file)
		if err != nil {
			errs = append(errs, convertLoadError(file, err))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Definitions = append(result.Definitions, defs...)
	}

	if len(result.Definitions) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoCriteria, Message: "no criteria found"})
	}
	return result, errs
}

// FindDefinitionFiles walks dir and returns every definition file in
// lexical order.
func FindDefinitionFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isDefinitionFile(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue", ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// convertLoadError converts a compiler error to a LoadError, keeping the
// validation code and line when there is one.
func convertLoadError(file string, err error) *LoadError {
	var compileErr *compiler.CompileError
	if !errors.As(err, &compileErr) {
		return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), File: file}
	}

	code := validationCode(compileErr.Message)
	if code == "" {
		code = ErrCodeLoadFailed
	}
	line := compileErr.Line
	if compileErr.Pos.IsValid() {
		line = compileErr.Pos.Line()
	}
	msg := compileErr.Field + ": " + compileErr.Message
	if compileErr.Name != "" {
		msg = compileErr.Name + ": " + msg
	}
	return &LoadError{Code: code, Message: msg, File: file, Line: line}
}

// validationCode extracts the leading "[E1xx]" of a compiler message.
func validationCode(msg string) string {
	if !strings.HasPrefix(msg, "[E") {
		return ""
	}
	end := strings.IndexByte(msg, ']')
	if end < 0 {
		return ""
	}
	return msg[1:end]
}

// selectDefinition picks the definition called name. An empty name is
// allowed when there is exactly one definition.
func selectDefinition(defs []compiler.Definition, name string) (compiler.Definition, error) {
	names := make([]string, len(defs))
	for i, def := range defs {
		if name != "" && def.Name == name {
			return def, nil
		}
		names[i] = def.Name
	}

	switch {
	case name != "":
		return compiler.Definition{}, fmt.Errorf("criteria %q not found (have: %s)", name, strings.Join(names, ", "))
	case len(defs) == 1:
		return defs[0], nil
	case len(defs) == 0:
		return compiler.Definition{}, fmt.Errorf("no criteria found")
	}
	return compiler.Definition{}, fmt.Errorf("%d criteria found, name one of: %s", len(defs), strings.Join(names, ", "))
}

// LoadRecords reads a YAML or JSON list of objects.
func LoadRecords(path string) ([]ir.IRObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: expected a list of objects: %w", path, err)
	}

	docs := make([]ir.IRObject, 0, len(raw))
	for i, rec := range raw {
		if rec == nil {
			return nil, fmt.Errorf("%s: records[%d]: must be an object", path, i)
		}
		v, err := ir.FromGo(rec)
		if err != nil {
			return nil, fmt.Errorf("%s: records[%d]: %w", path, i, err)
		}
		docs = append(docs, v.(ir.IRObject))
	}
	return docs, nil
}
