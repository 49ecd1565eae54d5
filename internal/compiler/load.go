package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/smartcoll/internal/ir"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading specs from a directory.
type LoadResult struct {
	Collections []ir.CollectionSpec
	CUEValue    cue.Value // The raw CUE value for additional processing
	FileCount   int       // Number of CUE files found
}

// Lookup returns the named collection spec.
func (r *LoadResult) Lookup(name string) (*ir.CollectionSpec, bool) {
	for i := range r.Collections {
		if r.Collections[i].Name == name {
			return &r.Collections[i], true
		}
	}
	return nil, false
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load error codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
)

// LoadDir loads, compiles and validates every collection spec in a
// directory. If mode is LoadModeFailFast, returns on first error.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result, errs := compileAll(v, mode)
	result.FileCount = len(cueFiles)
	return result, errs
}

// LoadString compiles collection specs from CUE source. filename is used in
// error positions.
func LoadString(src, filename string) (*LoadResult, []error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}
	return compileAll(v, LoadModeCollectAll)
}

func compileAll(v cue.Value, mode LoadMode) (*LoadResult, []error) {
	var errs []error
	result := &LoadResult{CUEValue: v}

	collVal := v.LookupPath(cue.ParsePath("collection"))
	if !collVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no collections found in specs"}}
	}

	iter, err := collVal.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating collections: %v", err)}}
	}

	seen := make(map[string]bool)
	for iter.Next() {
		label := "collection." + iter.Selector().Unquoted()
		spec, compileErr := CompileCollection(iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, label))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		var specErrs []error
		for _, ve := range Validate(spec) {
			specErrs = append(specErrs, &LoadError{
				Code:    ve.Code,
				Message: fmt.Sprintf("%s: %s: %s", label, ve.Field, ve.Message),
				Pos:     iter.Value().Pos(),
			})
		}
		if seen[spec.Name] {
			specErrs = append(specErrs, &LoadError{
				Code:    ErrDuplicateCollection,
				Message: fmt.Sprintf("%s: collection %q already defined", label, spec.Name),
				Pos:     iter.Value().Pos(),
			})
		}
		if len(specErrs) > 0 {
			errs = append(errs, specErrs...)
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		seen[spec.Name] = true
		result.Collections = append(result.Collections, *spec)
	}

	if len(result.Collections) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no collections found in specs"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		code := MapFieldToErrorCode(compileErr.Field)
		if strings.Contains(compileErr.Message, "float") {
			code = ErrFloatTypeForbidden
		}
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "name":
		return ErrCollectionNameEmpty
	case strings.HasSuffix(field, ".event"):
		return ErrInvalidGuardEvent
	case strings.HasSuffix(field, ".resume"):
		return ErrInvalidResume
	case field == "schema" || strings.HasPrefix(field, "schema."):
		return ErrInvalidFieldType
	default:
		return ErrCodeGeneric
	}
}
