package litmus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadError is a scenario-loading failure with a stable code that the
// CLI maps onto its exit handling.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Loader error codes.
const (
	ErrCodeNotFound    = "L001" // path missing or not a directory
	ErrCodeNoFiles     = "L002" // no CUE files found
	ErrCodeLoadFailed  = "L003" // CUE load failed
	ErrCodeBuildFailed = "L004" // CUE build failed
	ErrCodeDecode      = "L005" // scenario decode failed
	ErrCodeInvalid     = "L006" // scenario validation failed
)

// LoadDir loads every scenario declared under the top-level "litmus"
// field of the CUE package rooted at dir. Scenarios come back
// normalized, validated and sorted by name.
func LoadDir(dir string) ([]Scenario, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenario directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("accessing scenario directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	litmusVal := value.LookupPath(cue.ParsePath("litmus"))
	if !litmusVal.Exists() {
		return nil, &LoadError{Code: ErrCodeDecode, Message: "no litmus scenarios found"}
	}
	iter, err := litmusVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("iterating scenarios: %v", err)}
	}

	var scenarios []Scenario
	for iter.Next() {
		var scn Scenario
		if err := iter.Value().Decode(&scn); err != nil {
			return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("decoding scenario %s: %v", iter.Label(), err)}
		}
		if scn.Name == "" {
			scn.Name = iter.Label()
		}
		scn.Normalize()
		if err := scn.Validate(); err != nil {
			return nil, &LoadError{Code: ErrCodeInvalid, Message: err.Error()}
		}
		scenarios = append(scenarios, scn)
	}
	if len(scenarios) == 0 {
		return nil, &LoadError{Code: ErrCodeDecode, Message: "no litmus scenarios found"}
	}

	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })
	return scenarios, nil
}

func findCUEFiles(dir string) ([]string, error) {
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
