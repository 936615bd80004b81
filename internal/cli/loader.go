package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/kraitsec/krait/internal/compiler"
)

// Loader error codes.
const (
	ErrCodeNotFound   = "L001" // path does not exist
	ErrCodeNoFiles    = "L002" // directory holds no rule files
	ErrCodeLoadFailed = "L003" // CUE load or build failed
	ErrCodeBadPack    = "L004" // pack structure is not a rule list
)

// LoadError represents an error that occurred during rule-pack loading.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadRuleDefs loads rule definitions from a path.
//
// A .yaml/.yml file is parsed directly. A .cue file, or a directory of
// CUE files, is evaluated as a CUE rule pack whose top-level "rules"
// field is the rule list. CUE packs let operators share constraint
// schemas and thresholds across rule files; YAML stays for simple
// standalone rule sets.
func LoadRuleDefs(path string) ([]compiler.RuleDef, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rule path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rule path: %v", err)}
	}

	if info.IsDir() {
		return loadCUEPack(path, []string{"."})
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return compiler.LoadRules(path)
	case ".cue":
		return loadCUEPack(filepath.Dir(path), []string{filepath.Base(path)})
	default:
		return nil, &LoadError{Code: ErrCodeBadPack, Message: fmt.Sprintf("unsupported rule file type: %s", path)}
	}
}

// loadCUEPack evaluates CUE files and decodes the top-level "rules"
// list.
func loadCUEPack(dir string, args []string) ([]compiler.RuleDef, error) {
	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	ctx := cuecontext.New()
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	rulesVal := value.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeBadPack, Message: "rule pack has no top-level \"rules\" list"}
	}

	var defs []compiler.RuleDef
	if err := rulesVal.Decode(&defs); err != nil {
		return nil, &LoadError{Code: ErrCodeBadPack, Message: fmt.Sprintf("decoding rules: %v", err)}
	}
	if len(defs) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "rule pack defines no rules"}
	}
	return defs, nil
}
