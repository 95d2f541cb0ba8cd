package source

import (
	"os"
	"strings"

	"github.com/jorge-barreto/sitepatch/internal/config"
)

// Vars are the values available to generator arguments as $NAME.
type Vars struct {
	Prompt      string
	Model       string
	ProjectRoot string
	ProjectName string
}

// Map returns the substitution map.
func (v Vars) Map() map[string]string {
	return map[string]string{
		"PROMPT":       v.Prompt,
		"MODEL":        v.Model,
		"PROJECT_ROOT": v.ProjectRoot,
		"PROJECT_NAME": v.ProjectName,
	}
}

// ExpandVars substitutes variables in template using the vars map,
// falling back to environment variables.
func ExpandVars(template string, vars map[string]string) string {
	return os.Expand(template, func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
}

// DefaultArgs run claude in print mode with token-level streaming.
var DefaultArgs = []string{
	"-p", "$PROMPT",
	"--output-format", "stream-json",
	"--verbose",
	"--include-partial-messages",
}

// GeneratorArgs returns the expanded argument list for the generator.
// Configured args replace the defaults; the model flag is added to the
// defaults only when a model is set.
func GeneratorArgs(g config.Generator, vars Vars) []string {
	args := g.Args
	if len(args) == 0 {
		args = append([]string{}, DefaultArgs...)
		if g.Model != "" {
			args = append(args, "--model", "$MODEL")
		}
	}
	m := vars.Map()
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = ExpandVars(a, m)
	}
	return out
}

// WantsStreamJSON reports whether args ask for stream-json output.
func WantsStreamJSON(args []string) bool {
	for i, a := range args {
		if a == "--output-format=stream-json" {
			return true
		}
		if a == "--output-format" && i+1 < len(args) && args[i+1] == "stream-json" {
			return true
		}
	}
	return false
}

// BuildEnv returns the environment for the generator process: the current
// environment minus CLAUDECODE markers, plus SITEPATCH_ variables.
func BuildEnv(vars Vars) []string {
	var env []string
	for _, e := range os.Environ() {
		key := strings.SplitN(e, "=", 2)[0]
		if strings.HasPrefix(key, "CLAUDECODE") {
			continue
		}
		env = append(env, e)
	}
	return append(env,
		"SITEPATCH_PROJECT_ROOT="+vars.ProjectRoot,
		"SITEPATCH_PROJECT_NAME="+vars.ProjectName,
		"SITEPATCH_MODEL="+vars.Model,
	)
}
