package source

import (
	"os"
	"strings"
	"testing"

	"github.com/jorge-barreto/sitepatch/internal/config"
)

func TestExpandVars_Simple(t *testing.T) {
	got := ExpandVars("model is $MODEL", map[string]string{"MODEL": "opus"})
	if got != "model is opus" {
		t.Fatalf("got %q", got)
	}
}

func TestExpandVars_Brace(t *testing.T) {
	got := ExpandVars("${PROJECT_NAME}_draft", map[string]string{"PROJECT_NAME": "bakery"})
	if got != "bakery_draft" {
		t.Fatalf("got %q", got)
	}
}

func TestExpandVars_EnvFallback(t *testing.T) {
	t.Setenv("SITEPATCH_TEST_VAR_XYZ", "from-env")
	got := ExpandVars("$SITEPATCH_TEST_VAR_XYZ", map[string]string{})
	if got != "from-env" {
		t.Fatalf("got %q", got)
	}
}

func TestExpandVars_MissingEmpty(t *testing.T) {
	os.Unsetenv("TOTALLY_UNKNOWN_VAR_12345")
	if got := ExpandVars("$TOTALLY_UNKNOWN_VAR_12345", nil); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestGeneratorArgs_Defaults(t *testing.T) {
	vars := Vars{Prompt: "make it blue", Model: "sonnet"}
	got := GeneratorArgs(config.Generator{Model: "sonnet"}, vars)
	want := "-p|make it blue|--output-format|stream-json|--verbose|--include-partial-messages|--model|sonnet"
	if strings.Join(got, "|") != want {
		t.Fatalf("got %q", got)
	}
	if !WantsStreamJSON(got) {
		t.Fatal("default args should stream json")
	}
}

func TestGeneratorArgs_NoModel(t *testing.T) {
	got := GeneratorArgs(config.Generator{}, Vars{Prompt: "p"})
	for _, a := range got {
		if a == "--model" {
			t.Fatalf("model flag without a model: %q", got)
		}
	}
}

func TestGeneratorArgs_ConfiguredReplaceDefaults(t *testing.T) {
	g := config.Generator{Args: []string{"run", "--prompt=$PROMPT", "$PROJECT_ROOT"}}
	got := GeneratorArgs(g, Vars{Prompt: "hi", ProjectRoot: "/p"})
	if strings.Join(got, "|") != "run|--prompt=hi|/p" {
		t.Fatalf("got %q", got)
	}
	if WantsStreamJSON(got) {
		t.Fatal("custom args do not stream json")
	}
	if &got[0] == &g.Args[0] {
		t.Fatal("configured args must not be modified in place")
	}
}

func TestWantsStreamJSON(t *testing.T) {
	if !WantsStreamJSON([]string{"--output-format=stream-json"}) {
		t.Fatal("= form")
	}
	if WantsStreamJSON([]string{"--output-format"}) {
		t.Fatal("dangling flag")
	}
	if WantsStreamJSON([]string{"--output-format", "text"}) {
		t.Fatal("text format")
	}
}

func TestBuildEnv(t *testing.T) {
	t.Setenv("CLAUDECODE", "1")
	t.Setenv("CLAUDECODE_ENTRYPOINT", "cli")
	env := BuildEnv(Vars{ProjectRoot: "/p", ProjectName: "Bakery", Model: "opus"})

	has := map[string]bool{}
	for _, e := range env {
		if strings.HasPrefix(e, "CLAUDECODE") {
			t.Fatalf("CLAUDECODE var leaked: %s", e)
		}
		has[e] = true
	}
	for _, want := range []string{"SITEPATCH_PROJECT_ROOT=/p", "SITEPATCH_PROJECT_NAME=Bakery", "SITEPATCH_MODEL=opus"} {
		if !has[want] {
			t.Fatalf("missing %s", want)
		}
	}
}
