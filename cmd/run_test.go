package cmd

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/metadata-deployer/internal/config"
	"github.com/ginjaninja78/metadata-deployer/internal/runner"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useRunner makes every session in the test run commands through f.
func useRunner(t *testing.T, f *runner.Fake) {
	t.Helper()
	saved := newRunner
	newRunner = func(*config.Config, *logrus.Entry) runner.Runner { return f }
	t.Cleanup(func() { newRunner = saved })
}

// fakeSfdx writes one record file per CSV row on record insert and fails
// the deploy of any package named in failPackages.
func fakeSfdx(t *testing.T, failPackages ...string) *runner.Fake {
	return &runner.Fake{Handler: func(cmd runner.Command) (runner.Result, error) {
		args := map[string]string{}
		for i := 1; i+1 < len(cmd.Args); i += 2 {
			args[cmd.Args[i]] = cmd.Args[i+1]
		}

		switch cmd.Args[0] {
		case "force:cmdt:record:insert":
			f, err := os.Open(args["--filepath"])
			require.NoError(t, err)
			defer f.Close()
			records, err := csv.NewReader(f).ReadAll()
			require.NoError(t, err)

			require.NoError(t, os.MkdirAll(args["-d"], 0755))
			prefix := strings.Replace(args["--typename"], "__mdt", "", 1)
			for _, rec := range records[1:] {
				path := filepath.Join(args["-d"], prefix+"."+rec[0]+".md-meta.xml")
				require.NoError(t, os.WriteFile(path, []byte("<CustomMetadata/>\n"), 0644))
			}
		case "force:source:deploy":
			for _, name := range failPackages {
				if filepath.Base(args["-x"]) == name {
					return runner.Result{ExitCode: 1, Stderr: "deploy rejected"}, nil
				}
			}
		}
		return runner.Result{}, nil
	}}
}

func deployCalls(f *runner.Fake) []string {
	var paths []string
	for _, c := range f.Calls() {
		if c.Args[0] == "force:source:deploy" {
			paths = append(paths, filepath.Base(c.Args[2]))
		}
	}
	return paths
}

func writeImport(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, "input", name), []byte(content), 0644))
}

func TestRunCommand_ImportsAndPackages(t *testing.T) {
	root, cfg := workspace(t, nil)
	writeImport(t, root, "Foo__mdt.csv", "DeveloperName,Label\nBar,x\nBaz,y\n")
	fake := fakeSfdx(t)
	useRunner(t, fake)

	assert.Equal(t, 0, runCLI(t, "run", "--config", cfg, "--yes"))

	fixed, err := os.ReadFile(filepath.Join(root, "output", "Foo__mdt.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Name\nBar\nBaz\n", string(fixed))

	pkg, err := os.ReadFile(filepath.Join(root, "packages", "package_0.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(pkg), "<members>Foo.Bar</members>")
	assert.Contains(t, string(pkg), "<members>Foo.Baz</members>")

	assert.Empty(t, deployCalls(fake), "autoDeployPackage is off by default")
	assert.Len(t, readLines(t, filepath.Join(root, "errors.txt")), 1, "header only")
}

func TestRunCommand_DeployDecision(t *testing.T) {
	tests := []struct {
		name       string
		autoDeploy bool
		flags      []string
		deployed   bool
	}{
		{"off by default", false, nil, false},
		{"autoDeployPackage", true, nil, true},
		{"--deploy overrides config", false, []string{"--deploy"}, true},
		{"--no-deploy overrides config", true, []string{"--no-deploy"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, cfg := workspace(t, map[string]any{"autoDeployPackage": tt.autoDeploy})
			writeImport(t, root, "Foo__mdt.csv", "DeveloperName\nBar\n")
			fake := fakeSfdx(t)
			useRunner(t, fake)

			args := append([]string{"run", "--config", cfg, "--yes"}, tt.flags...)
			assert.Equal(t, 0, runCLI(t, args...))

			if tt.deployed {
				assert.Equal(t, []string{"package_0.xml"}, deployCalls(fake))
			} else {
				assert.Empty(t, deployCalls(fake))
			}
		})
	}
}

func TestRunCommand_DeployFlagsAreExclusive(t *testing.T) {
	_, cfg := workspace(t, nil)
	useRunner(t, fakeSfdx(t))

	assert.Equal(t, 1, runCLI(t, "run", "--config", cfg, "--yes", "--deploy", "--no-deploy"))
}

func TestRunCommand_FailedDeploySetsExitStatus(t *testing.T) {
	root, cfg := workspace(t, map[string]any{"maxMembersPerPackage": 1})
	writeImport(t, root, "Foo__mdt.csv", "DeveloperName\nA\nB\n")
	fake := fakeSfdx(t, "package_0.xml")
	useRunner(t, fake)

	assert.Equal(t, 1, runCLI(t, "run", "--config", cfg, "--yes", "--deploy"))

	assert.Equal(t, []string{"package_0.xml", "package_1.xml"}, deployCalls(fake),
		"a failed package does not stop the next one")
	errs := readLines(t, filepath.Join(root, "errors.txt"))
	require.Len(t, errs, 2)
	assert.Contains(t, errs[1], "deploy rejected")
}

func TestRunCommand_PanicIsReported(t *testing.T) {
	root, cfg := workspace(t, nil)
	writeImport(t, root, "Foo__mdt.csv", "DeveloperName\nBar\n")
	useRunner(t, &runner.Fake{Handler: func(runner.Command) (runner.Result, error) {
		panic("generator exploded")
	}})

	assert.Equal(t, 1, runCLI(t, "run", "--config", cfg, "--yes"))

	errs := strings.Join(readLines(t, filepath.Join(root, "errors.txt")), "\n")
	assert.Contains(t, errs, "Unexpected error: generator exploded")
	assert.FileExists(t, filepath.Join(root, "log.txt"))
}
