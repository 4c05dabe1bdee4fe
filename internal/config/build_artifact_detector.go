// Build artifact detection from language-specific configuration files
// Parses package.json, tsconfig.json, .cargo/config.toml and pyproject.toml
// to find output directories that searches should skip
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds language-specific build output directories
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories returns exclusion globs such as "**/dist/**" for
// every output directory named by the project's build configuration.
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var dirs []string
	dirs = append(dirs, bad.detectJavaScriptOutputs()...)
	dirs = append(dirs, bad.detectRustOutputs()...)
	dirs = append(dirs, bad.detectPythonOutputs()...)

	var patterns []string
	for _, d := range dirs {
		d = strings.Trim(filepath.ToSlash(filepath.Clean(d)), "/")
		if d == "" || d == "." || strings.HasPrefix(d, "..") {
			continue
		}
		patterns = append(patterns, "**/"+strings.TrimPrefix(d, "./")+"/**")
	}
	return DeduplicatePatterns(patterns)
}

func (bad *BuildArtifactDetector) read(rel string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, filepath.FromSlash(rel)))
	return data, err == nil
}

// detectJavaScriptOutputs reads tsconfig.json compilerOptions.outDir and
// --outDir arguments in package.json scripts
func (bad *BuildArtifactDetector) detectJavaScriptOutputs() []string {
	var dirs []string

	if data, ok := bad.read("package.json"); ok {
		var pkg struct {
			Scripts map[string]string `json:"scripts"`
		}
		if json.Unmarshal(data, &pkg) == nil {
			for _, script := range pkg.Scripts {
				parts := strings.Fields(script)
				for i, part := range parts {
					if (part == "--outDir" || part == "-outDir") && i+1 < len(parts) {
						dirs = append(dirs, strings.Trim(parts[i+1], `"'`))
					} else if v, found := strings.CutPrefix(part, "--outDir="); found {
						dirs = append(dirs, strings.Trim(v, `"'`))
					}
				}
			}
		}
	}

	if data, ok := bad.read("tsconfig.json"); ok {
		var tsconfig struct {
			CompilerOptions struct {
				OutDir string `json:"outDir"`
			} `json:"compilerOptions"`
		}
		if json.Unmarshal(data, &tsconfig) == nil && tsconfig.CompilerOptions.OutDir != "" {
			dirs = append(dirs, tsconfig.CompilerOptions.OutDir)
		}
	}
	return dirs
}

// detectRustOutputs reads build.target-dir from .cargo/config.toml
func (bad *BuildArtifactDetector) detectRustOutputs() []string {
	data, ok := bad.read(".cargo/config.toml")
	if !ok {
		return nil
	}
	var cargo struct {
		Build struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"build"`
	}
	if toml.Unmarshal(data, &cargo) != nil || cargo.Build.TargetDir == "" {
		return nil
	}
	return []string{cargo.Build.TargetDir}
}

// detectPythonOutputs reads the hatch build directory from pyproject.toml
func (bad *BuildArtifactDetector) detectPythonOutputs() []string {
	data, ok := bad.read("pyproject.toml")
	if !ok {
		return nil
	}
	var pyproject struct {
		Tool struct {
			Hatch struct {
				Build struct {
					Directory string `toml:"directory"`
				} `toml:"build"`
			} `toml:"hatch"`
		} `toml:"tool"`
	}
	if toml.Unmarshal(data, &pyproject) != nil || pyproject.Tool.Hatch.Build.Directory == "" {
		return nil
	}
	return []string{pyproject.Tool.Hatch.Build.Directory}
}
