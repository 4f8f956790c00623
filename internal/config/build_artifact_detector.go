// Build artifact detection from language-specific project manifests:
// parses package.json and Cargo.toml to find configured output
// directories beyond the static defaults in defaultExclusions.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DetectBuildOutputs scans root for known project manifests and returns
// extra exclude globs for their configured output directories.
func DetectBuildOutputs(root string) []string {
	var patterns []string
	patterns = append(patterns, detectNodeOutputs(root)...)
	patterns = append(patterns, detectCargoOutputs(root)...)
	return patterns
}

func detectNodeOutputs(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}
	var pkg struct {
		Config struct {
			OutDir string `json:"outDir"`
		} `json:"config"`
	}
	if json.Unmarshal(data, &pkg) != nil || pkg.Config.OutDir == "" {
		return nil
	}
	return []string{"**/" + pkg.Config.OutDir + "/**"}
}

func detectCargoOutputs(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return nil
	}
	var manifest struct {
		Build struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"build"`
	}
	if toml.Unmarshal(data, &manifest) != nil || manifest.Build.TargetDir == "" {
		return nil
	}
	return []string{"**/" + manifest.Build.TargetDir + "/**"}
}
