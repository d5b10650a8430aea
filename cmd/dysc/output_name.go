package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

func outputNameFromPath(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".ll"
}

// outputPaths maps every input onto outDir. Inputs that would share an
// output file are rejected.
func outputPaths(outDir string, inputs []string) ([]string, error) {
	paths := make([]string, len(inputs))
	seen := make(map[string]string, len(inputs))
	for i, input := range inputs {
		p := filepath.Join(outDir, outputNameFromPath(input))
		if prev, ok := seen[p]; ok {
			return nil, fmt.Errorf("%s and %s would both write %s", prev, input, p)
		}
		seen[p] = input
		paths[i] = p
	}
	return paths, nil
}
