// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

// Package main contains Mage build targets for citation-harvester developer tooling.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories a harvest expects.
var projectDirs = []string{
	".secrets",
	"full_texts",
	"index",
	"metrics",
}

// Init creates the working directory layout.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Working directories initialized. Put your NCBI email in .secrets/ncbi-email.")
	return nil
}

const (
	binDir  = "bin"
	binName = "citation-harvester"
	cmdPkg  = "./cmd/citation-harvester"
)

// binPath is the CLI binary produced by Build.
var binPath = filepath.Join(binDir, binName)

// Build compiles the CLI binary into bin/, stamping the git version.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", binPath, version)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Integration runs the tests that need Docker (Redis via testcontainers).
func Integration() error {
	return sh.RunV("go", "test", "-tags", "integration", "-count=1", "./...")
}

// Stats prints Go production and test line counts.
func Stats() error {
	var prod, tests int
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || d.Name() == ".git" || d.Name() == binDir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := nonBlankLines(data)
		if strings.HasSuffix(path, "_test.go") {
			tests += n
		} else {
			prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", tests)
	return nil
}

func nonBlankLines(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}

// Harvest groups targets that run the built CLI against the live APIs.
type Harvest mg.Namespace

// OpenAlex harvests the default Medicine + AI works collection.
func (Harvest) OpenAlex() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath, "openalex", "--summary", "openalex_summary.yaml", "--metrics-file", filepath.Join("metrics", "openalex.prom"))
}

// PubMed harvests PMC summaries for the default term.
func (Harvest) PubMed() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath, "pubmed", "--ids-output", "pmids.txt", "--summary", "pubmed_summary.yaml", "--metrics-file", filepath.Join("metrics", "pubmed.prom"))
}

// Analyze prints the normalized citation ranking for the OpenAlex collection.
func (Harvest) Analyze() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "analyze")
}
