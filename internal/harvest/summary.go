// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-harvester/internal/checkpoint"
)

// RunSummary is the on-disk record of one harvest invocation, so a
// researcher can see what produced an output file without re-running it.
type RunSummary struct {
	RunID       string    `yaml:"run_id"`
	Source      string    `yaml:"source"`
	Queries     []string  `yaml:"queries"`
	State       string    `yaml:"state"`
	Error       string    `yaml:"error,omitempty"`
	Resumed     bool      `yaml:"resumed"`
	Pages       int       `yaml:"pages"`
	Records     int       `yaml:"records"`
	New         int       `yaml:"new"`
	Overwritten int       `yaml:"overwritten"`
	Output      string    `yaml:"output,omitempty"`
	Checkpoint  string    `yaml:"checkpoint"`
	StartedAt   time.Time `yaml:"started_at"`
	FinishedAt  time.Time `yaml:"finished_at"`
}

// NewRunSummary builds a summary from a run result. runErr is the error Run
// returned, if any.
func NewRunSummary(res *Result, sources []Source, store checkpoint.Store, output string, started time.Time, runErr error) RunSummary {
	s := RunSummary{
		Output:     output,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		State:      StateFetching.String(),
	}
	if store != nil {
		s.Checkpoint = store.Describe()
	}
	for _, src := range sources {
		s.Queries = append(s.Queries, src.Query())
		s.Source = src.Name()
	}
	if res != nil {
		s.RunID = res.RunID
		s.State = res.State.String()
		s.Resumed = res.Resumed
		s.Pages = res.Pages
		s.New = res.New
		s.Overwritten = res.Overwritten
		if res.Progress != nil {
			s.Records = res.Progress.Len()
		}
	}
	if runErr != nil {
		s.Error = runErr.Error()
		s.Output = ""
	}
	return s
}

// WriteSummary saves s as YAML to path.
func WriteSummary(path string, s RunSummary) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	return checkpoint.AtomicWriteFile(path, data, 0o644)
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(path string) (*RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run summary: %w", err)
	}
	var s RunSummary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing run summary: %w", err)
	}
	return &s, nil
}
