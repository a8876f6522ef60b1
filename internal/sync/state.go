package sync

import "github.com/schaermu/sops-shell/internal/failure"

// PendingUpdate is a secret whose stored value differs from its command output
type PendingUpdate struct {
	Key   string
	Value string
}

// FileResult describes the outcome of processing one secrets file
type FileResult struct {
	Path     string
	Mappings int      // directives bound to a key
	Updates  int      // secrets found out of sync
	Written  []string // keys successfully written back
	Skipped  bool     // prescan found no comments, file was not decrypted
	Errors   []error  // reported problems, the file was still processed
}

// Summary aggregates the results of a multi-file run
type Summary struct {
	Files   int
	Secrets int
	Updates int
	DryRun  bool
	Results []FileResult
}

// Errors returns every problem reported during the run, in order
func (s *Summary) Errors() []error {
	var errs []error
	for _, r := range s.Results {
		errs = append(errs, r.Errors...)
	}
	return errs
}

// Err returns the run's problems as one aggregate error, or nil
func (s *Summary) Err() error {
	if agg := failure.NewAggregate(s.Errors()); agg != nil {
		return agg
	}
	return nil
}
