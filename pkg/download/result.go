package download

import (
	stderrors "errors"
	"fmt"
	"sort"
)

// Failure records one item that could not be materialized.
type Failure struct {
	Path string
	URL  string
	Err  error
}

// Error implements the error interface.
func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

// Unwrap returns the underlying error.
func (f Failure) Unwrap() error {
	return f.Err
}

// Result reports what a walk produced. Paths are relative to the staging
// root and use forward slashes.
type Result struct {
	Materialized []string
	Directories  []string
	Failed       []Failure
	Skipped      []string
}

// Err joins all item failures, or returns nil when there were none.
func (r *Result) Err() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return stderrors.Join(errs...)
}

// FirstError returns the error of the first failure by path.
func (r *Result) FirstError() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	return r.Failed[0]
}

// Merge appends other into r. Callers sort afterwards with normalize.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Materialized = append(r.Materialized, other.Materialized...)
	r.Directories = append(r.Directories, other.Directories...)
	r.Failed = append(r.Failed, other.Failed...)
	r.Skipped = append(r.Skipped, other.Skipped...)
	r.normalize()
}

func (r *Result) normalize() {
	r.Materialized = sortedUnique(r.Materialized)
	r.Directories = sortedUnique(r.Directories)
	r.Skipped = sortedUnique(r.Skipped)
	sort.SliceStable(r.Failed, func(i, j int) bool { return r.Failed[i].Path < r.Failed[j].Path })
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return in
	}
	sort.Strings(in)
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
