package stash

import "fmt"

// EnumerationError reports that stashes or branches could not be listed at
// all. It is fatal to the whole operation.
type EnumerationError struct {
	What string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("list %s: %v", e.What, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// ResolutionError reports that a stash's commit data could not be read. The
// stash is left out of the tree and the orphan list.
type ResolutionError struct {
	Record Record
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: resolve base commit: %v", e.Record.Ref(), e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// GraphError reports a failed ancestry query; the branch is treated as not
// owning the stash.
type GraphError struct {
	Record Record
	Branch string
	Err    error
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("%s: check ancestry against %s: %v", e.Record.Ref(), e.Branch, e.Err)
}

func (e *GraphError) Unwrap() error { return e.Err }

// HeadError reports that no current branch could be determined; the root is
// named DetachedRoot instead.
type HeadError struct {
	Err error
}

func (e *HeadError) Error() string {
	if e.Err == nil {
		return "resolve current branch: HEAD is not on a branch"
	}
	return fmt.Sprintf("resolve current branch: %v", e.Err)
}

func (e *HeadError) Unwrap() error { return e.Err }
