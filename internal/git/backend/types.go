package backend

import "time"

type Stash struct {
	Index   int
	Message string
	Hash    string
}

type Commit struct {
	Hash         string
	ParentHashes []string
	When         time.Time // committer time
	Summary      string
}

// Ref is a local branch.
type Ref struct {
	Hash string
	Name string // short name: main, feature/x
}
