package walker

import (
	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/arthur-debert/tidyvault/pkg/types"
)

// NameMatcher tests a file base name. *pattern.Matcher satisfies it.
type NameMatcher interface {
	Match(name string) bool
}

// MatchFunc adapts a plain function to NameMatcher
type MatchFunc func(name string) bool

// Match calls f
func (f MatchFunc) Match(name string) bool {
	return f(name)
}

// Result is the outcome of one walk
type Result struct {
	// Matches holds matching files in visit order
	Matches types.MatchSet

	FilesVisited int
	DirsVisited  int

	// Skipped lists nested folders whose listing failed
	Skipped []string
}

// Walk collects every file below root whose base name matches m. Root must be
// a folder; failing to list root itself is returned as an error, failures on
// nested folders are logged and recorded in Result.Skipped.
func Walk(tree types.Tree, root types.Entry, m NameMatcher) (Result, error) {
	logger := logging.GetLogger("walker").With().
		Str("root", root.Path).
		Logger()

	var result Result

	if !root.IsDir() {
		return result, errors.Newf(errors.ErrNotADirectory, "not a folder: %s", root.Path).
			WithDetail("path", root.Path)
	}

	stack := []types.Entry{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := tree.ListChildren(dir)
		if err != nil {
			if dir.Path == root.Path {
				return result, errors.Wrapf(err, errors.ErrNotFound, "cannot list %s", dir.Path).
					WithDetail("path", dir.Path)
			}
			logger.Warn().Err(err).Str("dir", dir.Path).Msg("Skipping folder that could not be listed")
			result.Skipped = append(result.Skipped, dir.Path)
			continue
		}
		result.DirsVisited++

		for _, child := range children {
			if child.IsDir() {
				stack = append(stack, child)
				continue
			}

			result.FilesVisited++
			if m.Match(child.Name()) {
				logger.Trace().Str("path", child.Path).Msg("Matched")
				result.Matches = append(result.Matches, child)
			}
		}
	}

	logger.Debug().
		Int("files", result.FilesVisited).
		Int("dirs", result.DirsVisited).
		Int("matches", len(result.Matches)).
		Int("skipped", len(result.Skipped)).
		Msg("Walk complete")

	return result, nil
}
