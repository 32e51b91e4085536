// Package gitctx collects local diffs for review.
//
// It supports the unstaged, staged, commit, and range modes by shelling out
// to git, then splits the result into review.FileChange values with
// go-gitdiff. Exclude globs are applied before the byte budget, and the
// budget drops whole files rather than cutting a patch in half.
package gitctx
