// Package diffparse turns unified diff text into per-file change records.
//
// Parsing is a single forgiving pass over the input: lines that are not part
// of the unified diff grammar are skipped, so garbage input produces an empty
// or partial result instead of an error. Each [ChangeRecord] keeps its hunks in
// input order and every [Line] carries the post-change line number a reviewer
// would comment on.
//
// A file section only starts at a "diff --git" line. Patch fragments that
// appear before the first such marker are ignored.
package diffparse
