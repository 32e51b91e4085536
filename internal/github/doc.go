// Package github reads pull requests and posts quorum reviews through the
// GitHub API.
//
// [Client] implements review.PRSource: it fetches PR metadata and every
// changed file with its patch. Findings with a line inside the PR diff are
// posted as inline review comments; the rest go in the review body.
package github
