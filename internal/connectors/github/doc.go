// Package github reads documentation sources from GitHub repositories.
//
// [Repository] implements [driven.Repository] on top of the REST API:
//
//   - LatestRevision: head commit of the tracked branch
//   - ListFiles: recursive git tree at a revision
//   - Compare: changed files between two revisions (compare API)
//   - FetchFile: raw file bytes at a revision (contents API, falling
//     back to the download URL for files over 1 MB)
//
// # Authentication
//
// A personal access token is optional. Without one, requests are
// unauthenticated and limited to 60 per hour, which is enough for a
// daily incremental sync of a small public repository. With a token
// the limit is 5,000 per hour.
//
// # Rate Limiting
//
// Every request passes through [RateLimiter], which throttles
// proactively and pauses until the reset time when the remaining quota
// drops below a reserve. Rate limit and 5xx responses surface as
// errors that satisfy domain.IsTransient.
//
// # Source URLs
//
// Sources are identified by URL. Accepted forms include
// https://github.com/owner/repo, github.com/owner/repo,
// git@github.com:owner/repo.git and owner/repo.
package github
