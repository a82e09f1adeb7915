// Package api exposes the job operations behind the HTTP surface and the
// CLI: create, read, list, stats, retry, soft delete, and video preview. The
// JobService validates input and maps store results onto the error taxonomy;
// the Server wraps it in JSON handlers.
package api
