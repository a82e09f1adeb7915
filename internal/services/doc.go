// Package services holds cross-cutting helpers shared by the external service
// clients: error classification sentinels, error wrapping with stage context,
// and context annotation for job/stage/correlation identifiers.
package services
