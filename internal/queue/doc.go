// Package queue persists transcription jobs in SQLite and defines the job
// status lifecycle. A job is a single row that the pipeline advances through
// pending -> downloading -> extracting -> transcribing -> post_processing ->
// completed, with failed reachable from every non-terminal state. The store
// owns all SQL; callers work with Job values and Status constants.
package queue
