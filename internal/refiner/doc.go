// Package refiner cleans raw transcripts through a fixed-order pipeline:
// whitespace normalization, filler-word removal, punctuation restoration,
// grammar correction, and paragraph formatting. Every step after the first is
// optional. Steps backed by external services fail soft: the step is recorded
// as a degradation and the text passes through unchanged, so a broken grammar
// server never fails a transcription job.
package refiner
