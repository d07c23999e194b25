// Package runs exposes ingest run history and the reaper for abandoned runs.
//
// A run whose process crashes stays in the running state forever, since its
// statistics are only written on the terminal transition. Reap moves such runs
// to failed once they exceed an age cutoff; a late terminal write from the
// original process is then rejected as an invalid transition.
package runs
