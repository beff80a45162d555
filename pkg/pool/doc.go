// Package pool runs submitted jobs on a fixed number of worker goroutines fed
// by a single mpsc channel.
//
// The pool owns the channel's only sender; workers take turns on its single
// receiver behind a mutex. Close releases the sender, so workers drain every
// queued job, observe end-of-stream and exit. CloseNow does the same but
// reports the remaining jobs as cancelled instead of running them.
//
// Every job gets a uuid and produces a Result (success, failure or cancel)
// that can be observed with WithResultHandler. Panics in jobs are recovered
// and reported as failures; the worker keeps running.
package pool
