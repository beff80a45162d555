// Package mpsc provides an unbounded, blocking multi-producer single-consumer
// channel built on a mutex, a condition variable and an explicit producer
// count.
//
// New returns one Sender and one Receiver sharing a channel core. Further
// senders come from Sender.Clone; every sender must be released with
// Sender.Close. Receiver.Receive blocks while the queue is empty and at least
// one sender is alive, and reports end-of-stream (ok == false) once every
// sender is closed and all queued values have been delivered.
//
// Common usage:
// - New/Clone/Close: manage producer handles
// - Send: enqueue without blocking, even after the receiver is gone
// - Receive/All: consume values until end-of-stream
// - Collect/Pipe/FromSlice: bridge to slices and native channels
//
// Values from one sender arrive in the order they were sent. No order is
// promised between different senders.
package mpsc
