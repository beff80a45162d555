// Package parallel splits a slice into fixed partitions and sums them on
// separate goroutines.
package parallel
