// Package redis provides the Redis connection used for the processor tick
// lock, plus health checking for the shared client.
package redis
