// Package journal persists applied patches in a bbolt database, one
// msgpack-encoded record per revision, so mutation history survives
// restarts and can seed rollback on recovery.
package journal
