// Package pipeline distributes content hashes across a fixed pool of workers.
//
// Run dedupes the work set, loads it into a closed WorkQueue, and starts
// workers that pull hashes until the queue is empty. Successful outputs land
// in a sharded ResultMap; failures are recorded per hash and never stop the
// batch. Run returns only after every worker has exited, so the returned
// Outcome is complete and read-only.
package pipeline
