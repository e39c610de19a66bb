// Package transcribe drives asynchronous speech-to-text jobs to completion.
//
// The Orchestrator submits one job to a Service, polls its status on a fixed
// interval for a bounded number of attempts and reads the finished transcript
// from the service's output bucket. The Runner moves those waits onto a
// worker pool and persists each job's progress so callers can check on it
// later.
package transcribe
