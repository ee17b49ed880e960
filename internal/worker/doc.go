// Package worker provides the repeating-tick execution framework shared by
// every pipeline stage: a Job lifecycle (setup, tick, teardown), per-worker
// backoff between unproductive ticks, idle tracking, and cooperative
// cancellation. Workers never share state; all cross-worker coordination
// happens through the artifact store.
package worker
