// Package scheduler drives the periodic fetch cycles.
//
// Every provider gets its own cron.Every timer. On each tick the scheduler
// checks the shutdown flag, then the provider's in-progress flag; an
// overrunning cycle makes the next tick a logged no-op instead of queuing a
// second run. Different providers run concurrently; one provider never runs
// two cycles at once.
//
// Stop sets the shutdown flag and cancels the cycle context, so running
// cycles stop before their next page or item, then waits for them.
package scheduler
