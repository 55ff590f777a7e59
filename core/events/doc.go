// Package events defines the job lifecycle events emitted on the event bus.
//
// Available event kinds:
//   - committed: a job was booked
//   - parked: a job was taken off the schedule
//   - cancelled: a job was deleted
//   - hours_updated: a truck's weekly duty hours changed
package events
