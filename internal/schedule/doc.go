// Package schedule moves the recurring scan job in the user's crontab.
//
// The job is identified by a marker comment at the end of its line. Each
// reschedule pins the entry to the minute and hour of now + offset so the
// next daily run starts once the search allowance has reset. Other crontab
// lines are preserved verbatim.
package schedule
