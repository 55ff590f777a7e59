// Package tide turns high/low tide predictions into ramp usability windows.
//
// A Provider returns predictions grouped by calendar day. Windows applies a
// ramp tide rule and a boat draft to one day of predictions, and IdealDays
// precomputes the days whose high tide falls in the midday crane window.
package tide
