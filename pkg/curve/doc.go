// Package curve provides the multipliers that shape synthetic engagement.
//
// Two independent factors are multiplied into every simulated hour:
//
//   - The daily cycle scales by hour of day. Inside the active window the
//     multiplier follows a half sine from 0.7 at the window edges to 1.0 at
//     its midpoint. Outside the window each call draws a fresh low value in
//     [NightMin, NightMin+NightJitter).
//
//   - The lifecycle scales by time since the post was published:
//
//     ramp-decay      quadratic ramp to PeakHours, then exp(-rate*(t-peak))
//     plateau-decay   optional quadratic ramp, 1.0 through PlateauHours,
//     then exp(-rate*days since the plateau ended)
//     weibull         right-skewed Weibull density with its mode at PeakDay,
//     divided by Normalization
//
// Windows whose End is before Start wrap past midnight: (20, 1) covers
// 20:00 through 01:59.
package curve
