// Package domain models SAIH Hidrosur river gauge data and the alert ladder
// built on top of it.
//
// # Data Source
//
// Readings come from the public SAIH Hidrosur river summary page at
// https://www.redhidrosurmedioambiente.es/saih/resumen/rios. The page carries
// one HTML table with a row per gauge station; the poller fetches it on a
// schedule and hands the parsed rows to this package.
//
// # Page Conventions
//
// Table columns (only the first three are consumed):
//
//	0  station number  → Station.ID
//	1  station name    → Station.Name, usually suffixed with a two-letter
//	                     province code in parentheses, e.g. "Guadalhorce en
//	                     Cartama (MA)". The suffix becomes Station.Region.
//	2  mean level (m)  → Reading.Level
//
// Numeric format is Spanish locale: comma decimal separator, optional dot
// thousands separator ("1.234,56" = 1234.56). The sentinel "N/D" marks a
// gauge that reported no value this cycle; it parses to an absent level,
// never to zero.
//
// The page footer carries "Datos actualizados a: DD-MM-YYYY HH:MM:SS", the
// upstream publication time. It is kept as opaque text and used as the run
// token: two polls of the same page revision share it.
//
// # Alert Ladder
//
// Each monitored station has an ascending triple of level thresholds
// (ThresholdSet) and a recorded AlertLevel in 0..3. Evaluate moves the
// recorded level using a single reading:
//
//	rearm (silent):  while the reading sits below the current level's
//	                 threshold minus the hysteresis margin, step down.
//	raise (alerts):  if the reading meets or exceeds thresholds above the
//	                 post-rearm level, step up to the highest one met,
//	                 emitting one Crossing per level passed, in order.
//
// A reading exactly equal to a threshold counts as meeting it. Hysteresis
// applies only on the way down, which keeps a gauge oscillating around a
// threshold from re-alerting every cycle.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of station|level|run-token.
// Re-running against an unchanged page revision reproduces the same IDs, so
// feed readers and downstream consumers dedupe re-published entries. See
// [EventID].
package domain
