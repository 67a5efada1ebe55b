// Package analysis characterises recorded clock runs.
//
//   - [DominantPeriod]: swing period from the power spectrum
//   - [SyncIndex]: how closely the two pendulums move together
//   - [Lissajous]: left angle against right angle, as ASCII
//
// An in-phase pair traces a diagonal line in the Lissajous plot; an
// unsynchronised pair fills a box.
package analysis
