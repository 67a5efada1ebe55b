// Package viz draws the coupled clock in the terminal.
//
// [ClockModel] is a Bubble Tea program: two pendulums hanging from a shared
// beam on a Braille [Canvas], a sync gauge driven by a virtual scroll
// position, and the cuckoo that leaves its house once the page has been
// scrolled far enough.
//
// # Key Bindings
//
//	↓/j, ↑/k   - Scroll the virtual page
//	PgDn, PgUp - Scroll a full screen
//	Space      - Pause/Resume
//	R          - Remount (resets the clock and the reveal)
//	T          - Cycle color themes
//	?          - Toggle help
//	Q          - Quit
//
// [PlotAngles] and [PlotSweep] render offline runs with asciigraph.
package viz
