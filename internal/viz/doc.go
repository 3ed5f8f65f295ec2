// Package viz renders a running world in the terminal.
//
// The package implements a live view using the Bubble Tea framework:
//
//   - [Model]: steps a world on a timer and draws it with a stats panel
//   - [Canvas]: braille-based pixel canvas with per-cell coloring
//   - Theme selection with 3 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	G     - Toggle gravity
//	W     - Toggle wall collisions
//	P     - Toggle the piston
//	+/-   - Heavier/lighter piston
//	H/C   - Heat/cool the ensemble
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
