// Package viz hosts a render loop in the terminal using Bubble Tea.
//
// Each terminal cell shows two vertically stacked pixels as an upper half
// block, so a W×H terminal is a W×2H drawing surface. Window resizes are
// forwarded to the viewport observer; the Bubble Tea tick is the display
// refresh that drives the loop.
//
// # Key Bindings
//
//	q, Ctrl+C - Quit
package viz
