// Package viz draws string fields in the terminal.
//
//   - [Canvas]: braille dot canvas, 2x4 dots per cell
//   - [Plot], [Draw]: field curves with per-curve [CurveView]
//   - [Model]: bubbletea live view with preset cycling and boundary flips
//   - [Theme]: color schemes, cycled with t in the live view
package viz
