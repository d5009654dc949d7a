// Package viz renders fuel-cycle runs in the terminal.
//
// Charts are drawn with asciigraph and framed with lipgloss:
//
//   - [PlotInventories]: every component inventory on one chart
//   - [PlotSeries]: a single series such as dpa or trap density
//   - [Summary]: the calibrated TBR, startup inventory and doubling time
//   - [AttemptTable]: one row per calibration attempt
//
// Colors follow the current [Theme]; switch with [SetTheme].
package viz
