// Package output provides colored terminal output for the travelbuddy CLI.
//
// Printer writes status lines (success, error, warning, info, step, detail),
// pretty-printed JSON results and a spinner for long-running searches.
// Color is enabled only when stdout is a terminal and NO_COLOR is unset.
package output
