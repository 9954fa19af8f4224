// Package tui browses a datagrid.Grid in the terminal with Bubble Tea.
//
// The grid renders into the program through Renderer and Notifier, which
// only forward frames as messages; every grid operation triggered by a key
// runs as a tea.Cmd off the event loop.
package tui
