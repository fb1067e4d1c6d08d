// Package editor implements the edit protocol of a page: selecting a node
// opens a modal holding a local draft of its config, and saving or deleting
// runs through the node's composed callbacks so the whole tree is written
// back in one patch.
//
// A modal moves through
//
//	Selected -> Editing -> Saving   -> Viewing
//	                    -> Cancelled
//	                    -> Deleting -> Removed
//
// and falls back to Editing, with its draft intact, when a save or delete
// fails. While a save or delete is in flight every other modal operation
// returns ErrBusy.
package editor
