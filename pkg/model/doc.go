// Package model defines the document types shared by every layer of the page
// builder: the declarative field schema that drives configuration forms, the
// trigger rules that make fields conditional, and the persisted page tree
// (PageConfig -> BlockConfig -> nested grid/tabs children).
//
// The JSON shape of PageConfig and BlockConfig is the storage format. Keys a
// BlockConfig does not model are kept in Extra and written back unchanged so
// stored pages survive a decode/encode cycle. Grid children live under
// config.blocks and tab groups under config.tabs; both stay as plain values
// inside Config and are interpreted by package blocks.
package model
