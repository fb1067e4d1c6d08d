// Package blocks models the page tree as a tagged union of node kinds and
// implements the immutable rewrites the editor relies on.
//
// A plain node is a leaf. A grid node keeps its children in config.blocks
// alongside columnsMobile, columnsTablet, columnsDesktop and registryType. A
// tabs node keeps config.tabs, where each tab carries items (current) and
// may still carry the legacy blocks array; both arrays are kept in step on
// every rewrite.
//
// Rewrites never mutate their input. They touch only the entries on the path
// to the target node, so keys this package does not model (and child entries
// it cannot decode) survive unchanged. Node ids are unique across the whole
// tree and are the only addressing scheme.
package blocks
