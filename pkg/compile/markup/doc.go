// Package markup generates a self-contained HTML document from a resolved
// node tree.
//
// Every element carries the node id and a data-kind attribute, and all
// styling is inline so the document survives asset inlining and
// rasterization as a single string.
//
// # Placement
//
// A node with both X and Y is anchored with position:absolute, left, top,
// and z-index. Any other node takes part in its parent's flow layout. A
// container with an anchored child becomes a positioning context, so hybrid
// trees (flow containers holding anchored leaves) render from one pass.
//
// # Kinds
//
//	frame   fixed-size flex column, clipped unless Clip is false
//	flex    flex container (row by default)
//	box     flex container (column by default)
//	text    div when Width >= 120, otherwise a nowrap inline-block span
//	image   sized container around an <img> honoring Fit
//	vector  inline <svg>; a MaskPath becomes a clipPath on the embedded image
//	shape   colored box; circles are fully rounded, Stroke becomes a border
//	group   display:contents unless positioned
//
// Hidden nodes are dropped together with their subtree.
package markup
