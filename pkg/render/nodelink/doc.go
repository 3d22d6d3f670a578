// Package nodelink draws duplicate extensions as a Graphviz node-link
// diagram.
//
// [ToDOT] produces DOT source with one dashed cluster per Maven artifact
// id. Arrows point from an artifact to its newer duplicate:
//
//	dot := nodelink.ToDOT(entries, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [RenderSVG] uses [github.com/goccy/go-graphviz], so no Graphviz
// installation is needed.
package nodelink
