// Package renderer bridges to the Node-based visual renderer.
//
// The Go side never knows how compositions animate; it serializes a Request
// to the render entrypoint's stdin and consumes JSON progress lines from its
// stdout. Failures surface as RenderError values carrying the script's own
// message and stack so broken compositions are debuggable from build logs.
package renderer
