// Package render turns accumulated Markdown answers into display content and
// pushes it to updatable displays.
//
// Renderers:
//   - [HTML]: goldmark (GFM) HTML with client-side Prism or server-side chroma highlighting
//   - [Terminal]: glamour ANSI output for the terminal
//   - [Markdown]: passthrough for displays that render on their own
//
// Displays:
//   - [HTMLFile]: a standalone HTML page rewritten on every update
package render
