// Package engine is the composition root that wires notebook context,
// provider adapters and rendering together from configuration. Frontends
// (the kernel bridge, the CLI) call Engine.Ask with a notebook, a cell id and
// a query, observe activity through an EventBus, and never wire lower-level
// packages themselves.
package engine
