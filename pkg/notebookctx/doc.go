// Package notebookctx turns the cells above an ask invocation into the chat
// history replayed to the model.
//
// The pipeline is:
//   - [notebook.Notebook.Before] selects the cells strictly above the invoking cell
//   - [Extractor] reduces each cell and its outputs to ordered [Fragment]s
//   - [Format] converts fragments into chat content parts
//   - [Assembler] emits role-tagged messages in notebook order
//
// Code cells that start with the ask trigger are replayed as a prior turn:
// the question becomes a user message and its captured output becomes an
// assistant message.
package notebookctx
