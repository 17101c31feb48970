/*
Package pipeline assembles the document-generation flow.

A run moves through five steps. prepare cleans the technology list. outline
and research then run as concurrent branches: one asks the model for a
structured plan, the other fans out web searches per technology. merge joins
the branches under a deadline and validates the pair. write prompts the
model with both and checks the output contract.

Build wires the parallel form, Serial the sequential one; both share the
same step implementations and differ only in how the branches are driven.
*/
package pipeline
