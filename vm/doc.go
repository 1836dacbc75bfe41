// Package vm implements the t10 value layer.
//
// This package contains:
//   - the tagged Value union passed around by the interpreter
//   - Wrapper containers that box host data with an ownership state
//   - the DynBase capability interface every container implements
//   - the Heap that keeps boxed objects reachable while Values refer to them
//
// Accessors on Value and Wrapper follow a "prechecked" contract: the caller
// has already verified tag, nullness and type identity, so the fast paths do
// not repeat those checks. Violations are programmer defects and panic with a
// *Defect when internal checks are compiled in (the default; build with
// -tags release to elide them).
package vm
