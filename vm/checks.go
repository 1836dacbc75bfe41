//go:build !release

package vm

// debugChecks enables the internal consistency assertions on hot paths and
// selects the checked move-out variant.
const debugChecks = true
