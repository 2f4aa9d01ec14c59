// Package mf6 reads, edits and writes MODFLOW 6 simulation input.
//
// A [Simulation] owns models and simulation-level packages (TDIS, solvers).
// Every package is one block-structured text file; its blocks hold items:
// arrays over the model grid, lists of rows and keyword records. All items
// of a simulation live in its [Registry], addressed by [Path].
//
// Array values are held in one of three storage variants: [Constant],
// [Internal] (inline in the package file) or [External] (a separate text or
// binary file read on demand). Items of stress-period blocks are kept per
// period in a [Transient] container that resolves a period to the closest
// earlier entry.
//
// The layout of each package type comes from a [dfn.Catalog]; types the
// catalog does not know are preserved verbatim, as are unknown blocks and
// keywords.
//
// Basic usage:
//
//	sim, err := mf6.Load("model/run1", mf6.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	gwf, _ := sim.Model("gwf")
//	npf, _ := gwf.Package("npf")
//	k, _ := npf.Array("griddata", "k")
//	values, _ := k.Values()
//	...
//	err = sim.Write()
package mf6
