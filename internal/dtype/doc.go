// Package dtype converts between MODFLOW text tokens and Go values.
//
// The text format writes every numeric quantity as a whitespace-delimited
// token. Reals may carry a Fortran double-precision exponent marker
// ("1.5D+02") and integers may be written with a trailing decimal point
// by older tools ("3.").
//
//	Type    | Go value
//	--------|-------------------------
//	Double  | float64
//	Integer | float64 holding an integral value
//	String  | string (case preserved)
//	Keyword | string, upper-cased
//
// # Parsing
//
//	v, err := dtype.ParseFloat("1.0D-3")
//	n, err := dtype.ParseInt("12")
//
// # Formatting
//
// [Formatter] renders values in the convention used when writing files:
// shortest round-trip representation by default, or a fixed scientific
// precision.
//
//	f := dtype.Formatter{Precision: -1}
//	s := f.Float(0.1) // "0.1"
package dtype
