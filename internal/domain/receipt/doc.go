// Package receipt holds the point-of-sale receipt model: the sale transaction,
// the issuing company, the print configuration, and the display formatters
// that turn raw sale fields into the strings printed on the slip.
//
// Amounts and sale references accept the loose shapes a checkout front end
// sends (numbers, numeric strings, null) and resolve them once at the
// boundary, so the rest of the code works with typed values.
package receipt
