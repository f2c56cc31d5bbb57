// Package printing turns receipts into printable artifacts.
//
// The composer and section builders produce the receipt HTML from the
// embedded templates. The print trigger and direct-print wrapper adapt that
// HTML for the dialog and server print paths. ChromedpRenderer and
// MarotoReceiptRenderer produce PDFs, and FileSystemStorage keeps them.
package printing
