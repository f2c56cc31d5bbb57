// Package printing models the server side of receipt printing: print jobs
// created for each document submitted to the print service, and the audit
// trail of sale reprints.
package printing
