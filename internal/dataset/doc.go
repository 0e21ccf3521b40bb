// Package dataset holds the records of a crawl session and persists them.
//
// Session keeps the ordered record list and the set of processed URLs in
// memory. Writer persists the records as a pretty-printed JSON array, which
// is both the final output and the baseline a resumed crawl starts from.
// WriteCSV projects the same records to CSV.
package dataset
