// Package checkpoint persists crawl progress so an interrupted crawl can
// resume where it stopped.
//
// A checkpoint records the listing page to resume from and the set of
// document URLs already extracted. It is always written after the output
// snapshot that contains those documents, so every URL named in a checkpoint
// has a record in the dataset.
package checkpoint
