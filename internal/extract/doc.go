// Package extract turns a document page into a model.ArticleRecord.
//
// Document pages are semi-structured: most carry labeled sections such as
// "Soalan" (question), "Ringkasan Jawapan" (summary answer), "Huraian
// Jawapan" (detailed answer), "Jawapan" (answer) or "Mukadimah"
// (introduction) inside the article body, but many do not. Extraction
// therefore runs an ordered chain of stages, each of which only fills in a
// field the previous stages left unresolved:
//
//  1. Labeled sections found in the flattened body text
//  2. Mukadimah as the question
//  3. First paragraph as the question, remaining paragraphs as the answer
//  4. A question synthesized from the title
//  5. The whole body text as the answer
//
// Fields that are still unresolved after the chain get the sentinel values
// from package model, and every field is sanitized.
//
// Extraction never fails. The same markup always yields the same title,
// question and answer.
package extract
