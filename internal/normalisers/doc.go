// Package normalisers provides implementations of the Normaliser interface
// for the document formats the ingestion directory accepts. Each normaliser
// knows how to extract page text from a specific file extension.
//
// Normalisers are registered with the Registry at startup.
package normalisers
