// Package loader reads source documents from disk into pages.
//
// Plain text files use form feeds as page breaks. PDF files are read with
// pdfcpu, one page per PDF page.
package loader
