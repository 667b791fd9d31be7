// Package pdf extracts plain text from uploaded PDF documents with pdfcpu and
// packs it into bounded chunks for metadata extraction.
package pdf
