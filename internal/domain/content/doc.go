// Package content turns raw markup into an ExtractedContent record.
//
// ExtractFromHTML is pure and total: any input, including truncated or
// binary garbage, yields a record. It makes one left-to-right pass over the
// bytes with four states:
//
//	outsideTag   text is copied to the body
//	insideTag    from '<' to the next '>'; becomes a single space
//	scriptBody   raw text up to </script, dropped
//	styleBody    raw text up to </style, dropped
//
// A '<' with no later '>' is literal text. Script and style elements leave
// no trace in the body, not even a separating space, and an unterminated
// script or style body runs to the end of input. Nothing inside them is
// collected as a title, meta, link or image.
//
// Extractor adds the networked variant: one fetch, then the same pass. There
// is no retry and no internal timeout; bound the call with the context.
package content
