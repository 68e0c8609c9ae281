// Package fetch is the outbound HTTP collaborator: one GET, decoded to text.
//
// Client wraps resty over a retryablehttp transport with retries disabled,
// a shared rate limiter and one circuit breaker per host. A response with an
// error status is still a response; only transport problems and bodies that
// cannot be turned into text are errors:
//
//	ErrTransport  dial, TLS, timeout, cancellation, blocked host, open breaker
//	ErrDecode     binary body or unknown encoding
//
// Bodies are capped at MaxBodyBytes and decoded to UTF-8 using, in order,
// the Content-Type charset, a BOM or <meta charset>, UTF-8 validation, and
// finally chardet.
package fetch
