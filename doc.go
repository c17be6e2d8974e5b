/*
Package rawhttp provides a minimal HTTP/1.x request-parsing and
application-dispatch runtime.

It provides the following pieces:

	* Unreader, a buffered, push-back-capable byte source over a socket-like
	  reader.
	* LengthReader and ChunkedReader, the two body-reader variants for
	  Content-Length-framed and chunked-with-trailers bodies.
	* BodyStream, a file-like facade (Read/ReadLine/Discard) over either
	  reader.
	* RequestParser, which turns a byte stream into a Request: request line,
	  headers with continuation folding, and URI decomposition.
	* ConnectionLoop, which sequences multiple requests over one transport,
	  handling keep-alive and protocol upgrade.
	* Responder, which serializes an application's (status, headers, body)
	  triple back onto the transport.

rawhttp deliberately does not implement HTTP/2, TLS, persistent pipelining
with reordered responses, chunked response bodies, or content decoding: it
is the parsing and dispatch core an application server is built around, not
the server itself.
*/
package rawhttp
