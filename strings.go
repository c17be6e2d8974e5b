package rawhttp

var (
	strCRLF     = []byte("\r\n")
	strCRLFCRLF = []byte("\r\n\r\n")

	strHTTP11 = []byte("HTTP/1.1")
	strGMT    = []byte("GMT")

	strConnection       = []byte("CONNECTION")
	strContentLength    = []byte("CONTENT-LENGTH")
	strTransferEncoding = []byte("TRANSFER-ENCODING")
	strSecWebSocketKey1 = []byte("SEC-WEBSOCKET-KEY1")
	strTrailer          = []byte("TRAILER")
	strHost             = []byte("HOST")

	strDateHeader = []byte("Date")

	strClose     = []byte("close")
	strKeepAlive = []byte("keep-alive")
	strChunked   = []byte("chunked")

	strHTTPScheme  = []byte("http")
	strHTTPSScheme = []byte("https")

	defaultReasonPhrase = []byte("Unknown Status")
)
