// Package middleware provides the XML request and response stages.
//
// Request encodes structured request bodies as XML and defaults the
// Content-Type header to application/xml. Response decodes XML response
// bodies into xmlcodec values and reports failures as *ParsingError
// carrying the response being processed.
//
// Both stages register under the name "xml":
//
//	reg := pipeline.NewRegistry()
//	middleware.Register(reg)
//	conn, err := reg.Connection(cfg, logger)
package middleware
