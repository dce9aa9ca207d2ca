// Package xmlcodec converts between structured values and XML text.
//
// An Encoder renders a *Map (or a List of *Map) as nested elements named
// after the map keys. A Decoder parses a document into a *Map holding its
// root element. Both pick the first available backend from an ordered list
// on first use and remember the choice, or the failure, for their lifetime.
// The etree backends come first; building with the httpxml_noetree tag
// leaves only encoding/xml.
package xmlcodec
