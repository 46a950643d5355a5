// Package query answers level-scoped queries against the archive hierarchy.
//
// A Matcher translates a query's search keys into the candidate entities at
// one level, resolving natural keys by direct lookup, DICOM wildcard patterns
// by store search, and everything else by an in-memory exact filter. A Cursor
// then iterates those candidates one response at a time, the way the query
// protocol drives it.
package query
