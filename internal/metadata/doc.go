// Package metadata extracts the flat attribute set mupacs stores for each
// archive file: patient demographics plus the study, series, and instance
// identifiers of the four-level hierarchy.
//
// The Reader and Sniffer interfaces are the ports the ingest pipeline
// consumes; FileReader and MagicSniffer are the DICOM-backed production
// implementations.
package metadata
