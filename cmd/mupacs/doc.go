// mupacs is the command-line client for the archive daemon. It submits
// imports, lists tracked jobs, queries the hierarchy, and manages the
// configuration file, all over the daemon's HTTP control API.
package main
