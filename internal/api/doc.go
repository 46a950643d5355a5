// Package api defines the transport-friendly types and services the daemon's
// HTTP surface and the CLI share. Services wrap the domain packages and
// return DTOs; nothing in here touches the network.
package api
