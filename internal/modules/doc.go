// Package modules contains the self-contained application features.
//
// Each subdirectory is a module implementing module.Module. Modules are listed
// in internal/app and registered, booted and shut down by the server.
package modules
