// Package registration turns a pasted device-list payload into a stored
// device credential.
//
// The account service answers its device endpoint with a JSON object holding a
// user_devices array. Users copy that response out of a browser, often with
// surrounding noise, and paste it into the CLI. Register tolerates a leading
// prefix, takes the first listed device, and writes it through the credential
// store. It performs no network I/O; LoginURL only builds the address the CLI
// opens in a browser.
package registration
