// Package main provides the entry point for the arachne CLI.
//
// arachne crawls a website from a seed URL, stays on the seed's host, and
// reports broken links and sensitive-looking content such as email
// addresses, developer comments and leaked credentials.
//
// Usage:
//
//	arachne scan <url>
//	arachne serve --addr 127.0.0.1:5000
//	arachne history <url>
//
// See --help for all available options.
package main

// main is the entry point for arachne.
func main() {
	Execute()
}
