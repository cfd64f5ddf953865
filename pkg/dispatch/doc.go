/*
Package dispatch maps gateway paths to serial interface invocations.

The Dispatcher owns the fixed route table from package domain. It normalises the
incoming path by stripping exactly one trailing slash, matches it exactly
(case-sensitive, never by prefix), reads the optional values query parameter and
hands the resulting Invocation to a ports.Invoker. Every protocol adapter (HTTP,
MCP, CLI) goes through the same Dispatcher, so they cannot drift apart.

Unknown paths never reach the invoker: they produce the fixed 404 "Not Found"
response. A "set" route called without values is rejected with 400 instead of
forwarding a placeholder to the serial interface.
*/
package dispatch
