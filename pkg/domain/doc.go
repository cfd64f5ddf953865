/*
Package domain contains the core domain models of the load bank gateway.

It defines the fixed route table that maps HTTP paths to serial-interface commands,
the request-scoped Invocation handed to the command invoker, and the tagged Result
an invocation produces. This package is kept pure and free of I/O so the dispatcher,
the process adapter and the protocol adapters (HTTP, MCP, CLI) can share it.

# Key Entities

  - Route: An immutable (path, command template) pair. The table never changes at runtime.
  - Invocation: The command token and ordered argument vector for one subprocess run.
  - Result: Exactly one of Success, Failure, SpawnError or Timeout, plus the captured output.
  - Response: The single status/content-type/body triple written back to the caller.
*/
package domain
