/*
Package ports defines the driven ports (interfaces) of the load bank gateway.

These interfaces decouple the dispatcher from the way commands are actually run,
so the HTTP, MCP and CLI adapters can share one dispatcher while tests swap in spies.

# Key Interfaces

  - Invoker: Runs one Invocation against the serial interface and returns its Result.
  - DeviceLocker: Provides locking so only one invocation talks to the device at a time.
*/
package ports
