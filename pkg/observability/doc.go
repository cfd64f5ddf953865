/*
Package observability provides Prometheus metrics for the gateway.

Metrics are kept in a private registry so several gateways (or tests) can live in one
process. Invocation metrics are fed by domain.InvokeHooks; request metrics are fed by
the HTTP adapter.
*/
package observability
