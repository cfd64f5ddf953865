/*
Package loadbank is an HTTP gateway for a programmable load bank.

Each request to one of a fixed set of paths is translated into exactly one run of the
serial interface executable, which talks to the load bank controller over a serial port.
The gateway never interprets the device protocol: it forwards the process output
verbatim and maps the way the process ended onto an HTTP status.

# Routes

	/api/v1/phases/status     PHASE?
	/api/v1/phases?values=s   PHASE <s>
	/api/v1/switches/status   SW?
	/api/v1/switches?values=s SW <s>
	/api/v1/zcs/status        ZCS?
	/api/v1/zcs/on            ZCS ON
	/api/v1/zcs/off           ZCS OFF

Any method is accepted and one trailing slash is ignored. Everything else is 404.

# Usage

	gw, err := loadbank.New(
		loadbank.WithBinary("/usr/local/bin/serial_interface"),
		loadbank.WithTimeout(10*time.Second),
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Fatal(http.ListenAndServe(":6001", gw.Handler()))

A Gateway also exposes an admin handler (metrics, health, OpenAPI document, route table
and an invocation event stream) meant for a separate listener, and an MCP server with one
tool per route.
*/
package loadbank
