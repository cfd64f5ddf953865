// Command serial_interface runs one request against the load bank controller and
// prints a JSON reply.
//
//	serial_interface ZCS? | ZCS ON | ZCS OFF | SW? | SW <switches> | PHASE? | PHASE <phases>
//
// Exit status 0 means the controller answered; 1 a rejected request (reply on stdout);
// 2 a device or I/O failure (reply on stderr).
package main

import (
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
