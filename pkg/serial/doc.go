/*
Package serial speaks the load bank controller protocol.

Every message in either direction is a frame: one length byte followed by that many
payload bytes. Requests are short ASCII commands terminated by a newline; switch and
phase states travel as 32-bit masks in big-endian order, bit i standing for unit i.

	ZCS?\n               ZCS ON | ZCS OFF
	ZCS ON\n, ZCS OFF\n  OK
	SW?\n                SW <mask>
	SW <mask>\n          OK | ERR ZCS TMOUT
	PHASE?\n             PHASE <mask1><mask2><mask3>
	PHASE <masks>\n      OK

Set commands are always followed by a query, so callers see the state the controller
actually applied.
*/
package serial
