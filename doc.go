// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package devices adapts the embd hardware library to the interfaces used by the rfm69
// packet engine and the gateway, as an alternative to periph on boards periph does not
// support. The packet engine itself is in the rfm69 directory, spibus turns any SPI
// connection into the register access it needs, and the gateway command in
// cmd/rfm69gw puts it all together.
package devices
