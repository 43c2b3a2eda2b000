// This program provides command line access to the ledger gateway.
package main

import "github.com/ardanlabs/ledgerview/app/tooling/ledger/cmd"

func main() {
	cmd.Execute()
}
