// Command purchasing drives the purchase order lifecycle from the shell:
// schema migrations, tenants, orders, line item reception and attachments.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
