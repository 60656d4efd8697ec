package main

import "eth-offline-signer/cmd/offline-signer/cmd"

func main() {
	cmd.Execute()
}
