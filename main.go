package main

import "github.com/jmehdipour/domain-offers/cmd"

func main() {
	cmd.Execute()
}
