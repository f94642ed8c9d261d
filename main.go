package main

import "netbox-geo/cmd"

func main() {
	cmd.Execute()
}
