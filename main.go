package main

import "github.com/CristiGvl/hwsense/cmd"

func main() {
	cmd.Execute()
}
