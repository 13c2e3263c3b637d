package main

import "github.com/TrentConley/face-authentication/cmd"

func main() {
	cmd.Execute()
}
