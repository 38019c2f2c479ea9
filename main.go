package main

import "github.com/theirongolddev/sobres/cmd"

func main() {
	cmd.Execute()
}
