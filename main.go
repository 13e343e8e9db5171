package main

import "github.com/fnino-dev/spotifygpt/cmd"

func main() {
	cmd.Execute()
}
