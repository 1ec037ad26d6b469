package main

import "github.com/KaramelBytes/shortform-signals/cmd"

func main() {
	cmd.Execute()
}
