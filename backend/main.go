package main

import "ieltsprep/backend/cmd"

func main() {
	cmd.Execute()
}
