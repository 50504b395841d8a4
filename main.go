package main

import "github.com/frahmantamala/medical-filemanager/cmd"

func main() {
	cmd.Execute()
}
