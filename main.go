/*
Copyright © 2022 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/scratchminer/Hexlet-Emulator/cmd"

func main() {
	cmd.Execute()
}
