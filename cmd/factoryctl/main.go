// Command factoryctl validates level files and runs headless factory
// scenarios from the terminal.
package main

func main() {
	Execute()
}
